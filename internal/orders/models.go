package orders

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// UnknownProductName is recorded when the product of a valid price cannot be read.
const UnknownProductName = "Unknown Product"

// CanTransitionTo reports whether an order in status s may move to next.
// Only pending orders change status.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusFailed)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Order is a purchase recorded in the ledger. ProductName, Amount and Currency
// are captured at checkout and never re-derived from the catalog.
type Order struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	StripeSessionID       *string   `json:"stripeSessionId"`
	StripePaymentIntentID *string   `json:"stripePaymentIntentId"`
	ProductID             string    `json:"productId"`
	ProductName           string    `json:"productName"`
	Amount                int64     `json:"amount"`
	Currency              string    `json:"currency"`
	Status                Status    `json:"status"`
	CreatedAt             time.Time `json:"createdAt"`
}

// CheckoutRequest starts a purchase of one unit of PriceID. BaseURL is the
// scheme and host the customer is redirected back to.
type CheckoutRequest struct {
	PriceID string
	BaseURL string
}

type CheckoutResult struct {
	URL   string
	Order Order
}

// SessionRequest is what the provider needs to open a checkout session.
type SessionRequest struct {
	PriceID    string
	Quantity   int64
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is a provider checkout session. CustomerEmail is empty when the
// provider did not capture one.
type Session struct {
	ID            string
	URL           string
	CustomerEmail string
}

// SessionOutcome is the reconciled result of a completed checkout session.
type SessionOutcome struct {
	SessionID       string
	PaymentIntentID string
	Email           string
}

// StatusUpdate is applied to an order by the ledger.
type StatusUpdate struct {
	Status          Status
	PaymentIntentID string
	Email           string
}

type ListParams struct {
	Status Status
	Limit  int
	Offset int
}
