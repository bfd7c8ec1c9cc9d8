package kafka

import "time"

const (
	TopicOrderCreated    = `storefront.order-created`
	TopicOrderCompleted  = `storefront.order-completed`
	TopicOrderFailed     = `storefront.order-failed`
	TopicContactReceived = `storefront.contact-received`
)

// OrderEvent is published whenever an order is created or changes status.
type OrderEvent struct {
	OrderID       string    `json:"order_id"`
	SessionID     string    `json:"session_id,omitempty"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	DisplayAmount string    `json:"display_amount"`
	Status        string    `json:"status"`
	Email         string    `json:"email,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ContactReceivedEvent is published after a contact message is stored.
type ContactReceivedEvent struct {
	MessageID string    `json:"message_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}
