package stripecli

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

const (
	EventSessionCompleted             = "checkout.session.completed"
	EventSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventSessionAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventSessionExpired               = "checkout.session.expired"

	PaymentStatusUnpaid = "unpaid"
)

// WebhookEvent is the part of a verified checkout session event the ledger
// needs. Session fields are empty for other event types.
type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	Email           string
	PaymentStatus   string
}

// HasWebhookSecret reports whether signed webhooks can be verified.
func (c *Client) HasWebhookSecret() bool {
	return c.webhookSecret != ""
}

// ParseWebhook verifies the Stripe-Signature header against payload and
// decodes checkout session events.
func (c *Client) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if c.webhookSecret == "" {
		return WebhookEvent{}, fmt.Errorf("stripe webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to verify webhook: %w", err)
	}

	out := WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case EventSessionCompleted, EventSessionAsyncPaymentSucceeded, EventSessionAsyncPaymentFailed, EventSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return WebhookEvent{}, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.SessionID = s.ID
		out.Email = sessionEmail(&s)
		out.PaymentStatus = string(s.PaymentStatus)
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}
	}
	return out, nil
}
