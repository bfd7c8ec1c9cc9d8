package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/orders"
	"storefront-service/internal/stripecli"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const maxWebhookBytes = int64(65536)

// Webhook reconciles checkout sessions with the ledger. Events that can never
// succeed on redelivery (unknown session, illegal transition) are acknowledged;
// ledger failures return 500 so Stripe retries.
func (h *Handler) Webhook(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.Error("failed to read webhook body", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	event, err := h.payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		slog.Error("webhook verification failed", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case stripecli.EventSessionCompleted, stripecli.EventSessionAsyncPaymentSucceeded:
		if event.PaymentStatus == stripecli.PaymentStatusUnpaid {
			slog.Info("checkout session completed but payment pending", slog.String(logkey.TraceID, traceID),
				slog.String(logkey.SessionID, event.SessionID))
			break
		}
		_, err = h.orders.CompleteSession(ctx, orders.SessionOutcome{
			SessionID:       event.SessionID,
			PaymentIntentID: event.PaymentIntentID,
			Email:           event.Email,
		})
	case stripecli.EventSessionExpired, stripecli.EventSessionAsyncPaymentFailed:
		_, err = h.orders.FailSession(ctx, event.SessionID)
	default:
		slog.Info("unhandled event type", slog.String(logkey.TraceID, traceID), slog.String("EventType", event.Type))
	}

	if err != nil {
		var ce *apperr.ConflictError
		if !apperr.IsNotFound(err) && !errors.As(err, &ce) {
			slog.Error("failed to reconcile checkout session", slog.String(logkey.TraceID, traceID),
				slog.String(logkey.SessionID, event.SessionID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
			return
		}
		slog.Warn("webhook event ignored", slog.String(logkey.TraceID, traceID), slog.String("EventType", event.Type),
			slog.String(logkey.SessionID, event.SessionID), slog.String(logkey.ERROR, err.Error()))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
