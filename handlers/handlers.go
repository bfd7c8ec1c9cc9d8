package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/catalog"
	"storefront-service/internal/contact"
	"storefront-service/internal/orders"
	"storefront-service/internal/stripecli"
	"storefront-service/middleware"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type CatalogService interface {
	ListProductsWithPrices(ctx context.Context, params catalog.ListParams) ([]catalog.ProductWithPrice, error)
	ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error)
	ListPrices(ctx context.Context, params catalog.ListParams) ([]catalog.Price, error)
	Sync(ctx context.Context) (catalog.SyncResult, error)
}

type OrderService interface {
	Checkout(ctx context.Context, req orders.CheckoutRequest) (orders.CheckoutResult, error)
	CompleteSession(ctx context.Context, out orders.SessionOutcome) (orders.Order, error)
	FailSession(ctx context.Context, sessionID string) (orders.Order, error)
	Get(ctx context.Context, id string) (orders.Order, error)
	List(ctx context.Context, params orders.ListParams) ([]orders.Order, error)
}

type ContactService interface {
	Submit(ctx context.Context, sub contact.Submission) (contact.Message, error)
	List(ctx context.Context, limit, offset int) ([]contact.Message, error)
}

// PaymentGateway is the client-facing part of the payment provider.
type PaymentGateway interface {
	PublishableKey() (string, error)
	HasWebhookSecret() bool
	ParseWebhook(payload []byte, signature string) (stripecli.WebhookEvent, error)
}

type Handler struct {
	catalog  CatalogService
	orders   OrderService
	contact  ContactService
	payments PaymentGateway
}

func NewHandler(cs CatalogService, ord OrderService, ct ContactService, pg PaymentGateway) (*Handler, error) {
	if cs == nil || ord == nil || ct == nil || pg == nil {
		return nil, fmt.Errorf("handler dependencies cannot be nil")
	}
	return &Handler{catalog: cs, orders: ord, contact: ct, payments: pg}, nil
}

// API builds the engine. The webhook route is mounted only when the gateway
// can verify signatures and the admin routes only when k is not nil.
func API(h *Handler, k *auth.Keys) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/stripe/publishable-key", h.PublishableKey)
		api.GET("/products-with-prices", h.ProductsWithPrices)
		api.GET("/products", h.Products)
		api.GET("/prices", h.Prices)
		api.POST("/checkout", h.Checkout)
		api.POST("/contact", h.Contact)
		if h.payments.HasWebhookSecret() {
			api.POST("/stripe/webhook", h.Webhook)
		}
	}

	if k != nil {
		m, err := middleware.NewMid(k)
		if err != nil {
			return nil, err
		}
		admin := r.Group("/api/admin")
		admin.Use(m.Authentication(), m.Authorize(auth.RoleAdmin))
		{
			admin.GET("/orders", h.ListOrders)
			admin.GET("/orders/:id", h.GetOrder)
			admin.GET("/contact-messages", h.ListContactMessages)
			admin.POST("/catalog/sync", h.SyncCatalog)
		}
	}
	return r, nil
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// abortWithError maps the error taxonomy to a status code. Provider and
// persistence detail is logged and replaced by fallback. A checkout failure
// is always a 500, whatever its cause.
func abortWithError(c *gin.Context, err error, fallback string) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	var cf *apperr.CheckoutFailedError
	var ve *apperr.ValidationError
	var nf *apperr.NotFoundError
	var ce *apperr.ConflictError
	switch {
	case errors.As(err, &cf):
		slog.Error(fallback, slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fallback})
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Message}
		if len(ve.Fields) > 0 {
			body["details"] = ve.Fields
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case errors.As(err, &nf):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": capitalize(nf.Resource) + " not found"})
	case errors.As(err, &ce):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": ce.Message})
	default:
		slog.Error(fallback, slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pageQuery reads limit and offset. Absent values are left zero for the
// services to default.
func pageQuery(c *gin.Context) (limit, offset int, err error) {
	if limit, err = intQuery(c, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intQuery(c, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Validation("Invalid query parameter",
			apperr.FieldViolation{Field: key, Rule: "number", Message: key + " must be a non-negative integer"})
	}
	return v, nil
}

// catalogQuery reads active, limit and offset over DefaultListParams.
func catalogQuery(c *gin.Context) (catalog.ListParams, error) {
	params := catalog.DefaultListParams()
	if raw, ok := c.GetQuery("active"); ok {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return catalog.ListParams{}, apperr.Validation("Invalid query parameter",
				apperr.FieldViolation{Field: "active", Rule: "boolean", Message: "active must be true or false"})
		}
		params.Active = active
	}
	limit, offset, err := pageQuery(c)
	if err != nil {
		return catalog.ListParams{}, err
	}
	params.Limit = limit
	params.Offset = offset
	return params.Normalize(), nil
}
