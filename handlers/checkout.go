package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/orders"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

func (h *Handler) Checkout(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Info("json validation error", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Price ID is required"})
		return
	}

	res, err := h.orders.Checkout(c.Request.Context(), orders.CheckoutRequest{
		PriceID: req.PriceID,
		BaseURL: baseURL(c),
	})
	if err != nil {
		abortWithError(c, err, "Failed to create checkout session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.URL})
}

// baseURL is the scheme and host the customer used to reach the storefront,
// honouring X-Forwarded-Proto and X-Forwarded-Host set by a proxy.
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := firstHeaderValue(c, "X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	host := c.Request.Host
	if h := firstHeaderValue(c, "X-Forwarded-Host"); h != "" {
		host = h
	}
	return scheme + "://" + host
}

func firstHeaderValue(c *gin.Context, key string) string {
	v, _, _ := strings.Cut(c.GetHeader(key), ",")
	return strings.ToLower(strings.TrimSpace(v))
}
