package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

func (h *Handler) PublishableKey(c *gin.Context) {
	key, err := h.payments.PublishableKey()
	if err != nil {
		slog.Error("error getting stripe publishable key", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to get Stripe configuration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publishableKey": key})
}

// ProductsWithPrices responds with a bare array of products with their active prices.
func (h *Handler) ProductsWithPrices(c *gin.Context) {
	params, err := catalogQuery(c)
	if err != nil {
		abortWithError(c, err, "Failed to list products")
		return
	}
	list, err := h.catalog.ListProductsWithPrices(c.Request.Context(), params)
	if err != nil {
		abortWithError(c, err, "Failed to list products")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Products(c *gin.Context) {
	params, err := catalogQuery(c)
	if err != nil {
		abortWithError(c, err, "Failed to list products")
		return
	}
	list, err := h.catalog.ListProducts(c.Request.Context(), params)
	if err != nil {
		abortWithError(c, err, "Failed to list products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) Prices(c *gin.Context) {
	params, err := catalogQuery(c)
	if err != nil {
		abortWithError(c, err, "Failed to list prices")
		return
	}
	list, err := h.catalog.ListPrices(c.Request.Context(), params)
	if err != nil {
		abortWithError(c, err, "Failed to list prices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
