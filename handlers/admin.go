package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/orders"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

func (h *Handler) ListOrders(c *gin.Context) {
	limit, offset, err := pageQuery(c)
	if err != nil {
		abortWithError(c, err, "Failed to list orders")
		return
	}
	list, err := h.orders.List(c.Request.Context(), orders.ListParams{
		Status: orders.Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		abortWithError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err, "Failed to get order")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) ListContactMessages(c *gin.Context) {
	limit, offset, err := pageQuery(c)
	if err != nil {
		abortWithError(c, err, "Failed to list contact messages")
		return
	}
	list, err := h.contact.List(c.Request.Context(), limit, offset)
	if err != nil {
		abortWithError(c, err, "Failed to list contact messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) SyncCatalog(c *gin.Context) {
	res, err := h.catalog.Sync(c.Request.Context())
	if err != nil {
		abortWithError(c, err, "Failed to sync catalog")
		return
	}
	slog.Info("catalog synced", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.Int("Products", res.Products), slog.Int("Prices", res.Prices))
	c.JSON(http.StatusOK, res)
}
