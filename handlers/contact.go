package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/contact"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

func (h *Handler) Contact(c *gin.Context) {
	traceID := ctxmanage.GetTraceIdOfRequest(c)

	var sub contact.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		slog.Info("json validation error", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "Invalid form data",
			"details": []apperr.FieldViolation{
				{Field: "body", Rule: "json", Message: "request body must be a JSON object of strings"},
			},
		})
		return
	}

	msg, err := h.contact.Submit(c.Request.Context(), sub)
	if err != nil {
		abortWithError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}
