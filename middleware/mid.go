package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const (
	TraceIDHeader = "X-Trace-Id"
	claimsKey     = "claims"
)

type Mid struct {
	k *auth.Keys
}

func NewMid(k *auth.Keys) (*Mid, error) {
	if k == nil {
		return nil, fmt.Errorf("keys cannot be nil")
	}
	return &Mid{k: k}, nil
}

// Logger assigns every request a trace id, opens a server span and logs the
// request once it has been handled.
func Logger() gin.HandlerFunc {
	tracer := otel.Tracer("storefront-service/http")
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx = ctxmanage.WithTraceID(ctx, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceIDHeader, traceID)

		start := time.Now()
		slog.Info("started", slog.String(logkey.TraceID, traceID),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path))

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.route", c.FullPath()),
			attribute.Int("http.status_code", status),
		)
		slog.Info("completed", slog.String(logkey.TraceID, traceID),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path),
			slog.Int("Status Code", status), slog.Duration("Latency", time.Since(start)))
	}
}

// Authentication requires a valid bearer token and stores its claims.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := ctxmanage.GetTraceIdOfRequest(c)

		header := c.GetHeader("Authorization")
		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			slog.Info("missing bearer token", slog.String(logkey.TraceID, traceID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}

		claims, err := m.k.ValidateToken(parts[1])
		if err != nil {
			slog.Info("invalid token", slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}

		c.Set(claimsKey, *claims)
		c.Next()
	}
}

// Authorize must run after Authentication.
func (m *Mid) Authorize(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := ClaimsOf(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			slog.Info("role not allowed", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
				slog.String("Role", claims.Role), slog.String("Subject", claims.Subject))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": http.StatusText(http.StatusForbidden)})
			return
		}
		c.Next()
	}
}

func ClaimsOf(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}
