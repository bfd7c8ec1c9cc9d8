package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront-service/internal/apperr"
	"storefront-service/internal/catalog"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// SessionIDPlaceholder is replaced by the provider with the session id when
// it redirects the customer to the success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

const defaultCurrency = "usd"

// defaultPublishTimeout bounds how long a request waits on the event publisher.
const defaultPublishTimeout = 2 * time.Second

// CatalogReader resolves prices and products through the catalog read path.
type CatalogReader interface {
	GetPrice(ctx context.Context, priceID string) (catalog.Price, error)
	GetProduct(ctx context.Context, productID string) (catalog.Product, error)
}

// SessionCreator opens one-time payment checkout sessions at the provider.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}

type Store interface {
	CreateOrder(ctx context.Context, o Order) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (Order, error)
	UpdateOrderStatus(ctx context.Context, id string, upd StatusUpdate) (Order, error)
	ListOrders(ctx context.Context, params ListParams) ([]Order, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Service struct {
	catalog  CatalogReader
	sessions SessionCreator
	store    Store
	events   EventPublisher
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() string

	publishTimeout time.Duration
}

// NewService wires the order service. events may be nil, in which case no
// events are published.
func NewService(c CatalogReader, sessions SessionCreator, store Store, events EventPublisher) (*Service, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog reader is nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session creator is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("order store is nil")
	}
	return &Service{
		catalog:  c,
		sessions: sessions,
		store:    store,
		events:   events,
		tracer:   otel.Tracer("storefront-service/orders"),
		now:      time.Now,
		newID:    uuid.NewString,

		publishTimeout: defaultPublishTimeout,
	}, nil
}

// Checkout opens a provider session for one unit of the requested price and
// records a pending order keyed by the session id.
//
// The session and the order row are not written atomically: if the order
// insert fails the session already exists at the provider with no local
// record. The failure is logged with the session id and reported to the
// caller as CheckoutFailedError.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "orders.Checkout")
	defer span.End()
	traceID := ctxmanage.GetTraceId(ctx)

	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		return CheckoutResult{}, apperr.Validation("Price ID is required",
			apperr.FieldViolation{Field: "priceId", Rule: "required", Message: "is required"})
	}
	span.SetAttributes(attribute.String("price_id", priceID))

	price, err := s.catalog.GetPrice(ctx, priceID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return CheckoutResult{}, apperr.NotFound("price", priceID)
		}
		return CheckoutResult{}, apperr.CheckoutFailed(err)
	}
	if !price.Active {
		slog.Info("checkout requested for inactive price", slog.String(logkey.TraceID, traceID), slog.String(logkey.PriceID, priceID))
		return CheckoutResult{}, apperr.NotFound("price", priceID)
	}

	productName := UnknownProductName
	product, err := s.catalog.GetProduct(ctx, price.ProductID)
	if err != nil {
		slog.Warn("product lookup failed, using placeholder name", slog.String(logkey.TraceID, traceID),
			slog.String(logkey.ProductID, price.ProductID), slog.String(logkey.ERROR, err.Error()))
	} else if product.Name != "" {
		productName = product.Name
	}

	base := strings.TrimRight(req.BaseURL, "/")
	session, err := s.sessions.CreateCheckoutSession(ctx, SessionRequest{
		PriceID:    priceID,
		Quantity:   1,
		SuccessURL: base + "/checkout/success?session_id=" + SessionIDPlaceholder,
		CancelURL:  base + "/checkout/cancel",
		Metadata: map[string]string{
			"productId":   price.ProductID,
			"productName": productName,
		},
	})
	if err != nil {
		slog.Error("error creating checkout session", slog.String(logkey.TraceID, traceID),
			slog.String(logkey.PriceID, priceID), slog.String(logkey.ERROR, err.Error()))
		return CheckoutResult{}, apperr.CheckoutFailed(err)
	}

	currency := strings.ToLower(price.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	sessionID := session.ID
	order := Order{
		ID:              s.newID(),
		Email:           session.CustomerEmail,
		StripeSessionID: &sessionID,
		ProductID:       price.ProductID,
		ProductName:     productName,
		Amount:          price.UnitAmount,
		Currency:        currency,
		Status:          StatusPending,
		CreatedAt:       s.now().UTC(),
	}

	created, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		slog.Error("checkout session created but order was not recorded", slog.String(logkey.TraceID, traceID),
			slog.String(logkey.SessionID, session.ID), slog.String(logkey.ERROR, err.Error()))
		return CheckoutResult{}, apperr.CheckoutFailed(apperr.Persistence("create order", err))
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceID), slog.String(logkey.OrderID, created.ID),
		slog.String(logkey.SessionID, session.ID), slog.String("Amount", catalog.FormatAmount(created.Amount, created.Currency)))
	s.publish(ctx, kafka.TopicOrderCreated, created)

	return CheckoutResult{URL: session.URL, Order: created}, nil
}

// CompleteSession marks the order of a paid session completed.
func (s *Service) CompleteSession(ctx context.Context, out SessionOutcome) (Order, error) {
	return s.transition(ctx, out.SessionID, StatusUpdate{
		Status:          StatusCompleted,
		PaymentIntentID: out.PaymentIntentID,
		Email:           out.Email,
	}, kafka.TopicOrderCompleted)
}

// FailSession marks the order of an expired or failed session failed.
func (s *Service) FailSession(ctx context.Context, sessionID string) (Order, error) {
	return s.transition(ctx, sessionID, StatusUpdate{Status: StatusFailed}, kafka.TopicOrderFailed)
}

func (s *Service) transition(ctx context.Context, sessionID string, upd StatusUpdate, topic string) (Order, error) {
	traceID := ctxmanage.GetTraceId(ctx)
	if sessionID == "" {
		return Order{}, apperr.Validation("Session ID is required",
			apperr.FieldViolation{Field: "sessionId", Rule: "required", Message: "is required"})
	}

	order, err := s.store.GetOrderBySessionID(ctx, sessionID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Order{}, err
		}
		return Order{}, apperr.Persistence("get order by session", err)
	}

	// redelivered event
	if order.Status == upd.Status {
		return order, nil
	}
	if !order.Status.CanTransitionTo(upd.Status) {
		return Order{}, apperr.Conflict("order %s cannot move from %s to %s", order.ID, order.Status, upd.Status)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, order.ID, upd)
	if err != nil {
		var ce *apperr.ConflictError
		if apperr.IsNotFound(err) || errors.As(err, &ce) {
			return Order{}, err
		}
		return Order{}, apperr.Persistence("update order status", err)
	}

	slog.Info("order status updated", slog.String(logkey.TraceID, traceID), slog.String(logkey.OrderID, updated.ID),
		slog.String(logkey.SessionID, sessionID), slog.String("Status", string(updated.Status)))
	s.publish(ctx, topic, updated)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Order{}, err
		}
		return Order{}, apperr.Persistence("get order", err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Order, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, apperr.Validation("Invalid status filter",
			apperr.FieldViolation{Field: "status", Rule: "oneof", Param: "pending completed failed", Message: "must be pending, completed or failed"})
	}
	if params.Limit <= 0 {
		params.Limit = catalog.DefaultLimit
	}
	if params.Limit > catalog.MaxLimit {
		params.Limit = catalog.MaxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	list, err := s.store.ListOrders(ctx, params)
	if err != nil {
		return nil, apperr.Persistence("list orders", err)
	}
	if list == nil {
		list = []Order{}
	}
	return list, nil
}

// publish is best effort; the ledger is the source of truth.
func (s *Service) publish(ctx context.Context, topic string, o Order) {
	if s.events == nil {
		return
	}
	evt := kafka.OrderEvent{
		OrderID:       o.ID,
		ProductID:     o.ProductID,
		ProductName:   o.ProductName,
		Amount:        o.Amount,
		Currency:      o.Currency,
		DisplayAmount: catalog.FormatAmount(o.Amount, o.Currency),
		Status:        string(o.Status),
		Email:         o.Email,
		CreatedAt:     o.CreatedAt,
	}
	if o.StripeSessionID != nil {
		evt.SessionID = *o.StripeSessionID
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.events.PublishJSON(pctx, topic, o.ID, evt); err != nil {
		slog.Error("failed to publish order event", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
			slog.String(logkey.OrderID, o.ID), slog.String("Topic", topic), slog.String(logkey.ERROR, err.Error()))
	}
}
