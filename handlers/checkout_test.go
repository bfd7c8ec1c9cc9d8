package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/catalog"
	"storefront-service/internal/orders"
	"storefront-service/internal/stripecli"
)

type mirrorCatalog struct{}

func (mirrorCatalog) GetPrice(_ context.Context, priceID string) (catalog.Price, error) {
	if priceID != "price_1" {
		return catalog.Price{}, apperr.NotFound("price", priceID)
	}
	return catalog.Price{ID: "price_1", ProductID: "prod_1", UnitAmount: 699, Currency: "usd", Active: true}, nil
}

func (mirrorCatalog) GetProduct(_ context.Context, productID string) (catalog.Product, error) {
	return catalog.Product{ID: productID, Name: "IGCSE PE Unit 1: Anatomy and Physiology", Active: true}, nil
}

type ledger struct {
	orders []orders.Order
}

func (l *ledger) CreateOrder(_ context.Context, o orders.Order) (orders.Order, error) {
	l.orders = append(l.orders, o)
	return o, nil
}

func (l *ledger) GetOrder(_ context.Context, id string) (orders.Order, error) {
	return orders.Order{}, apperr.NotFound("order", id)
}

func (l *ledger) GetOrderBySessionID(_ context.Context, sessionID string) (orders.Order, error) {
	return orders.Order{}, apperr.NotFound("order", sessionID)
}

func (l *ledger) UpdateOrderStatus(_ context.Context, id string, _ orders.StatusUpdate) (orders.Order, error) {
	return orders.Order{}, apperr.NotFound("order", id)
}

func (l *ledger) ListOrders(context.Context, orders.ListParams) ([]orders.Order, error) {
	return l.orders, nil
}

// stripeRejectingSessions answers session creation the way Stripe does when
// the mirror still lists a price that was deleted at Stripe.
func stripeRejectingSessions(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "code": "resource_missing", "message": "No such price: 'price_1'"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckoutStalePriceAtProvider(t *testing.T) {
	srv := stripeRejectingSessions(t)
	sc, err := stripecli.New(stripecli.Config{SecretKey: "sk_test_123", PublishableKey: "pk_test_123", APIURL: srv.URL})
	require.NoError(t, err)

	store := &ledger{}
	svc, err := orders.NewService(mirrorCatalog{}, sc, store, nil)
	require.NoError(t, err)

	h, err := NewHandler(&MockCatalog{}, svc, &MockContact{}, sc)
	require.NoError(t, err)
	r, err := API(h, nil)
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/api/checkout", `{"priceId":"price_1"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create checkout session", decode(t, w)["error"])
	assert.Empty(t, store.orders)

	w = do(r, http.MethodPost, "/api/checkout", `{"priceId":"price_unknown"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Price not found", decode(t, w)["error"])
}
