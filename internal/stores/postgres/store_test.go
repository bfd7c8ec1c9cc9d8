package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/catalog"
	"storefront-service/internal/contact"
	"storefront-service/internal/orders"
)

// newTestConf connects to STOREFRONT_TEST_DATABASE_URL, migrates it and
// truncates every table. Tests are skipped when it is unset.
func newTestConf(t *testing.T) *Conf {
	t.Helper()
	dsn := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := OpenDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE orders, contact_messages, stripe.prices, stripe.products, stripe.sync_state`)
	require.NoError(t, err)

	conf, err := NewConf(db)
	require.NoError(t, err)
	return conf
}

func TestNewConfNilDB(t *testing.T) {
	_, err := NewConf(nil)
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }

func TestCatalogMirror(t *testing.T) {
	conf := newTestConf(t)
	ctx := context.Background()

	populated, err := conf.IsPopulated(ctx)
	require.NoError(t, err)
	assert.False(t, populated)

	products := []catalog.Product{
		{ID: "prod_1", Name: "Unit 1", Description: strPtr("Joints"), Active: true, Metadata: map[string]string{"course": "igcse", "unitNumber": "1"}},
		{ID: "prod_2", Name: "Unit 2", Active: true},
		{ID: "prod_3", Name: "Retired", Active: false},
	}
	prices := []catalog.Price{
		{ID: "price_1b", UnitAmount: 999, Currency: "usd", ProductID: "prod_1", Active: true},
		{ID: "price_1a", UnitAmount: 699, Currency: "usd", ProductID: "prod_1", Active: true},
		{ID: "price_1x", UnitAmount: 100, Currency: "usd", ProductID: "prod_1", Active: false},
	}
	syncedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, conf.ReplaceCatalog(ctx, products, prices, syncedAt))

	populated, err = conf.IsPopulated(ctx)
	require.NoError(t, err)
	assert.True(t, populated)

	rows, err := conf.ListProductRows(ctx, catalog.DefaultListParams())
	require.NoError(t, err)
	grouped := catalog.GroupRows(rows)
	require.Len(t, grouped, 2)
	assert.Equal(t, "prod_1", grouped[0].ID)
	require.Len(t, grouped[0].Prices, 2)
	assert.Equal(t, "price_1a", grouped[0].Prices[0].ID)
	assert.Equal(t, "price_1b", grouped[0].Prices[1].ID)
	assert.Equal(t, "igcse", grouped[0].Course())
	assert.Equal(t, "prod_2", grouped[1].ID)
	assert.Empty(t, grouped[1].Prices)
	assert.NotNil(t, grouped[1].Metadata)

	p, err := conf.GetProduct(ctx, "prod_1")
	require.NoError(t, err)
	require.NotNil(t, p.Description)
	assert.Equal(t, "Joints", *p.Description)

	pr, err := conf.GetPrice(ctx, "price_1x")
	require.NoError(t, err)
	assert.False(t, pr.Active)

	_, err = conf.GetPrice(ctx, "price_missing")
	assert.True(t, apperr.IsNotFound(err))

	inactive, err := conf.ListProducts(ctx, catalog.ListParams{Active: false, Limit: 10})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "prod_3", inactive[0].ID)

	active, err := conf.ListPrices(ctx, catalog.ListParams{Active: true, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "price_1b", active[0].ID)

	// a second sync replaces rather than merges
	require.NoError(t, conf.ReplaceCatalog(ctx, products[1:2], nil, syncedAt.Add(time.Hour)))
	_, err = conf.GetProduct(ctx, "prod_1")
	assert.True(t, apperr.IsNotFound(err))
}

func TestReplaceCatalogRollsBack(t *testing.T) {
	conf := newTestConf(t)
	ctx := context.Background()

	err := conf.ReplaceCatalog(ctx,
		[]catalog.Product{{ID: "prod_1", Name: "Unit 1", Active: true}},
		[]catalog.Price{{ID: "price_x", UnitAmount: 699, Currency: "usd", ProductID: "prod_unknown", Active: true}},
		time.Now())
	require.Error(t, err)

	populated, err := conf.IsPopulated(ctx)
	require.NoError(t, err)
	assert.False(t, populated)
	_, err = conf.GetProduct(ctx, "prod_1")
	assert.True(t, apperr.IsNotFound(err))
}

func newOrder(sessionID string) orders.Order {
	return orders.Order{
		ID:              uuid.NewString(),
		StripeSessionID: strPtr(sessionID),
		ProductID:       "prod_1",
		ProductName:     "Unit 1",
		Amount:          699,
		Currency:        "usd",
		Status:          orders.StatusPending,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestOrderLedger(t *testing.T) {
	conf := newTestConf(t)
	ctx := context.Background()

	in := newOrder("cs_1")
	created, err := conf.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, created)

	got, err := conf.GetOrderBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)

	_, err = conf.GetOrder(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))

	completed, err := conf.UpdateOrderStatus(ctx, in.ID, orders.StatusUpdate{
		Status: orders.StatusCompleted, PaymentIntentID: "pi_1", Email: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, completed.Status)
	assert.Equal(t, "pi_1", *completed.StripePaymentIntentID)
	assert.Equal(t, "buyer@example.com", completed.Email)
	assert.Equal(t, int64(699), completed.Amount)

	same, err := conf.UpdateOrderStatus(ctx, in.ID, orders.StatusUpdate{Status: orders.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", *same.StripePaymentIntentID)

	_, err = conf.UpdateOrderStatus(ctx, in.ID, orders.StatusUpdate{Status: orders.StatusFailed})
	var ce *apperr.ConflictError
	assert.ErrorAs(t, err, &ce)

	_, err = conf.UpdateOrderStatus(ctx, "missing", orders.StatusUpdate{Status: orders.StatusFailed})
	assert.True(t, apperr.IsNotFound(err))

	_, err = conf.CreateOrder(ctx, newOrder("cs_2"))
	require.NoError(t, err)

	pending, err := conf.ListOrders(ctx, orders.ListParams{Status: orders.StatusPending, Limit: 10})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "cs_2", *pending[0].StripeSessionID)

	all, err := conf.ListOrders(ctx, orders.ListParams{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrderDuplicateSession(t *testing.T) {
	conf := newTestConf(t)
	ctx := context.Background()

	_, err := conf.CreateOrder(ctx, newOrder("cs_dup"))
	require.NoError(t, err)
	_, err = conf.CreateOrder(ctx, newOrder("cs_dup"))
	assert.Error(t, err)
}

func TestContactMessages(t *testing.T) {
	conf := newTestConf(t)
	ctx := context.Background()

	in := contact.Message{
		ID:        uuid.NewString(),
		Name:      "Ada",
		Email:     "ada@example.com",
		Subject:   "Hello there",
		Message:   "A message long enough to pass validation.",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	created, err := conf.CreateContactMessage(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, created)

	list, err := conf.ListContactMessages(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []contact.Message{in}, list)

	list, err = conf.ListContactMessages(ctx, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}
