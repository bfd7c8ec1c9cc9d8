package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
)

func newTestService(t *testing.T, store *MockStore, provider *MockProvider) *Service {
	t.Helper()
	svc, err := NewService(store, provider)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsNilDependencies(t *testing.T) {
	_, err := NewService(nil, &MockProvider{})
	assert.Error(t, err)
	_, err = NewService(&MockStore{}, nil)
	assert.Error(t, err)
}

func TestListProductsWithPricesFromMirror(t *testing.T) {
	p1 := unitProduct("prod_1", "Unit 1", true)
	price := usdPrice("price_1", "prod_1", 699, true)

	var got ListParams
	store := &MockStore{
		Populated: true,
		ListProductRowsFunc: func(_ context.Context, params ListParams) ([]Row, error) {
			got = params
			return []Row{{Product: p1, Price: &price}}, nil
		},
	}
	provider := &MockProvider{}
	svc := newTestService(t, store, provider)

	res, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Unit 1", res[0].Name)
	require.Len(t, res[0].Prices, 1)
	assert.Equal(t, int64(699), res[0].Prices[0].UnitAmount)

	assert.Equal(t, ListParams{Active: true, Limit: 20, Offset: 0}, got)
	assert.Empty(t, provider.Filters, "provider must not be queried when the mirror is populated")
}

func TestListProductsWithPricesPopulatedButEmpty(t *testing.T) {
	store := &MockStore{Populated: true}
	provider := &MockProvider{Products: []Product{unitProduct("prod_1", "Unit 1", true)}}
	svc := newTestService(t, store, provider)

	res, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Empty(t, provider.Filters)
}

func TestListProductsWithPricesFallsBackToProvider(t *testing.T) {
	store := &MockStore{Populated: false}
	provider := &MockProvider{
		Products: []Product{unitProduct("prod_1", "Unit 1", true), unitProduct("prod_old", "Old", false)},
		Prices: []Price{
			usdPrice("price_1", "prod_1", 699, true),
			usdPrice("price_retired", "prod_1", 999, false),
		},
	}
	svc := newTestService(t, store, provider)

	res, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "prod_1", res[0].ID)
	require.Len(t, res[0].Prices, 1)
	assert.Equal(t, "price_1", res[0].Prices[0].ID)
	assert.Zero(t, store.rowCalls, "mirror rows must not be read before the mirror is populated")

	require.Len(t, provider.Filters, 2)
	for _, f := range provider.Filters {
		require.NotNil(t, f.Active)
		assert.True(t, *f.Active)
		assert.Equal(t, 100, f.Limit)
	}
}

func TestListProductsWithPricesNeverReturnsInactivePrices(t *testing.T) {
	p1 := unitProduct("prod_1", "Unit 1", true)
	live := usdPrice("price_live", "prod_1", 699, true)
	dead := usdPrice("price_dead", "prod_1", 199, false)
	store := &MockStore{Populated: true, Rows: []Row{{Product: p1, Price: &dead}, {Product: p1, Price: &live}}}
	svc := newTestService(t, store, &MockProvider{})

	res, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
	require.NoError(t, err)
	for _, p := range res {
		for _, pr := range p.Prices {
			assert.True(t, pr.Active, "price %s is inactive", pr.ID)
		}
	}
}

func TestListProductsWithPricesIsIdempotent(t *testing.T) {
	store := &MockStore{Populated: false}
	provider := &MockProvider{
		Products: []Product{unitProduct("prod_1", "Unit 1", true), unitProduct("prod_2", "Unit 2", true)},
		Prices:   []Price{usdPrice("price_2", "prod_2", 699, true), usdPrice("price_1", "prod_1", 699, true)},
	}
	svc := newTestService(t, store, provider)

	first, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
	require.NoError(t, err)
	second, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListProductsWithPricesErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("mirror check failure", func(t *testing.T) {
		store := &MockStore{IsPopulatedFunc: func(context.Context) (bool, error) { return false, boom }}
		svc := newTestService(t, store, &MockProvider{})
		_, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
		var pe *apperr.PersistenceError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("provider failure during fallback", func(t *testing.T) {
		svc := newTestService(t, &MockStore{}, &MockProvider{Err: boom})
		_, err := svc.ListProductsWithPrices(context.Background(), DefaultListParams())
		var pe *apperr.ProviderError
		assert.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, boom)
	})
}

func TestListParamsNormalize(t *testing.T) {
	assert.Equal(t, ListParams{Limit: 20}, ListParams{}.Normalize())
	assert.Equal(t, ListParams{Limit: 100}, ListParams{Limit: 1000}.Normalize())
	assert.Equal(t, ListParams{Active: true, Limit: 5}, ListParams{Active: true, Limit: 5, Offset: -3}.Normalize())
}

func TestGetPriceReadPath(t *testing.T) {
	mirrored := usdPrice("price_1", "prod_1", 699, true)
	remote := usdPrice("price_2", "prod_2", 899, true)

	t.Run("mirror populated reads the mirror", func(t *testing.T) {
		svc := newTestService(t, &MockStore{Populated: true, Prices: []Price{mirrored}}, &MockProvider{Prices: []Price{remote}})
		got, err := svc.GetPrice(context.Background(), "price_1")
		require.NoError(t, err)
		assert.Equal(t, mirrored, got)

		_, err = svc.GetPrice(context.Background(), "price_2")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("mirror empty reads the provider", func(t *testing.T) {
		svc := newTestService(t, &MockStore{Prices: []Price{mirrored}}, &MockProvider{Prices: []Price{remote}})
		got, err := svc.GetPrice(context.Background(), "price_2")
		require.NoError(t, err)
		assert.Equal(t, remote, got)
	})
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t, &MockStore{Populated: true}, &MockProvider{})
	_, err := svc.GetProduct(context.Background(), "prod_missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestListProductsAndPricesPassThrough(t *testing.T) {
	store := &MockStore{
		Populated: true,
		Products:  []Product{unitProduct("prod_1", "Unit 1", true), unitProduct("prod_2", "Unit 2", false)},
		Prices:    []Price{usdPrice("price_1", "prod_1", 699, true)},
	}
	svc := newTestService(t, store, &MockProvider{})

	products, err := svc.ListProducts(context.Background(), DefaultListParams())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "prod_1", products[0].ID)

	prices, err := svc.ListPrices(context.Background(), ListParams{Active: false})
	require.NoError(t, err)
	assert.NotNil(t, prices)
	assert.Empty(t, prices)
}

func TestSyncReplacesMirror(t *testing.T) {
	provider := &MockProvider{
		Products: []Product{unitProduct("prod_1", "Unit 1", true), unitProduct("prod_2", "Unit 2", false)},
		Prices: []Price{
			usdPrice("price_1", "prod_1", 699, true),
			usdPrice("price_2", "prod_2", 699, false),
			usdPrice("price_orphan", "prod_gone", 699, true),
			usdPrice("price_negative", "prod_1", -1, true),
		},
	}
	store := &MockStore{}
	svc := newTestService(t, store, provider)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	res, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Products: 2, Prices: 2, SkippedPrices: 2, SyncedAt: fixed}, res)

	assert.True(t, store.Populated)
	assert.Len(t, store.Products, 2)
	require.Len(t, store.Prices, 2)
	assert.Equal(t, "price_1", store.Prices[0].ID)
	assert.Equal(t, "price_2", store.Prices[1].ID)

	for _, f := range provider.Filters {
		assert.Nil(t, f.Active, "sync must mirror inactive records too")
		assert.Zero(t, f.Limit)
	}
}

func TestSyncStoreFailure(t *testing.T) {
	store := &MockStore{ReplaceCatalogFunc: func(context.Context, []Product, []Price, time.Time) error {
		return errors.New("tx aborted")
	}}
	svc := newTestService(t, store, &MockProvider{})
	_, err := svc.Sync(context.Background())
	var pe *apperr.PersistenceError
	assert.ErrorAs(t, err, &pe)
}
