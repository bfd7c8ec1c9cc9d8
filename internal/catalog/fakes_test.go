package catalog

import (
	"context"
	"time"

	"storefront-service/internal/apperr"
)

// MockStore implements Store for testing.
type MockStore struct {
	Populated bool
	Rows      []Row
	Products  []Product
	Prices    []Price

	IsPopulatedFunc     func(ctx context.Context) (bool, error)
	ListProductRowsFunc func(ctx context.Context, params ListParams) ([]Row, error)
	ReplaceCatalogFunc  func(ctx context.Context, products []Product, prices []Price, syncedAt time.Time) error

	rowCalls int
}

func (m *MockStore) IsPopulated(ctx context.Context) (bool, error) {
	if m.IsPopulatedFunc != nil {
		return m.IsPopulatedFunc(ctx)
	}
	return m.Populated, nil
}

func (m *MockStore) ListProductRows(ctx context.Context, params ListParams) ([]Row, error) {
	m.rowCalls++
	if m.ListProductRowsFunc != nil {
		return m.ListProductRowsFunc(ctx, params)
	}
	return m.Rows, nil
}

func (m *MockStore) GetProduct(_ context.Context, productID string) (Product, error) {
	for _, p := range m.Products {
		if p.ID == productID {
			return p, nil
		}
	}
	return Product{}, apperr.NotFound("product", productID)
}

func (m *MockStore) GetPrice(_ context.Context, priceID string) (Price, error) {
	for _, p := range m.Prices {
		if p.ID == priceID {
			return p, nil
		}
	}
	return Price{}, apperr.NotFound("price", priceID)
}

func (m *MockStore) ListProducts(_ context.Context, params ListParams) ([]Product, error) {
	var out []Product
	for _, p := range m.Products {
		if p.Active == params.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockStore) ListPrices(_ context.Context, params ListParams) ([]Price, error) {
	var out []Price
	for _, p := range m.Prices {
		if p.Active == params.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockStore) ReplaceCatalog(ctx context.Context, products []Product, prices []Price, syncedAt time.Time) error {
	if m.ReplaceCatalogFunc != nil {
		return m.ReplaceCatalogFunc(ctx, products, prices, syncedAt)
	}
	m.Products, m.Prices, m.Populated = products, prices, true
	return nil
}

// MockProvider implements Provider for testing.
type MockProvider struct {
	Products []Product
	Prices   []Price
	Err      error

	Filters []ProviderFilter
}

func (m *MockProvider) ListProducts(_ context.Context, filter ProviderFilter) ([]Product, error) {
	m.Filters = append(m.Filters, filter)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []Product
	for _, p := range m.Products {
		if filter.Active == nil || p.Active == *filter.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProvider) ListPrices(_ context.Context, filter ProviderFilter) ([]Price, error) {
	m.Filters = append(m.Filters, filter)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []Price
	for _, p := range m.Prices {
		if filter.Active == nil || p.Active == *filter.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProvider) GetProduct(_ context.Context, productID string) (Product, error) {
	if m.Err != nil {
		return Product{}, m.Err
	}
	for _, p := range m.Products {
		if p.ID == productID {
			return p, nil
		}
	}
	return Product{}, apperr.NotFound("product", productID)
}

func (m *MockProvider) GetPrice(_ context.Context, priceID string) (Price, error) {
	if m.Err != nil {
		return Price{}, m.Err
	}
	for _, p := range m.Prices {
		if p.ID == priceID {
			return p, nil
		}
	}
	return Price{}, apperr.NotFound("price", priceID)
}

func strPtr(s string) *string { return &s }

func unitProduct(id, name string, active bool) Product {
	return Product{ID: id, Name: name, Description: strPtr(name + " pack"), Active: active, Metadata: map[string]string{MetaAvailable: "true"}}
}

func usdPrice(id, productID string, amount int64, active bool) Price {
	return Price{ID: id, UnitAmount: amount, Currency: "usd", ProductID: productID, Active: active}
}
