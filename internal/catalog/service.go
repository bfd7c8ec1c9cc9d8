package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront-service/internal/apperr"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// fallbackLimit caps each provider list call made when the mirror is empty.
const fallbackLimit = 100

// Store is the query surface of the local catalog mirror.
type Store interface {
	IsPopulated(ctx context.Context) (bool, error)
	ListProductRows(ctx context.Context, params ListParams) ([]Row, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetPrice(ctx context.Context, priceID string) (Price, error)
	ListProducts(ctx context.Context, params ListParams) ([]Product, error)
	ListPrices(ctx context.Context, params ListParams) ([]Price, error)
	ReplaceCatalog(ctx context.Context, products []Product, prices []Price, syncedAt time.Time) error
}

// Provider is the remote service of record for products and prices.
type Provider interface {
	ListProducts(ctx context.Context, filter ProviderFilter) ([]Product, error)
	ListPrices(ctx context.Context, filter ProviderFilter) ([]Price, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetPrice(ctx context.Context, priceID string) (Price, error)
}

type Service struct {
	store    Store
	provider Provider
	tracer   trace.Tracer
	now      func() time.Time
}

func NewService(store Store, provider Provider) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("catalog provider is nil")
	}
	return &Service{
		store:    store,
		provider: provider,
		tracer:   otel.Tracer("storefront-service/catalog"),
		now:      time.Now,
	}, nil
}

// ListProductsWithPrices returns a page of products joined to their active
// prices. Until the mirror has been populated by Sync the provider is queried
// directly instead.
func (s *Service) ListProductsWithPrices(ctx context.Context, params ListParams) ([]ProductWithPrice, error) {
	params = params.Normalize()
	ctx, span := s.tracer.Start(ctx, "catalog.ListProductsWithPrices",
		trace.WithAttributes(attribute.Bool("active", params.Active), attribute.Int("limit", params.Limit), attribute.Int("offset", params.Offset)))
	defer span.End()

	populated, err := s.store.IsPopulated(ctx)
	if err != nil {
		return nil, apperr.Persistence("check catalog mirror", err)
	}

	if !populated {
		span.SetAttributes(attribute.Bool("fallback", true))
		slog.Info("catalog mirror not populated, reading from provider", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)))
		return s.listFromProvider(ctx)
	}

	rows, err := s.store.ListProductRows(ctx, params)
	if err != nil {
		return nil, apperr.Persistence("list product rows", err)
	}
	return GroupRows(rows), nil
}

func (s *Service) listFromProvider(ctx context.Context) ([]ProductWithPrice, error) {
	active := true
	filter := ProviderFilter{Active: &active, Limit: fallbackLimit}

	products, err := s.provider.ListProducts(ctx, filter)
	if err != nil {
		return nil, wrapProvider("list products", err)
	}
	prices, err := s.provider.ListPrices(ctx, filter)
	if err != nil {
		return nil, wrapProvider("list prices", err)
	}
	return GroupRows(joinInMemory(products, prices)), nil
}

func (s *Service) GetProduct(ctx context.Context, productID string) (Product, error) {
	populated, err := s.store.IsPopulated(ctx)
	if err != nil {
		return Product{}, apperr.Persistence("check catalog mirror", err)
	}
	if !populated {
		p, err := s.provider.GetProduct(ctx, productID)
		if err != nil {
			return Product{}, wrapProvider("get product", err)
		}
		return p, nil
	}

	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, wrapStore("get product", err)
	}
	return p, nil
}

func (s *Service) GetPrice(ctx context.Context, priceID string) (Price, error) {
	populated, err := s.store.IsPopulated(ctx)
	if err != nil {
		return Price{}, apperr.Persistence("check catalog mirror", err)
	}
	if !populated {
		p, err := s.provider.GetPrice(ctx, priceID)
		if err != nil {
			return Price{}, wrapProvider("get price", err)
		}
		return p, nil
	}

	p, err := s.store.GetPrice(ctx, priceID)
	if err != nil {
		return Price{}, wrapStore("get price", err)
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, params ListParams) ([]Product, error) {
	products, err := s.store.ListProducts(ctx, params.Normalize())
	if err != nil {
		return nil, apperr.Persistence("list products", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (s *Service) ListPrices(ctx context.Context, params ListParams) ([]Price, error) {
	prices, err := s.store.ListPrices(ctx, params.Normalize())
	if err != nil {
		return nil, apperr.Persistence("list prices", err)
	}
	if prices == nil {
		prices = []Price{}
	}
	return prices, nil
}

// Sync replaces the mirror with the provider's full catalog and marks it
// populated. Prices that reference unknown products or carry a negative amount
// are skipped.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Sync")
	defer span.End()
	traceID := ctxmanage.GetTraceId(ctx)

	products, err := s.provider.ListProducts(ctx, ProviderFilter{})
	if err != nil {
		return SyncResult{}, wrapProvider("list products", err)
	}
	prices, err := s.provider.ListPrices(ctx, ProviderFilter{})
	if err != nil {
		return SyncResult{}, wrapProvider("list prices", err)
	}

	known := make(map[string]struct{}, len(products))
	for _, p := range products {
		known[p.ID] = struct{}{}
	}

	kept := make([]Price, 0, len(prices))
	skipped := 0
	for _, pr := range prices {
		if _, ok := known[pr.ProductID]; !ok || pr.UnitAmount < 0 {
			slog.Warn("skipping price during catalog sync", slog.String(logkey.TraceID, traceID),
				slog.String(logkey.PriceID, pr.ID), slog.String(logkey.ProductID, pr.ProductID), slog.Int64("UnitAmount", pr.UnitAmount))
			skipped++
			continue
		}
		kept = append(kept, pr)
	}

	syncedAt := s.now().UTC()
	if err := s.store.ReplaceCatalog(ctx, products, kept, syncedAt); err != nil {
		return SyncResult{}, apperr.Persistence("replace catalog", err)
	}

	res := SyncResult{Products: len(products), Prices: len(kept), SkippedPrices: skipped, SyncedAt: syncedAt}
	slog.Info("catalog synced", slog.String(logkey.TraceID, traceID),
		slog.Int("Products", res.Products), slog.Int("Prices", res.Prices), slog.Int("Skipped", res.SkippedPrices))
	return res, nil
}

func wrapProvider(op string, err error) error {
	if apperr.IsNotFound(err) {
		return err
	}
	var pe *apperr.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return apperr.Provider(op, err)
}

func wrapStore(op string, err error) error {
	if apperr.IsNotFound(err) {
		return err
	}
	return apperr.Persistence(op, err)
}
