// Package stripecli adapts the Stripe API to the catalog and order services.
package stripecli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"storefront-service/internal/apperr"
	"storefront-service/internal/catalog"
	"storefront-service/internal/orders"
)

// pageCap is the largest page Stripe returns for list calls.
const pageCap = 100

type Config struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	// APIURL overrides https://api.stripe.com.
	APIURL            string
	MaxNetworkRetries int64
}

type Client struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
}

func New(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is empty")
	}

	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.APIURL, "/"))
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	return &Client{
		api:            client.New(cfg.SecretKey, backends),
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
	}, nil
}

func (c *Client) PublishableKey() (string, error) {
	if c.publishableKey == "" {
		return "", fmt.Errorf("stripe publishable key is not configured")
	}
	return c.publishableKey, nil
}

// ListProducts pages through products. A zero filter limit reads everything.
func (c *Client) ListProducts(ctx context.Context, filter catalog.ProviderFilter) ([]catalog.Product, error) {
	params := &stripe.ProductListParams{Active: filter.Active}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize(filter.Limit))

	out := []catalog.Product{}
	it := c.api.Products.List(params)
	for it.Next() {
		out = append(out, toProduct(it.Product()))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, classify("list products", "product", "", err)
	}
	return out, nil
}

func (c *Client) ListPrices(ctx context.Context, filter catalog.ProviderFilter) ([]catalog.Price, error) {
	params := &stripe.PriceListParams{Active: filter.Active}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize(filter.Limit))

	out := []catalog.Price{}
	it := c.api.Prices.List(params)
	for it.Next() {
		out = append(out, toPrice(it.Price()))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, classify("list prices", "price", "", err)
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (catalog.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	p, err := c.api.Products.Get(productID, params)
	if err != nil {
		return catalog.Product{}, classify("get product", "product", productID, err)
	}
	return toProduct(p), nil
}

func (c *Client) GetPrice(ctx context.Context, priceID string) (catalog.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	p, err := c.api.Prices.Get(priceID, params)
	if err != nil {
		return catalog.Price{}, classify("get price", "price", priceID, err)
	}
	return toPrice(p), nil
}

// CreateCheckoutSession opens a one-time payment session.
func (c *Client) CreateCheckoutSession(ctx context.Context, req orders.SessionRequest) (orders.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		// resource_missing on session creation stays a provider error
		return orders.Session{}, classify("create checkout session", "price", "", err)
	}
	return orders.Session{ID: s.ID, URL: s.URL, CustomerEmail: sessionEmail(s)}, nil
}

// FindProductByName returns the first product whose name matches exactly.
func (c *Client) FindProductByName(ctx context.Context, name string) (catalog.Product, bool, error) {
	params := &stripe.ProductSearchParams{}
	params.Context = ctx
	params.Query = fmt.Sprintf("name:'%s'", strings.ReplaceAll(name, "'", `\'`))

	it := c.api.Products.Search(params)
	for it.Next() {
		p := it.Product()
		if p.Name == name {
			return toProduct(p), true, nil
		}
	}
	if err := it.Err(); err != nil {
		return catalog.Product{}, false, classify("search products", "product", name, err)
	}
	return catalog.Product{}, false, nil
}

// ListProductPrices returns the active prices of one product.
func (c *Client) ListProductPrices(ctx context.Context, productID string) ([]catalog.Price, error) {
	params := &stripe.PriceListParams{Product: stripe.String(productID), Active: stripe.Bool(true)}
	params.Context = ctx

	out := []catalog.Price{}
	it := c.api.Prices.List(params)
	for it.Next() {
		out = append(out, toPrice(it.Price()))
	}
	if err := it.Err(); err != nil {
		return nil, classify("list product prices", "product", productID, err)
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, np catalog.NewProduct) (catalog.Product, error) {
	params := &stripe.ProductParams{Name: stripe.String(np.Name)}
	if np.Description != "" {
		params.Description = stripe.String(np.Description)
	}
	params.Context = ctx
	for k, v := range np.Metadata {
		params.AddMetadata(k, v)
	}

	p, err := c.api.Products.New(params)
	if err != nil {
		return catalog.Product{}, classify("create product", "product", np.Name, err)
	}
	return toProduct(p), nil
}

func (c *Client) CreatePrice(ctx context.Context, np catalog.NewPrice) (catalog.Price, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(np.ProductID),
		UnitAmount: stripe.Int64(np.UnitAmount),
		Currency:   stripe.String(np.Currency),
	}
	params.Context = ctx

	p, err := c.api.Prices.New(params)
	if err != nil {
		return catalog.Price{}, classify("create price", "product", np.ProductID, err)
	}
	return toPrice(p), nil
}

func pageSize(limit int) int64 {
	if limit <= 0 || limit > pageCap {
		return pageCap
	}
	return int64(limit)
}

// classify maps a missing resource to NotFoundError and everything else to
// ProviderError.
func classify(op, resource, id string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && id != "" &&
		(se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing) {
		return apperr.NotFound(resource, id)
	}
	return apperr.Provider(op, err)
}

func toProduct(p *stripe.Product) catalog.Product {
	out := catalog.Product{
		ID:       p.ID,
		Name:     p.Name,
		Active:   p.Active,
		Metadata: p.Metadata,
	}
	if p.Description != "" {
		d := p.Description
		out.Description = &d
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func toPrice(p *stripe.Price) catalog.Price {
	out := catalog.Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   strings.ToLower(string(p.Currency)),
		Active:     p.Active,
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
	}
	return out
}

func sessionEmail(s *stripe.CheckoutSession) string {
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}
