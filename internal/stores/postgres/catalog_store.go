package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/catalog"
)

// IsPopulated reports whether a sync has completed at least once.
func (c *Conf) IsPopulated(ctx context.Context) (bool, error) {
	var populated bool
	err := c.db.QueryRowContext(ctx, `SELECT populated FROM stripe.sync_state WHERE id = 1`).Scan(&populated)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read sync state: %w", err)
	}
	return populated, nil
}

// ListProductRows pages products by id and left-joins their active prices in
// ascending amount order.
func (c *Conf) ListProductRows(ctx context.Context, params catalog.ListParams) ([]catalog.Row, error) {
	query := `
		WITH paginated_products AS (
			SELECT id, name, description, active, metadata
			FROM stripe.products
			WHERE active = $1
			ORDER BY id
			LIMIT $2 OFFSET $3
		)
		SELECT p.id, p.name, p.description, p.active, p.metadata,
		       pr.id, pr.unit_amount, pr.currency, pr.active
		FROM paginated_products p
		LEFT JOIN stripe.prices pr ON pr.product = p.id AND pr.active = true
		ORDER BY p.id, pr.unit_amount
	`
	rows, err := c.db.QueryContext(ctx, query, params.Active, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query product rows: %w", err)
	}
	defer rows.Close()

	var out []catalog.Row
	for rows.Next() {
		var (
			p           catalog.Product
			description sql.NullString
			metadata    []byte
			priceID     sql.NullString
			unitAmount  sql.NullInt64
			currency    sql.NullString
			priceActive sql.NullBool
		)
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Active, &metadata,
			&priceID, &unitAmount, &currency, &priceActive); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		p.Description = nullableString(description)
		if p.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, err
		}

		row := catalog.Row{Product: p}
		if priceID.Valid {
			row.Price = &catalog.Price{
				ID:         priceID.String,
				UnitAmount: unitAmount.Int64,
				Currency:   currency.String,
				ProductID:  p.ID,
				Active:     priceActive.Bool,
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return out, nil
}

func (c *Conf) GetProduct(ctx context.Context, productID string) (catalog.Product, error) {
	query := `SELECT id, name, description, active, metadata FROM stripe.products WHERE id = $1`
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, apperr.NotFound("product", productID)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to get product %s: %w", productID, err)
	}
	return p, nil
}

func (c *Conf) GetPrice(ctx context.Context, priceID string) (catalog.Price, error) {
	query := `SELECT id, unit_amount, currency, product, active FROM stripe.prices WHERE id = $1`
	var pr catalog.Price
	err := c.db.QueryRowContext(ctx, query, priceID).Scan(&pr.ID, &pr.UnitAmount, &pr.Currency, &pr.ProductID, &pr.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Price{}, apperr.NotFound("price", priceID)
	}
	if err != nil {
		return catalog.Price{}, fmt.Errorf("failed to get price %s: %w", priceID, err)
	}
	return pr, nil
}

func (c *Conf) ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error) {
	query := `
		SELECT id, name, description, active, metadata
		FROM stripe.products
		WHERE active = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, params.Active, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return out, nil
}

func (c *Conf) ListPrices(ctx context.Context, params catalog.ListParams) ([]catalog.Price, error) {
	query := `
		SELECT id, unit_amount, currency, product, active
		FROM stripe.prices
		WHERE active = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, params.Active, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	var out []catalog.Price
	for rows.Next() {
		var pr catalog.Price
		if err := rows.Scan(&pr.ID, &pr.UnitAmount, &pr.Currency, &pr.ProductID, &pr.Active); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	return out, nil
}

// ReplaceCatalog swaps the mirror contents and sets the populated flag in a
// single transaction. Readers never observe a half-written catalog.
func (c *Conf) ReplaceCatalog(ctx context.Context, products []catalog.Product, prices []catalog.Price, syncedAt time.Time) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM stripe.prices`); err != nil {
			return fmt.Errorf("failed to clear prices: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM stripe.products`); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}

		insertProduct := `
			INSERT INTO stripe.products (id, name, description, active, metadata)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, p := range products {
			metadata, err := json.Marshal(nonNilMetadata(p.Metadata))
			if err != nil {
				return fmt.Errorf("failed to encode metadata of %s: %w", p.ID, err)
			}
			if _, err := tx.ExecContext(ctx, insertProduct, p.ID, p.Name, p.Description, p.Active, string(metadata)); err != nil {
				return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
			}
		}

		insertPrice := `
			INSERT INTO stripe.prices (id, product, unit_amount, currency, active)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, pr := range prices {
			if _, err := tx.ExecContext(ctx, insertPrice, pr.ID, pr.ProductID, pr.UnitAmount, pr.Currency, pr.Active); err != nil {
				return fmt.Errorf("failed to insert price %s: %w", pr.ID, err)
			}
		}

		markPopulated := `
			INSERT INTO stripe.sync_state (id, populated, synced_at)
			VALUES (1, true, $1)
			ON CONFLICT (id) DO UPDATE SET populated = true, synced_at = EXCLUDED.synced_at
		`
		if _, err := tx.ExecContext(ctx, markPopulated, syncedAt); err != nil {
			return fmt.Errorf("failed to mark catalog populated: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (catalog.Product, error) {
	var (
		p           catalog.Product
		description sql.NullString
		metadata    []byte
	)
	if err := r.Scan(&p.ID, &p.Name, &description, &p.Active, &metadata); err != nil {
		return catalog.Product{}, err
	}
	p.Description = nullableString(description)
	md, err := decodeMetadata(metadata)
	if err != nil {
		return catalog.Product{}, err
	}
	p.Metadata = md
	return p, nil
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	md := map[string]string{}
	if len(raw) == 0 {
		return md, nil
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("failed to decode product metadata: %w", err)
	}
	return md, nil
}

func nonNilMetadata(md map[string]string) map[string]string {
	if md == nil {
		return map[string]string{}
	}
	return md
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
