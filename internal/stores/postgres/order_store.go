package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/apperr"
	"storefront-service/internal/orders"
)

const orderColumns = `id, email, stripe_session_id, stripe_payment_intent_id, product_id, product_name, amount, currency, status, created_at`

func (c *Conf) CreateOrder(ctx context.Context, o orders.Order) (orders.Order, error) {
	query := `
		INSERT INTO orders (id, email, stripe_session_id, stripe_payment_intent_id, product_id, product_name, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + orderColumns

	created, err := scanOrder(c.db.QueryRowContext(ctx, query,
		o.ID, o.Email, o.StripeSessionID, o.StripePaymentIntentID,
		o.ProductID, o.ProductName, o.Amount, o.Currency, string(o.Status), o.CreatedAt))
	if err != nil {
		return orders.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return created, nil
}

func (c *Conf) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	o, err := scanOrder(c.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Order{}, apperr.NotFound("order", id)
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return o, nil
}

func (c *Conf) GetOrderBySessionID(ctx context.Context, sessionID string) (orders.Order, error) {
	o, err := scanOrder(c.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Order{}, apperr.NotFound("order", sessionID)
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("failed to get order by session %s: %w", sessionID, err)
	}
	return o, nil
}

// UpdateOrderStatus moves a pending order to upd.Status. The payment intent is
// only set when provided and the email only when none was captured at
// checkout. Orders that are no longer pending are left untouched: the same
// status is returned as-is, anything else is a conflict.
func (c *Conf) UpdateOrderStatus(ctx context.Context, id string, upd orders.StatusUpdate) (orders.Order, error) {
	var updated orders.Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("order", id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}

		status := orders.Status(current)
		if status == upd.Status {
			updated, err = scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
			return err
		}
		if !status.CanTransitionTo(upd.Status) {
			return apperr.Conflict("order %s cannot move from %s to %s", id, status, upd.Status)
		}

		query := `
			UPDATE orders
			SET status = $2,
			    stripe_payment_intent_id = COALESCE(NULLIF($3, ''), stripe_payment_intent_id),
			    email = CASE WHEN email = '' THEN $4 ELSE email END
			WHERE id = $1
			RETURNING ` + orderColumns
		updated, err = scanOrder(tx.QueryRowContext(ctx, query, id, string(upd.Status), upd.PaymentIntentID, upd.Email))
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return orders.Order{}, err
	}
	return updated, nil
}

func (c *Conf) ListOrders(ctx context.Context, params orders.ListParams) ([]orders.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, string(params.Status), params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return out, nil
}

func scanOrder(r rowScanner) (orders.Order, error) {
	var (
		o               orders.Order
		sessionID       sql.NullString
		paymentIntentID sql.NullString
		status          string
	)
	err := r.Scan(&o.ID, &o.Email, &sessionID, &paymentIntentID, &o.ProductID, &o.ProductName,
		&o.Amount, &o.Currency, &status, &o.CreatedAt)
	if err != nil {
		return orders.Order{}, err
	}
	o.StripeSessionID = nullableString(sessionID)
	o.StripePaymentIntentID = nullableString(paymentIntentID)
	o.Status = orders.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}
