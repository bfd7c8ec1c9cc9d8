package postgres

import (
	"context"
	"fmt"

	"storefront-service/internal/contact"
)

func (c *Conf) CreateContactMessage(ctx context.Context, m contact.Message) (contact.Message, error) {
	query := `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, email, subject, message, created_at
	`
	var out contact.Message
	err := c.db.QueryRowContext(ctx, query, m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt).
		Scan(&out.ID, &out.Name, &out.Email, &out.Subject, &out.Message, &out.CreatedAt)
	if err != nil {
		return contact.Message{}, fmt.Errorf("failed to insert contact message: %w", err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

func (c *Conf) ListContactMessages(ctx context.Context, limit, offset int) ([]contact.Message, error) {
	query := `
		SELECT id, name, email, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	var out []contact.Message
	for rows.Next() {
		var m contact.Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact messages: %w", err)
	}
	return out, nil
}
