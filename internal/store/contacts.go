package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/model"
)

// CreateContact stores a contact form message.
func CreateContact(ctx context.Context, d *db.DB, name, email, message string) (*model.ContactMessage, error) {
	c := &model.ContactMessage{
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	err := d.QueryRowContext(ctx,
		`INSERT INTO contacts (name, email, message, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		name, email, message, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}
	return c, nil
}

// ListContacts returns all contact messages, newest first.
func ListContacts(ctx context.Context, d *db.DB) ([]model.ContactMessage, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT id, name, email, message, created_at FROM contacts ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.ContactMessage
	for rows.Next() {
		var c model.ContactMessage
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// DeleteContact removes a contact message.
func DeleteContact(ctx context.Context, d *db.DB, id int64) error {
	result, err := d.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
