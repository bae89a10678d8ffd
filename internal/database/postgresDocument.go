package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
)

// PostgresDocument stores the table as one JSONB row of waitlist_documents.
type PostgresDocument struct {
	db *sql.DB
	id string
}

func NewPostgresDocument(db *sql.DB, id string) *PostgresDocument {
	return &PostgresDocument{db: db, id: id}
}

func (d *PostgresDocument) Fetch(ctx context.Context) (entity.WaitlistTable, error) {
	query := `SELECT body FROM waitlist_documents WHERE id = $1`

	var body []byte
	err := d.db.QueryRowContext(ctx, query, d.id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get waitlist document: %w", err)
	}

	return decodeTable(body)
}

func (d *PostgresDocument) Replace(ctx context.Context, table entity.WaitlistTable) error {
	body, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode waitlist: %w", err)
	}

	query := `
		INSERT INTO waitlist_documents (id, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`

	if _, err := d.db.ExecContext(ctx, query, d.id, string(body)); err != nil {
		return fmt.Errorf("failed to store waitlist document: %w", err)
	}
	return nil
}
