// Package postgres provides a PostgreSQL-backed document store. Each tenant's
// roster is still one whole document (a jsonb row), preserving the
// read-modify-write contract of the file backend.
package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/kozaktomas/face-registry/internal/store"
)

// Backend stores one jsonb document per tenant.
type Backend struct {
	db *sql.DB
}

// New connects to PostgreSQL and ensures the documents table exists.
func New(databaseURL string) (*Backend, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS tenant_documents (
			tenant_id  TEXT PRIMARY KEY,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("could not create tenant_documents table: %w", err)
	}
	return nil
}

// ReadDocument returns the tenant's document, or an empty one if the tenant
// has never been written.
func (b *Backend) ReadDocument(tenantID string) (store.Document, error) {
	var raw []byte
	err := b.db.QueryRow(
		`SELECT document FROM tenant_documents WHERE tenant_id = $1`,
		tenantID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query document: %w", err)
	}

	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("could not parse document: %w", err)
	}
	if doc == nil {
		doc = store.Document{}
	}
	return doc, nil
}

// WriteDocument replaces the tenant's document in a single upsert; readers
// see either the old or the new row, never a mix.
func (b *Backend) WriteDocument(tenantID string, doc store.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not marshal document: %w", err)
	}

	_, err = b.db.Exec(`
		INSERT INTO tenant_documents (tenant_id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (tenant_id)
		DO UPDATE SET document = EXCLUDED.document, updated_at = now()
	`, tenantID, raw)
	if err != nil {
		return fmt.Errorf("could not upsert document: %w", err)
	}
	return nil
}
