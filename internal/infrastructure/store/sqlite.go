package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sdslens/backend/internal/domain"
)

// schema holds one row per unique barcode. sds_url is nullable so "known
// absent" stays distinguishable from "not yet looked up".
const schema = `
CREATE TABLE IF NOT EXISTS products (
	barcode      TEXT PRIMARY KEY,
	product_name TEXT NOT NULL DEFAULT '',
	manufacturer TEXT NOT NULL DEFAULT '',
	size         TEXT NOT NULL DEFAULT '',
	sds_url      TEXT
);`

// SQLiteStore is the durable ProductRepository backed by a local SQLite
// database file (pure-Go driver, no cgo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open product store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize product store schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// GetByBarcode reads the record for a barcode. Returns
// domain.ErrProductNotFound when no row exists; any other failure is a
// storage error, fatal to the request that hit it.
func (s *SQLiteStore) GetByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT product_name, manufacturer, size, sds_url FROM products WHERE barcode = ?`, barcode)

	record := &domain.ProductRecord{Barcode: barcode}
	var sdsURL sql.NullString
	err := row.Scan(&record.Name, &record.Manufacturer, &record.Size, &sdsURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if sdsURL.Valid {
		record.SDSURL = &sdsURL.String
	}
	return record, nil
}

// Upsert writes the record keyed by barcode, replacing any existing row.
// Idempotent: the same record written twice leaves a single identical row.
func (s *SQLiteStore) Upsert(ctx context.Context, record *domain.ProductRecord) error {
	var sdsURL interface{}
	if record.SDSURL != nil {
		sdsURL = *record.SDSURL
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (barcode, product_name, manufacturer, size, sds_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(barcode) DO UPDATE SET
			product_name = excluded.product_name,
			manufacturer = excluded.manufacturer,
			size         = excluded.size,
			sds_url      = excluded.sds_url`,
		record.Barcode, record.Name, record.Manufacturer, record.Size, sdsURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
