package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"car-price-estimator/models"
)

// PostgresStore keeps the reference listings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := NewPostgresStoreFromDB(db)
	if err := ps.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

// NewPostgresStoreFromDB wraps an already opened handle.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the listings table and its lookup indexes.
func (ps *PostgresStore) Migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id          SERIAL PRIMARY KEY,
			brand       TEXT     NOT NULL,
			model       TEXT     NOT NULL,
			body_type   TEXT     NOT NULL,
			fuel_type   TEXT     NOT NULL,
			seats       SMALLINT NOT NULL DEFAULT 0,
			color       TEXT     NOT NULL DEFAULT '',
			city        TEXT     NOT NULL DEFAULT '',
			model_year  SMALLINT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_listings_brand_body_fuel ON listings(brand, body_type, fuel_type);
		CREATE INDEX IF NOT EXISTS idx_listings_body_type       ON listings(body_type);
	`)
	return err
}

// Write replaces the table contents with listings, in batches, inside one
// transaction.
func (ps *PostgresStore) Write(ctx context.Context, listings []models.ListingRecord) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 500
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := insertBatch(ctx, tx, listings[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []models.ListingRecord) error {
	const cols = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			l.Brand, l.Model, string(l.BodyType), string(l.FuelType),
			l.Seats, l.Color, l.City, l.ModelYear)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (brand, model, body_type, fuel_type, seats, color, city, model_year)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// Load retrieves all stored listings in insertion order, which the option
// filter relies on for encounter ordering.
func (ps *PostgresStore) Load(ctx context.Context) ([]models.ListingRecord, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT brand, model, body_type, fuel_type, seats, color, city, model_year
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []models.ListingRecord
	for rows.Next() {
		var (
			l          models.ListingRecord
			body, fuel string
		)
		if err := rows.Scan(
			&l.Brand, &l.Model, &body, &fuel,
			&l.Seats, &l.Color, &l.City, &l.ModelYear,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.BodyType = models.BodyType(body)
		l.FuelType = models.FuelType(fuel)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
