package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"hmo-finder/models"
)

const (
	archiveBatchSize = 50
	archiveColumns   = 11
)

// PostgresArchive keeps every collected listing in PostgreSQL, keyed by the
// listing id. It outlives the cache: clearing the cache leaves it intact.
type PostgresArchive struct {
	db *sql.DB
}

// NewPostgresArchive opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresArchive.
func NewPostgresArchive(ctx context.Context, dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping interrupted: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pa := newPostgresArchive(db)
	if err := pa.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pa, nil
}

func newPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (pa *PostgresArchive) migrate(ctx context.Context) error {
	_, err := pa.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS hmo_listings (
			id            UUID         PRIMARY KEY,
			fingerprint   CHAR(64)     NOT NULL,
			address       TEXT         NOT NULL,
			postcode      TEXT         NOT NULL DEFAULT '',
			price         INTEGER      NOT NULL,
			bedrooms      SMALLINT     NOT NULL,
			city          TEXT         NOT NULL,
			within_budget BOOLEAN      NOT NULL DEFAULT TRUE,
			image_url     TEXT         NOT NULL DEFAULT '',
			source_url    TEXT         NOT NULL DEFAULT '',
			collected_at  TIMESTAMPTZ  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_hmo_listings_city  ON hmo_listings(LOWER(city));
		CREATE INDEX IF NOT EXISTS idx_hmo_listings_price ON hmo_listings(price);
	`)
	return err
}

// Archive batch-upserts listings. Synthetic listings are skipped; they are
// never stored as if they had been collected.
func (pa *PostgresArchive) Archive(ctx context.Context, fingerprint string, listings []models.NormalizedListing) error {
	collected := make([]models.NormalizedListing, 0, len(listings))
	for _, l := range listings {
		if !l.Synthetic {
			collected = append(collected, l)
		}
	}
	if len(collected) == 0 {
		return nil
	}

	for i := 0; i < len(collected); i += archiveBatchSize {
		end := i + archiveBatchSize
		if end > len(collected) {
			end = len(collected)
		}
		if err := pa.upsertBatch(ctx, fingerprint, collected[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pa *PostgresArchive) upsertBatch(ctx context.Context, fingerprint string, batch []models.NormalizedListing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*archiveColumns)

	for idx, l := range batch {
		base := idx * archiveColumns
		placeholders := make([]string, archiveColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.ID, fingerprint, l.Address, l.Postcode, l.Price, l.Bedrooms,
			l.City, l.WithinBudget, l.ImageURL, l.SourceURL, l.CollectedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO hmo_listings (id, fingerprint, address, postcode, price, bedrooms, city, within_budget, image_url, source_url, collected_at)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			fingerprint   = EXCLUDED.fingerprint,
			price         = EXCLUDED.price,
			within_budget = EXCLUDED.within_budget,
			image_url     = EXCLUDED.image_url,
			source_url    = EXCLUDED.source_url,
			collected_at  = EXCLUDED.collected_at
	`, strings.Join(valueStrings, ","))

	if _, err := pa.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert %d listings: %w", len(batch), err)
	}
	return nil
}

// FetchByCity returns archived listings for city, newest first. An empty city
// returns everything.
func (pa *PostgresArchive) FetchByCity(ctx context.Context, city string) ([]models.NormalizedListing, error) {
	rows, err := pa.db.QueryContext(ctx, `
		SELECT id, address, postcode, price, bedrooms, city, within_budget, image_url, source_url, collected_at
		FROM hmo_listings
		WHERE $1 = '' OR LOWER(city) = LOWER($1)
		ORDER BY collected_at DESC, id
	`, strings.TrimSpace(city))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch by city: %w", err)
	}
	defer rows.Close()

	var listings []models.NormalizedListing
	for rows.Next() {
		var l models.NormalizedListing
		if err := rows.Scan(
			&l.ID, &l.Address, &l.Postcode, &l.Price, &l.Bedrooms,
			&l.City, &l.WithinBudget, &l.ImageURL, &l.SourceURL, &l.CollectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (pa *PostgresArchive) Close() error {
	return pa.db.Close()
}
