// Package database provides PostgreSQL storage for normalized price
// observations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/models"
)

// DB wraps the PostgreSQL connection and provides price upsert operations.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a new database connection.
func New(dsn string, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{
		db:     db,
		logger: logger.With().Str("component", "database").Logger(),
	}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks if the database connection is alive.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// UpsertPrice stores one price observation, keyed by store, barcode and
// observation date so repeated fetches on the same day update in place.
func (d *DB) UpsertPrice(ctx context.Context, barcode, productName string, p models.NormalizedPrice) error {
	query := `
		INSERT INTO product_prices (store_id, store_name, barcode, product_name, price, currency, shipping_cost, total_price, in_stock, product_url, price_date, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (store_id, barcode, price_date)
		DO UPDATE SET
			product_name = EXCLUDED.product_name,
			price = EXCLUDED.price,
			shipping_cost = EXCLUDED.shipping_cost,
			total_price = EXCLUDED.total_price,
			in_stock = EXCLUDED.in_stock,
			product_url = EXCLUDED.product_url,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := d.db.ExecContext(ctx, query,
		p.StoreID,
		p.StoreName,
		barcode,
		productName,
		p.Price.String(),
		p.Currency,
		p.ShippingCost.String(),
		p.TotalPrice.String(),
		p.InStock,
		p.ProductURL,
		p.FetchedAt.Format("2006-01-02"),
		p.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting price: %w", err)
	}

	d.logger.Debug().
		Str("store", p.StoreID).
		Str("barcode", barcode).
		Str("price", p.Price.String()).
		Msg("upserted price record")

	return nil
}

// SaveResults persists every price of an aggregated result set. Records
// without a barcode are keyed by normalized product name instead so distinct
// products do not collide. Returns the number of stored observations.
func (d *DB) SaveResults(ctx context.Context, results []models.AggregatedResult) (int, error) {
	stored := 0
	for _, r := range results {
		key := r.Barcode
		if key == "" {
			key = "name:" + r.ProductName
		}
		for _, p := range r.Prices {
			if err := d.UpsertPrice(ctx, key, r.ProductName, p.NormalizedPrice); err != nil {
				d.logger.Error().
					Err(err).
					Str("store", p.StoreID).
					Str("product", r.ProductName).
					Msg("failed to store price")
				continue
			}
			stored++
		}
	}
	return stored, nil
}

// TotalPricesStored returns the total number of price records.
func (d *DB) TotalPricesStored(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM product_prices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting prices: %w", err)
	}
	return count, nil
}
