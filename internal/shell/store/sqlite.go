package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tbilisoft/carwise/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Listing Operations
// =============================================================================

// listingRow represents a listing row in the database.
type listingRow struct {
	ID           int64  `db:"id"`
	Kind         string `db:"kind"`
	DisplayName  string `db:"display_name"`
	Slug         string `db:"slug"`
	SlugIsManual bool   `db:"slug_is_manual"`
	Description  string `db:"description"`
	City         string `db:"city"`
	Phone        string `db:"phone"`
	Published    bool   `db:"published"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (s *SQLiteStore) CreateListing(ctx context.Context, listing *domain.Listing) error {
	return createListing(ctx, s.db, listing)
}

func (s *SQLiteStore) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	return getListing(ctx, s.db, id)
}

func (s *SQLiteStore) GetListingBySlug(ctx context.Context, kind domain.Kind, slug string) (*domain.Listing, error) {
	return getListingBySlug(ctx, s.db, kind, slug)
}

func (s *SQLiteStore) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	return updateListing(ctx, s.db, listing)
}

func (s *SQLiteStore) DeleteListing(ctx context.Context, id int64) error {
	return deleteListing(ctx, s.db, id)
}

func (s *SQLiteStore) ListListings(ctx context.Context, kind domain.Kind, opts ListOptions) ([]domain.Listing, error) {
	return listListings(ctx, s.db, kind, opts)
}

func (s *SQLiteStore) ListPublishedListings(ctx context.Context) ([]domain.Listing, error) {
	return listPublishedListings(ctx, s.db)
}

func (s *SQLiteStore) SlugExists(ctx context.Context, kind domain.Kind, slug string, excludeID int64) (bool, error) {
	return slugExists(ctx, s.db, kind, slug, excludeID)
}

func (s *SQLiteStore) UpdateListingSlug(ctx context.Context, id int64, slug string, manual bool) error {
	return updateListingSlug(ctx, s.db, id, slug, manual)
}

func (s *SQLiteStore) UpsertFuelPrice(ctx context.Context, price *domain.FuelPrice) error {
	return upsertFuelPrice(ctx, s.db, price)
}

func (s *SQLiteStore) ListFuelPrices(ctx context.Context) ([]domain.FuelPrice, error) {
	return listFuelPrices(ctx, s.db)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateListing(ctx context.Context, listing *domain.Listing) error {
	return createListing(ctx, s.tx, listing)
}

func (s *txSQLiteStore) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	return getListing(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetListingBySlug(ctx context.Context, kind domain.Kind, slug string) (*domain.Listing, error) {
	return getListingBySlug(ctx, s.tx, kind, slug)
}

func (s *txSQLiteStore) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	return updateListing(ctx, s.tx, listing)
}

func (s *txSQLiteStore) DeleteListing(ctx context.Context, id int64) error {
	return deleteListing(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListListings(ctx context.Context, kind domain.Kind, opts ListOptions) ([]domain.Listing, error) {
	return listListings(ctx, s.tx, kind, opts)
}

func (s *txSQLiteStore) ListPublishedListings(ctx context.Context) ([]domain.Listing, error) {
	return listPublishedListings(ctx, s.tx)
}

func (s *txSQLiteStore) SlugExists(ctx context.Context, kind domain.Kind, slug string, excludeID int64) (bool, error) {
	return slugExists(ctx, s.tx, kind, slug, excludeID)
}

func (s *txSQLiteStore) UpdateListingSlug(ctx context.Context, id int64, slug string, manual bool) error {
	return updateListingSlug(ctx, s.tx, id, slug, manual)
}

func (s *txSQLiteStore) UpsertFuelPrice(ctx context.Context, price *domain.FuelPrice) error {
	return upsertFuelPrice(ctx, s.tx, price)
}

func (s *txSQLiteStore) ListFuelPrices(ctx context.Context) ([]domain.FuelPrice, error) {
	return listFuelPrices(ctx, s.tx)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction - just run the function.
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	return nil
}

// =============================================================================
// Listing Helpers
// =============================================================================

func createListing(ctx context.Context, exec executor, listing *domain.Listing) error {
	query := `
		INSERT INTO listings (
			kind, display_name, slug, slug_is_manual, description,
			city, phone, published, created_at, updated_at
		) VALUES (
			:kind, :display_name, :slug, :slug_is_manual, :description,
			:city, :phone, :published, :created_at, :updated_at
		)`

	row := map[string]any{
		"kind":           string(listing.Kind),
		"display_name":   listing.DisplayName,
		"slug":           listing.Slug,
		"slug_is_manual": listing.SlugIsManual,
		"description":    listing.Description,
		"city":           listing.City,
		"phone":          listing.Phone,
		"published":      listing.Published,
		"created_at":     listing.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":     listing.UpdatedAt.UTC().Format(time.RFC3339),
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if isSlugConstraint(err) {
			return NewStoreError("CreateListing", "listing", listing.Slug, "slug already taken", ErrDuplicateSlug)
		}
		return NewStoreError("CreateListing", "listing", "", err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateListing", "listing", "", "failed to read inserted id", err)
	}
	listing.ID = id

	return nil
}

func getListing(ctx context.Context, exec executor, id int64) (*domain.Listing, error) {
	query := `SELECT * FROM listings WHERE id = ?`

	var row listingRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetListing", "listing", formatID(id), "listing not found", ErrNotFound)
		}
		return nil, NewStoreError("GetListing", "listing", formatID(id), err.Error(), err)
	}

	return rowToListing(&row)
}

func getListingBySlug(ctx context.Context, exec executor, kind domain.Kind, slug string) (*domain.Listing, error) {
	query := `SELECT * FROM listings WHERE kind = ? AND slug = ?`

	var row listingRow
	err := exec.GetContext(ctx, &row, query, string(kind), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetListingBySlug", "listing", slug, "listing not found", ErrNotFound)
		}
		return nil, NewStoreError("GetListingBySlug", "listing", slug, err.Error(), err)
	}

	return rowToListing(&row)
}

func updateListing(ctx context.Context, exec executor, listing *domain.Listing) error {
	// The slug and the manual flag are deliberately excluded: all slug
	// writes go through UpdateListingSlug.
	query := `
		UPDATE listings SET
			display_name = :display_name,
			description = :description,
			city = :city,
			phone = :phone,
			published = :published,
			updated_at = :updated_at
		WHERE id = :id`

	row := map[string]any{
		"id":           listing.ID,
		"display_name": listing.DisplayName,
		"description":  listing.Description,
		"city":         listing.City,
		"phone":        listing.Phone,
		"published":    listing.Published,
		"updated_at":   listing.UpdatedAt.UTC().Format(time.RFC3339),
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		return NewStoreError("UpdateListing", "listing", formatID(listing.ID), err.Error(), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return NewStoreError("UpdateListing", "listing", formatID(listing.ID), "listing not found", ErrNotFound)
	}

	return nil
}

func deleteListing(ctx context.Context, exec executor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteListing", "listing", formatID(id), err.Error(), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return NewStoreError("DeleteListing", "listing", formatID(id), "listing not found", ErrNotFound)
	}
	return nil
}

func listListings(ctx context.Context, exec executor, kind domain.Kind, opts ListOptions) ([]domain.Listing, error) {
	opts = opts.Normalize()

	var rows []listingRow
	var err error
	if kind == "" {
		query := `SELECT * FROM listings ORDER BY id LIMIT ? OFFSET ?`
		err = exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	} else {
		query := `SELECT * FROM listings WHERE kind = ? ORDER BY id LIMIT ? OFFSET ?`
		err = exec.SelectContext(ctx, &rows, query, string(kind), opts.Limit, opts.Offset)
	}
	if err != nil {
		return nil, NewStoreError("ListListings", "listing", "", err.Error(), err)
	}

	return rowsToListings(rows)
}

func listPublishedListings(ctx context.Context, exec executor) ([]domain.Listing, error) {
	query := `SELECT * FROM listings WHERE published = 1 AND slug != '' ORDER BY kind, slug`

	var rows []listingRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("ListPublishedListings", "listing", "", err.Error(), err)
	}

	return rowsToListings(rows)
}

func slugExists(ctx context.Context, exec executor, kind domain.Kind, slug string, excludeID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM listings WHERE kind = ? AND slug = ? AND id != ?`

	var count int
	if err := exec.GetContext(ctx, &count, query, string(kind), slug, excludeID); err != nil {
		return false, NewStoreError("SlugExists", "listing", slug, err.Error(), err)
	}

	return count > 0, nil
}

func updateListingSlug(ctx context.Context, exec executor, id int64, slug string, manual bool) error {
	query := `UPDATE listings SET slug = ?, slug_is_manual = ?, updated_at = ? WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, slug, manual, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		if isSlugConstraint(err) {
			return NewStoreError("UpdateListingSlug", "listing", slug, "slug already taken", ErrDuplicateSlug)
		}
		return NewStoreError("UpdateListingSlug", "listing", formatID(id), err.Error(), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return NewStoreError("UpdateListingSlug", "listing", formatID(id), "listing not found", ErrNotFound)
	}

	return nil
}

// =============================================================================
// Fuel Price Helpers
// =============================================================================

// fuelPriceRow represents a fuel price row in the database.
type fuelPriceRow struct {
	ID         int64  `db:"id"`
	Provider   string `db:"provider"`
	Fuel       string `db:"fuel"`
	PriceTetri int64  `db:"price_tetri"`
	UpdatedAt  string `db:"updated_at"`
}

func upsertFuelPrice(ctx context.Context, exec executor, price *domain.FuelPrice) error {
	query := `
		INSERT INTO fuel_prices (provider, fuel, price_tetri, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (provider, fuel) DO UPDATE SET
			price_tetri = excluded.price_tetri,
			updated_at = excluded.updated_at`

	_, err := exec.ExecContext(ctx, query,
		price.Provider, string(price.Fuel), price.PriceTetri,
		price.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return NewStoreError("UpsertFuelPrice", "fuel_price", price.Provider, err.Error(), err)
	}

	return nil
}

func listFuelPrices(ctx context.Context, exec executor) ([]domain.FuelPrice, error) {
	query := `SELECT * FROM fuel_prices ORDER BY provider, fuel`

	var rows []fuelPriceRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("ListFuelPrices", "fuel_price", "", err.Error(), err)
	}

	prices := make([]domain.FuelPrice, 0, len(rows))
	for _, row := range rows {
		updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
		if err != nil {
			return nil, NewStoreError("ListFuelPrices", "fuel_price", row.Provider, "invalid timestamp", err)
		}
		prices = append(prices, domain.FuelPrice{
			ID:         row.ID,
			Provider:   row.Provider,
			Fuel:       domain.FuelType(row.Fuel),
			PriceTetri: row.PriceTetri,
			UpdatedAt:  updatedAt,
		})
	}

	return prices, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func rowToListing(row *listingRow) (*domain.Listing, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToListing", "listing", formatID(row.ID), "invalid created_at", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToListing", "listing", formatID(row.ID), "invalid updated_at", err)
	}

	return &domain.Listing{
		ID:           row.ID,
		Kind:         domain.Kind(row.Kind),
		DisplayName:  row.DisplayName,
		Slug:         row.Slug,
		SlugIsManual: row.SlugIsManual,
		Description:  row.Description,
		City:         row.City,
		Phone:        row.Phone,
		Published:    row.Published,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func rowsToListings(rows []listingRow) ([]domain.Listing, error) {
	listings := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		l, err := rowToListing(&rows[i])
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, nil
}

// isSlugConstraint checks if an error is the (kind, slug) UNIQUE violation.
func isSlugConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "listings.slug")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
