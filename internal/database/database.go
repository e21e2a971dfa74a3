// Package database stores processing history in PostgreSQL.
//
// Go Pattern: We use the `sqlx` package which extends Go's standard `database/sql`
// with convenient features like scanning rows into structs. You write raw SQL,
// which gives you full control over every query.
//
// Go's database/sql has built-in connection pooling. You create one *sqlx.DB
// at startup and share it across your entire application; it's safe for
// concurrent use by multiple goroutines.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver, the underscore import runs its init()

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/models"
)

// ErrNotFound is returned when a record doesn't exist.
var ErrNotFound = errors.New("record not found")

// DB wraps the sqlx database connection with our application-specific methods.
// Go Pattern: Embedding (*sqlx.DB) gives us all of sqlx's methods automatically,
// plus we can add our own.
type DB struct {
	*sqlx.DB
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	// sqlx.Connect both opens the connection and pings the database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// History writes are tiny and infrequent; a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// --- Correction history ---

// CreateCorrection inserts a history row and fills in its ID and timestamp.
func (db *DB) CreateCorrection(ctx context.Context, r *models.CorrectionRecord) error {
	query := `
		INSERT INTO corrections (request_id, original_name, size_bytes, page_count, provenance, status, failed_stage, error_kind, error_message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		r.RequestID, r.OriginalName, r.SizeBytes, r.PageCount, r.Provenance,
		r.Status, r.FailedStage, r.ErrorKind, r.ErrorMessage, r.DurationMS,
	).Scan(&r.ID, &r.CreatedAt)
}

// GetCorrection retrieves a single history row by ID.
func (db *DB) GetCorrection(ctx context.Context, id string) (*models.CorrectionRecord, error) {
	var r models.CorrectionRecord
	err := db.GetContext(ctx, &r, `SELECT * FROM corrections WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correction: %w", err)
	}
	return &r, nil
}

// ListCorrections returns the most recent history rows, newest first.
func (db *DB) ListCorrections(ctx context.Context, limit, offset int) ([]models.CorrectionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var records []models.CorrectionRecord
	err := db.SelectContext(ctx, &records,
		`SELECT * FROM corrections ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	return records, nil
}
