// Package analytics records usage events: page visits, calculations,
// errors and fallback-rate substitutions. Events are advisory - recording
// failures are logged and never propagate into request handling.
package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Schema creates the analytics tables.
const Schema = `
CREATE TABLE IF NOT EXISTS visits (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visits_created ON visits(created_at);

CREATE TABLE IF NOT EXISTS calculations (
	id TEXT PRIMARY KEY,
	pair TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	used_fallback INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculations_created ON calculations(created_at);

CREATE TABLE IF NOT EXISTS errors (
	id TEXT PRIMARY KEY,
	endpoint TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_errors_created ON errors(created_at);

CREATE TABLE IF NOT EXISTS fallback_events (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
`

// Retention bounds how long detailed event rows are kept.
const Retention = 30 * 24 * time.Hour

// Stats is the aggregate summary served by the stats endpoint.
type Stats struct {
	TotalVisits        int64            `json:"total_visits"`
	TotalCalculations  int64            `json:"total_calculations"`
	TotalErrors        int64            `json:"total_errors"`
	TotalFallbackRates int64            `json:"total_fallback_rates"`
	CalculationsByPair map[string]int64 `json:"calculations_by_pair"`
	AvgCalculationMs   float64          `json:"avg_calculation_ms"`
}

// Repository handles analytics database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new analytics repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "analytics").Logger(),
	}
}

// InsertVisit records a page visit.
func (r *Repository) InsertVisit(path string, at time.Time) error {
	_, err := r.db.Exec(
		"INSERT INTO visits (id, path, created_at) VALUES (?, ?, ?)",
		uuid.New().String(), path, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

// InsertCalculation records a completed position-size calculation.
func (r *Repository) InsertCalculation(pair string, duration time.Duration, usedFallback bool, at time.Time) error {
	fallback := 0
	if usedFallback {
		fallback = 1
	}
	_, err := r.db.Exec(
		"INSERT INTO calculations (id, pair, duration_ms, used_fallback, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), pair, duration.Milliseconds(), fallback, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}
	return nil
}

// InsertError records a request-level error.
func (r *Repository) InsertError(endpoint, message string, at time.Time) error {
	_, err := r.db.Exec(
		"INSERT INTO errors (id, endpoint, message, created_at) VALUES (?, ?, ?, ?)",
		uuid.New().String(), endpoint, message, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert error: %w", err)
	}
	return nil
}

// InsertFallbackEvent records a fallback-rate substitution at the cache
// boundary.
func (r *Repository) InsertFallbackEvent(at time.Time) error {
	_, err := r.db.Exec(
		"INSERT INTO fallback_events (id, created_at) VALUES (?, ?)",
		uuid.New().String(), at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fallback event: %w", err)
	}
	return nil
}

// GetStats aggregates totals across all event tables.
func (r *Repository) GetStats() (*Stats, error) {
	stats := &Stats{CalculationsByPair: make(map[string]int64)}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM visits", &stats.TotalVisits},
		{"SELECT COUNT(*) FROM calculations", &stats.TotalCalculations},
		{"SELECT COUNT(*) FROM errors", &stats.TotalErrors},
		{"SELECT COUNT(*) FROM fallback_events", &stats.TotalFallbackRates},
	}
	for _, c := range counts {
		if err := r.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count events: %w", err)
		}
	}

	rows, err := r.db.Query("SELECT pair, COUNT(*) FROM calculations GROUP BY pair")
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations by pair: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pair string
		var count int64
		if err := rows.Scan(&pair, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pair count: %w", err)
		}
		stats.CalculationsByPair[pair] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pair counts: %w", err)
	}

	var avg sql.NullFloat64
	if err := r.db.QueryRow("SELECT AVG(duration_ms) FROM calculations").Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to average calculation duration: %w", err)
	}
	if avg.Valid {
		stats.AvgCalculationMs = avg.Float64
	}

	return stats, nil
}

// DeleteOlderThan prunes event rows past the retention window. Returns the
// total number of rows removed.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"visits", "calculations", "errors", "fallback_events"} {
		result, err := r.db.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE created_at < ?", table), cutoff.Unix(),
		)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		n, _ := result.RowsAffected()
		total += n
	}
	return total, nil
}
