package clientdata

import (
	"fmt"
	"time"
)

// RatePoint is one observed rate for a currency against the base, bucketed
// by day.
type RatePoint struct {
	Currency string
	Date     time.Time
	Rate     float64
}

// RecordRates stores one point per currency for today's date.
// Re-recording the same day replaces the previous value (one point per day).
func (r *Repository) RecordRates(rates map[string]float64) error {
	now := time.Now()
	dateUnix := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rate history transaction: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO rate_history (currency, date, rate) VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare rate history insert: %w", err)
	}
	defer stmt.Close()

	for currency, rate := range rates {
		if _, err := stmt.Exec(currency, dateUnix, rate); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record rate for %s: %w", currency, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rate history: %w", err)
	}

	return nil
}

// RecentRates returns up to limit most recent daily rate points for a
// currency, oldest first.
func (r *Repository) RecentRates(currency string, limit int) ([]RatePoint, error) {
	query := `
		SELECT currency, date, rate
		FROM rate_history
		WHERE currency = ?
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, currency, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate history for %s: %w", currency, err)
	}
	defer rows.Close()

	var points []RatePoint
	for rows.Next() {
		var p RatePoint
		var dateUnix int64
		if err := rows.Scan(&p.Currency, &dateUnix, &p.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate history row: %w", err)
		}
		p.Date = time.Unix(dateUnix, 0).UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate history rows: %w", err)
	}

	// Reverse into chronological order
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}

// PruneRateHistory removes rate points older than the retention window.
// Returns the number of rows deleted.
func (r *Repository) PruneRateHistory(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()

	result, err := r.db.Exec("DELETE FROM rate_history WHERE date < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune rate history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}

	return deleted, nil
}
