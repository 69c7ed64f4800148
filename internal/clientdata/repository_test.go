package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE rate_snapshots (base TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE rate_history (currency TEXT NOT NULL, date INTEGER NOT NULL, rate REAL NOT NULL, PRIMARY KEY (currency, date));

CREATE INDEX idx_rate_snapshots_expires ON rate_snapshots(expires_at);
CREATE INDEX idx_rate_history_date ON rate_history(date);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	data := map[string]interface{}{
		"rates":  map[string]float64{"EUR": 0.92},
		"origin": "api",
	}

	err := repo.Store("rate_snapshots", "USD", data, 12*time.Hour)
	require.NoError(t, err)

	var storedData string
	var expiresAt int64
	err = db.QueryRow("SELECT data, expires_at FROM rate_snapshots WHERE base = ?", "USD").Scan(&storedData, &expiresAt)
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal([]byte(storedData), &parsed)
	require.NoError(t, err)
	assert.Equal(t, "api", parsed["origin"])

	// Expiry roughly 12 hours out
	expectedExpiry := time.Now().Add(12 * time.Hour).Unix()
	assert.InDelta(t, expectedExpiry, expiresAt, 5)
}

func TestStore_InvalidTable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	err := repo.Store("rate_snapshots; DROP TABLE rate_snapshots", "USD", "x", time.Hour)
	assert.Error(t, err)
}

func TestGetIfFresh(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	// Missing key
	data, err := repo.GetIfFresh("rate_snapshots", "USD")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Fresh data
	require.NoError(t, repo.Store("rate_snapshots", "USD", map[string]float64{"EUR": 0.92}, time.Hour))
	data, err = repo.GetIfFresh("rate_snapshots", "USD")
	require.NoError(t, err)
	require.NotNil(t, data)

	var parsed map[string]float64
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, 0.92, parsed["EUR"])

	// Expired data is invisible to GetIfFresh but visible to Get
	require.NoError(t, repo.Store("rate_snapshots", "USD", map[string]float64{"EUR": 0.93}, -time.Minute))

	data, err = repo.GetIfFresh("rate_snapshots", "USD")
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = repo.Get("rate_snapshots", "USD")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Store("rate_snapshots", "USD", "fresh", time.Hour))

	// Insert an expired row directly
	_, err := db.Exec(
		"INSERT INTO rate_snapshots (base, data, expires_at) VALUES (?, ?, ?)",
		"EUR", `"stale"`, time.Now().Add(-time.Hour).Unix(),
	)
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired("rate_snapshots")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Fresh row survives
	data, err := repo.Get("rate_snapshots", "USD")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	_, err := db.Exec(
		"INSERT INTO rate_snapshots (base, data, expires_at) VALUES (?, ?, ?)",
		"USD", `"stale"`, time.Now().Add(-time.Hour).Unix(),
	)
	require.NoError(t, err)

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["rate_snapshots"])
}

func TestRateHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.RecordRates(map[string]float64{"EUR": 0.92, "GBP": 0.79}))

	points, err := repo.RecentRates("EUR", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.92, points[0].Rate)

	// Same-day re-record replaces rather than appends
	require.NoError(t, repo.RecordRates(map[string]float64{"EUR": 0.93}))
	points, err = repo.RecentRates("EUR", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.93, points[0].Rate)
}

func TestRecentRates_ChronologicalOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := db.Exec(
			"INSERT INTO rate_history (currency, date, rate) VALUES (?, ?, ?)",
			"EUR", base.AddDate(0, 0, i).Unix(), 0.90+float64(i)*0.01,
		)
		require.NoError(t, err)
	}

	points, err := repo.RecentRates("EUR", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Most recent two, oldest first
	assert.Equal(t, 0.91, points[0].Rate)
	assert.Equal(t, 0.92, points[1].Rate)
}

func TestPruneRateHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	old := time.Now().Add(-100 * 24 * time.Hour).Unix()
	_, err := db.Exec("INSERT INTO rate_history (currency, date, rate) VALUES (?, ?, ?)", "EUR", old, 0.9)
	require.NoError(t, err)
	require.NoError(t, repo.RecordRates(map[string]float64{"EUR": 0.92}))

	deleted, err := repo.PruneRateHistory(RateHistoryRetention)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
