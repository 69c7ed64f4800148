package rates

import (
	"encoding/json"
	"sync"

	"github.com/aristath/fxcalc/internal/clientdata"
	"github.com/aristath/fxcalc/internal/domain"
	"github.com/rs/zerolog"
)

// SnapshotStore holds the single shared rate snapshot slot.
// Snapshots are replaced wholesale, never merged; last writer wins.
// Staleness, not corruption, is the only race risk, and a stale entry is
// functionally equivalent to a cache miss.
type SnapshotStore interface {
	// Get returns the current snapshot, if any. May return an expired
	// snapshot - expiry is the caller's check.
	Get() (*domain.RateSnapshot, bool)
	// Put replaces the current snapshot.
	Put(snapshot *domain.RateSnapshot)
}

// MemoryStore is the in-process snapshot slot.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *domain.RateSnapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the current snapshot, if any.
func (s *MemoryStore) Get() (*domain.RateSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	return s.snapshot, true
}

// Put replaces the current snapshot.
func (s *MemoryStore) Put(snapshot *domain.RateSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}

// PersistentStore is a write-through snapshot store: memory first, with the
// clientdata repository behind it so snapshots survive restarts.
type PersistentStore struct {
	memory *MemoryStore
	repo   *clientdata.Repository
	log    zerolog.Logger
}

// NewPersistentStore creates a snapshot store backed by the client data
// repository. Repository failures degrade to memory-only behavior.
func NewPersistentStore(repo *clientdata.Repository, log zerolog.Logger) *PersistentStore {
	return &PersistentStore{
		memory: NewMemoryStore(),
		repo:   repo,
		log:    log.With().Str("component", "snapshot_store").Logger(),
	}
}

// Get returns the in-memory snapshot, falling back to the persisted copy
// (fresh or stale) after a restart.
func (s *PersistentStore) Get() (*domain.RateSnapshot, bool) {
	if snap, ok := s.memory.Get(); ok {
		return snap, true
	}

	data, err := s.repo.Get("rate_snapshots", string(domain.BaseCurrency))
	if err != nil || data == nil {
		return nil, false
	}

	var snap domain.RateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn().Err(err).Msg("Failed to decode persisted snapshot, discarding")
		return nil, false
	}
	if err := snap.Rates.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("Persisted snapshot failed validation, discarding")
		return nil, false
	}

	s.memory.Put(&snap)
	return &snap, true
}

// Put stores the snapshot in memory and writes it through to sqlite.
func (s *PersistentStore) Put(snapshot *domain.RateSnapshot) {
	s.memory.Put(snapshot)

	ttl := snapshot.ExpiresAt.Sub(snapshot.FetchedAt)
	if err := s.repo.Store("rate_snapshots", string(domain.BaseCurrency), snapshot, ttl); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist rate snapshot")
	}
}
