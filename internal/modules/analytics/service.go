package analytics

import (
	"time"

	"github.com/rs/zerolog"
)

// Service records analytics events. All recording methods swallow storage
// errors after logging them; analytics must never break a request.
type Service struct {
	repo *Repository
	now  func() time.Time
	log  zerolog.Logger
}

// NewService creates a new analytics service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  log.With().Str("service", "analytics").Logger(),
	}
}

// RecordVisit records a page visit.
func (s *Service) RecordVisit(path string) {
	if err := s.repo.InsertVisit(path, s.now()); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Failed to record visit")
	}
}

// RecordCalculation records a completed calculation.
func (s *Service) RecordCalculation(pair string, duration time.Duration, usedFallback bool) {
	if err := s.repo.InsertCalculation(pair, duration, usedFallback, s.now()); err != nil {
		s.log.Warn().Err(err).Str("pair", pair).Msg("Failed to record calculation")
	}
}

// RecordError records a request-level error.
func (s *Service) RecordError(endpoint, message string) {
	if err := s.repo.InsertError(endpoint, message, s.now()); err != nil {
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to record error")
	}
}

// RecordFallback counts a fallback-rate substitution. Implements the rate
// service's recorder hook.
func (s *Service) RecordFallback() {
	if err := s.repo.InsertFallbackEvent(s.now()); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record fallback event")
	}
}

// Stats returns the aggregate summary.
func (s *Service) Stats() (*Stats, error) {
	return s.repo.GetStats()
}

// Prune removes events past the retention window.
func (s *Service) Prune() (int64, error) {
	return s.repo.DeleteOlderThan(s.now().Add(-Retention))
}
