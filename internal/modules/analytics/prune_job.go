package analytics

import (
	"github.com/rs/zerolog"
)

// PruneJob removes analytics events past the retention window. Scheduled
// daily alongside the client data cleanup.
type PruneJob struct {
	service *Service
	log     zerolog.Logger
}

// NewPruneJob creates a new analytics prune job.
func NewPruneJob(service *Service, log zerolog.Logger) *PruneJob {
	return &PruneJob{
		service: service,
		log:     log.With().Str("job", "analytics_prune").Logger(),
	}
}

// Run executes the prune job.
func (j *PruneJob) Run() error {
	removed, err := j.service.Prune()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune analytics events")
		return err
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Msg("Analytics prune completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *PruneJob) Name() string {
	return "analytics_prune"
}
