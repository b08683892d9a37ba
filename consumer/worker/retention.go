package worker

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/tnqbao/gau-datagen-service/config"
	"github.com/tnqbao/gau-datagen-service/infra"
	"github.com/tnqbao/gau-datagen-service/repository"
	"github.com/tnqbao/gau-datagen-service/utils"
)

// tmpMaxAge bounds how long an orphaned in-progress upload may linger after
// a worker crash before the sweeper reclaims it.
const tmpMaxAge = 24 * time.Hour

// RetentionSweeper periodically removes artifacts older than the configured
// retention window and marks their jobs purged. Job rows are never touched
// beyond the purge marker, so history outlives the files.
type RetentionSweeper struct {
	infra      *infra.Infra
	repository *repository.Repository

	maxAge   time.Duration
	interval time.Duration
}

func NewRetentionSweeper(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *RetentionSweeper {
	return &RetentionSweeper{
		infra:      infra,
		repository: repo,
		maxAge:     cfg.EnvConfig.Retention.MaxAge,
		interval:   cfg.EnvConfig.Retention.SweepInterval,
	}
}

func (s *RetentionSweeper) Start(ctx context.Context) {
	s.infra.Logger.InfoWithContextf(ctx, "[Retention] Sweeper started: max age %s, interval %s", s.maxAge, s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// One pass at startup so a long interval doesn't delay the first sweep.
		s.Sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				s.infra.Logger.InfoWithContextf(ctx, "[Retention] Sweeper shutting down...")
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep runs one retention pass. Per-object failures are logged and skipped;
// one broken object must not stall the rest of the sweep.
func (s *RetentionSweeper) Sweep(ctx context.Context) {
	s.sweepArtifacts(ctx)
	s.sweepTemp(ctx)
}

func (s *RetentionSweeper) sweepArtifacts(ctx context.Context) {
	objects, err := s.infra.Minio.ListObjects(ctx, utils.ArtifactPrefix)
	if err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Retention] Failed to list artifacts")
		return
	}

	purged := 0
	for _, obj := range expiredObjects(objects, time.Now().Add(-s.maxAge)) {
		if s.purgeArtifact(ctx, obj) {
			purged++
		}
	}

	if purged > 0 {
		s.infra.Logger.InfoWithContextf(ctx, "[Retention] Purged %d expired artifacts", purged)
	}
}

func (s *RetentionSweeper) purgeArtifact(ctx context.Context, obj minio.ObjectInfo) bool {
	if err := s.infra.Minio.RemoveObject(ctx, obj.Key); err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Retention] Failed to remove artifact %s", obj.Key)
		return false
	}

	jobID, ok := utils.JobIDFromArtifactKey(obj.Key)
	if !ok {
		s.infra.Logger.WarningWithContextf(ctx, "[Retention] Removed artifact with unparseable key %s", obj.Key)
		return true
	}
	if err := s.repository.JobRepo.MarkArtifactPurged(jobID, time.Now()); err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Retention] Failed to mark job %s purged", jobID)
	}
	return true
}

// expiredObjects filters to objects last modified strictly before cutoff.
func expiredObjects(objects []minio.ObjectInfo, cutoff time.Time) []minio.ObjectInfo {
	var expired []minio.ObjectInfo
	for _, obj := range objects {
		if obj.LastModified.Before(cutoff) {
			expired = append(expired, obj)
		}
	}
	return expired
}

// sweepTemp reclaims in-progress uploads abandoned by crashed workers.
func (s *RetentionSweeper) sweepTemp(ctx context.Context) {
	objects, err := s.infra.Minio.ListObjects(ctx, utils.TempPrefix)
	if err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Retention] Failed to list temporary objects")
		return
	}

	for _, obj := range expiredObjects(objects, time.Now().Add(-tmpMaxAge)) {
		if err := s.infra.Minio.RemoveObject(ctx, obj.Key); err != nil {
			s.infra.Logger.ErrorWithContextf(ctx, err, "[Retention] Failed to remove orphaned object %s", obj.Key)
			continue
		}
		s.infra.Logger.InfoWithContextf(ctx, "[Retention] Removed orphaned object %s", obj.Key)
	}
}
