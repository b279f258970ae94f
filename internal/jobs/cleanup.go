package jobs

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"shortn/internal/clicks"
	"shortn/internal/config"
)

const cleanupBatchSize = 1000

// CleanupJob removes processed ingested clicks past the retention window.
// Raw user agents and referrers are not kept longer than needed.
type CleanupJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	cfg       *config.Config
	now       func() time.Time
}

func NewCleanupJob(dbManager cartridge.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run deletes in batches to keep write locks short.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.IngestedClicksRetentionDays
	if retentionDays <= 0 {
		j.logger.Debug("Ingested click retention disabled")
		return nil
	}
	cutoff := j.now().UTC().AddDate(0, 0, -retentionDays)
	db := j.dbManager.GetConnection()

	j.logger.Info("Starting cleanup of old ingested clicks",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoff))

	var totalDeleted int64
	for {
		deleted, err := clicks.DeleteProcessedBefore(db, cutoff, cleanupBatchSize)
		if err != nil {
			j.logger.Error("Failed to delete old ingested clicks",
				slog.Any("error", err),
				slog.Int64("deleted_so_far", totalDeleted))
			return err
		}
		totalDeleted += deleted

		if deleted < cleanupBatchSize {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if totalDeleted > 0 {
		j.logger.Info("Cleaned up old ingested clicks",
			slog.Int64("deleted_count", totalDeleted),
			slog.Int("retention_days", retentionDays))
	}
	return nil
}
