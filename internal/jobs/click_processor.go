package jobs

import (
	"log/slog"

	"github.com/karloscodes/cartridge"

	"shortn/internal/clicks"
)

const clickBatchSize = 100

// ClickProcessorJob enriches ingested clicks into Click rows.
type ClickProcessorJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
}

func NewClickProcessorJob(dbManager cartridge.DBManager, logger *slog.Logger) *ClickProcessorJob {
	return &ClickProcessorJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run processes every pending ingested click.
func (j *ClickProcessorJob) Run() error {
	pending, err := clicks.CountPending(j.dbManager.GetConnection())
	if err != nil {
		j.logger.Error("Failed to count pending clicks", slog.Any("error", err))
		return err
	}
	if pending == 0 {
		return nil
	}

	j.logger.Info("Found pending clicks", slog.Int64("count", pending))

	result, err := clicks.ProcessUnprocessedClicks(j.dbManager, j.logger, clickBatchSize)
	if err != nil {
		j.logger.Error("Failed to process clicks", slog.Any("error", err))
		return err
	}

	for i, click := range result.Processed {
		if i >= 5 {
			break
		}
		j.logger.Debug("Processed click",
			slog.Uint64("id", uint64(click.ID)),
			slog.Uint64("link_id", uint64(click.LinkID)),
			slog.String("device", click.DeviceType),
			slog.Time("timestamp", click.Timestamp))
	}

	j.logger.Info("Clicks processed",
		slog.Int("count", len(result.Processed)),
		slog.Int("bots", result.SkippedBots),
		slog.Int64("remaining", pending-int64(len(result.Processed)+result.SkippedBots)))
	return nil
}
