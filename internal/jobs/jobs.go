package jobs

import (
	"log/slog"

	"github.com/karloscodes/cartridge"
)

// Jobs is the background worker the application registers with cartridge.
type Jobs = Scheduler

var _ cartridge.BackgroundWorker = (*Jobs)(nil)

// NewJobs creates the job scheduler.
func NewJobs(dbManager cartridge.DBManager, logger *slog.Logger) (*Jobs, error) {
	return NewScheduler(dbManager, logger)
}
