package jobs

import (
	"log/slog"
	"os"
	"time"

	"shortn/internal/config"
	"shortn/internal/pkg/geoip"
)

// GeoDBReloaderJob reopens the GeoLite2 database after it is replaced on
// disk, e.g. by a geoipupdate cron, so lookups pick it up without a restart.
type GeoDBReloaderJob struct {
	logger  *slog.Logger
	cfg     *config.Config
	modTime time.Time
	reload  func()
}

func NewGeoDBReloaderJob(logger *slog.Logger, cfg *config.Config) *GeoDBReloaderJob {
	j := &GeoDBReloaderJob{
		logger: logger,
		cfg:    cfg,
		reload: geoip.ReloadGeoDB,
	}
	if info, err := os.Stat(cfg.GeoDBPath); err == nil {
		j.modTime = info.ModTime()
	}
	return j
}

// Run reloads the database when its modification time changed.
func (j *GeoDBReloaderJob) Run() error {
	if j.cfg.GeoDBPath == "" {
		return nil
	}

	info, err := os.Stat(j.cfg.GeoDBPath)
	if err != nil {
		if os.IsNotExist(err) {
			j.logger.Debug("GeoLite database not present", slog.String("path", j.cfg.GeoDBPath))
			return nil
		}
		return err
	}

	if !info.ModTime().After(j.modTime) {
		return nil
	}

	j.logger.Info("GeoLite database changed, reloading",
		slog.String("path", j.cfg.GeoDBPath),
		slog.Time("modified", info.ModTime()))
	j.reload()
	j.modTime = info.ModTime()
	return nil
}
