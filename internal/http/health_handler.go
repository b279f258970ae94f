package http

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"shortn/internal/clicks"
)

type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	DBStatus      string    `json:"db_status"`
	PendingClicks int64     `json:"pending_clicks"`
}

// HealthIndexAction reports database reachability and the click queue depth.
func HealthIndexAction(ctx *cartridge.Context) error {
	health := HealthStatus{Status: "ok", Timestamp: time.Now(), DBStatus: "ok"}

	db := ctx.DBManager.GetConnection()
	if db == nil {
		health.DBStatus = "error"
		ctx.Logger.Error("Database connection unavailable")
	} else if sqlDB, err := db.DB(); err != nil {
		health.DBStatus = "error"
		ctx.Logger.Error("Database connection error", slog.Any("error", err))
	} else if err := sqlDB.Ping(); err != nil {
		health.DBStatus = "error"
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
	} else if pending, err := clicks.CountPending(db); err == nil {
		health.PendingClicks = pending
	}

	if health.DBStatus != "ok" {
		health.Status = "degraded"
	}
	return ctx.JSON(health)
}
