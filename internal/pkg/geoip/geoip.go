package geoip

import (
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"shortn/internal/config"
)

var (
	geoDB  *geoip2.Reader
	once   sync.Once
	mu     sync.RWMutex
	logger *slog.Logger
)

// Location is the geographic context of a click. Fields are empty when unknown.
type Location struct {
	CountryCode string
	Region      string
	City        string
}

// InitLogger sets the logger for the geoip package.
func InitLogger(l *slog.Logger) {
	logger = l
}

// OpenGeoDB opens a GeoLite2 City database.
// Returns nil if the path is empty or the file is missing (GeoIP is optional).
func OpenGeoDB(path string) *geoip2.Reader {
	if path == "" {
		if logger != nil {
			logger.Debug("GeoIP database path not configured - GeoIP features disabled")
		}
		return nil
	}

	if absPath, err := filepath.Abs(path); err == nil && logger != nil {
		logger.Debug("GeoIP database absolute path", slog.String("abs_path", absPath))
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if logger != nil {
			logger.Info("GeoLite2 database not found - clicks will be recorded without location",
				slog.String("path", path),
				slog.String("hint", "Download GeoLite2-City from https://www.maxmind.com/en/geolite2/signup"))
		}
		return nil
	} else if err != nil {
		if logger != nil {
			logger.Warn("Error checking GeoLite2 database file",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return nil
	}

	db, err := geoip2.Open(path)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open GeoLite2 database",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return nil
	}

	if logger != nil {
		logger.Info("GeoLite2 database initialized successfully",
			slog.String("path", path),
			slog.String("db_type", db.Metadata().DatabaseType))
	}
	return db
}

// GetGeoDB returns the configured reader, opening it on first use.
func GetGeoDB() *geoip2.Reader {
	once.Do(func() {
		mu.Lock()
		geoDB = OpenGeoDB(config.GetConfig().GeoDBPath)
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return geoDB
}

// ReloadGeoDB reopens the configured database, e.g. after it was replaced on disk.
func ReloadGeoDB() {
	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()

	if geoDB != nil {
		geoDB.Close()
	}
	geoDB = OpenGeoDB(config.GetConfig().GeoDBPath)
}

// Lookup resolves an IP to country code, region and city using English names.
// Unknown IPs, private ranges and a missing database yield an empty Location.
func Lookup(db *geoip2.Reader, ipStr string) Location {
	if db == nil {
		return Location{}
	}
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return Location{}
	}

	record, err := db.City(ip)
	if err != nil {
		return Location{}
	}

	loc := Location{
		CountryCode: record.Country.IsoCode,
		City:        record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	return loc
}

// LookupIP resolves an IP against the configured database.
func LookupIP(ipStr string) Location {
	return Lookup(GetGeoDB(), ipStr)
}
