package testsupport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shortn/internal"
	"shortn/internal/campaigns"
	"shortn/internal/clicks"
	"shortn/internal/config"
	"shortn/internal/database"
	"shortn/internal/links"
)

// TestAPIKey is the bearer token accepted by the test app.
const TestAPIKey = "test-api-key"

// TestOwner is the owner id fixtures are created for unless stated otherwise.
const TestOwner = "owner-1"

func init() {
	if os.Getenv("SHORTN_ENV") == "" {
		os.Setenv("SHORTN_ENV", config.Test)
	}
}

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with shortn's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a test database with all shortn models migrated.
// Uses a named in-memory database with cache=shared so every connection of
// the pool sees the same data. Databases are cached by root test name so
// subtests share their parent's database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set SHORTN_ENV=test", cfg.Environment)
	}

	return NewTestDBManager(SetupTestDB(t)), GetLogger()
}

// CleanAllTables clears every table of the test database.
func CleanAllTables(db *gorm.DB) {
	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables)
	if len(tables) == 0 {
		return
	}

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestLink stores a link for owner without going through plan checks.
func CreateTestLink(t *testing.T, db *gorm.DB, ownerID, code, originalURL string) *links.Link {
	t.Helper()

	link := &links.Link{
		OwnerID:     ownerID,
		Code:        code,
		OriginalURL: originalURL,
		Kind:        links.KindLink,
	}
	require.NoError(t, db.Create(link).Error)
	return link
}

// CreateTestCampaign stores a campaign for owner.
func CreateTestCampaign(t *testing.T, db *gorm.DB, ownerID, name string) *campaigns.Campaign {
	t.Helper()

	campaign := &campaigns.Campaign{OwnerID: ownerID, Name: name}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

// AttachTestLink puts link into campaign.
func AttachTestLink(t *testing.T, db *gorm.DB, link *links.Link, campaign *campaigns.Campaign) {
	t.Helper()

	require.NoError(t, db.Model(link).Update("campaign_id", campaign.ID).Error)
	link.CampaignID = &campaign.ID
}

// TestClick describes an enriched click fixture.
type TestClick struct {
	Timestamp time.Time
	Referrer  string
	Country   string
	Region    string
	City      string
	Device    string
	Source    clicks.Source
	Params    map[string]string
	Visitor   string
}

// CreateTestClick stores an enriched click on link, bypassing ingestion.
func CreateTestClick(t *testing.T, db *gorm.DB, link *links.Link, c TestClick) *clicks.Click {
	t.Helper()

	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	if c.Source == "" {
		c.Source = clicks.SourceLink
	}
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	encoded, err := json.Marshal(c.Params)
	require.NoError(t, err)

	click := &clicks.Click{
		LinkID:      link.ID,
		CampaignID:  link.CampaignID,
		OwnerID:     link.OwnerID,
		Timestamp:   c.Timestamp,
		Referrer:    c.Referrer,
		Country:     c.Country,
		Region:      c.Region,
		City:        c.City,
		DeviceType:  c.Device,
		Source:      c.Source,
		UTMSource:   c.Params["utm_source"],
		UTMMedium:   c.Params["utm_medium"],
		UTMCampaign: c.Params["utm_campaign"],
		UTMTerm:     c.Params["utm_term"],
		UTMContent:  c.Params["utm_content"],
		QueryParams: string(encoded),
		VisitorHash: c.Visitor,
	}
	require.NoError(t, db.Create(click).Error)
	return click
}

// ProcessAllTestClicks drains the ingested click queue.
func ProcessAllTestClicks(t *testing.T, dbManager cartridge.DBManager, logger *slog.Logger) *clicks.ProcessingResult {
	t.Helper()

	result, err := clicks.ProcessUnprocessedClicks(dbManager, logger, 10)
	require.NoError(t, err)
	return result
}

// CreateTestApp creates a fiber app with every shortn route mounted.
func CreateTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test
	appConfig.APIKey = TestAPIKey
	appConfig.BaseURL = "https://sho.rt"

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	cfg.StaticDirectory = t.TempDir()
	cfg.StaticPrefix = appConfig.PublicAssetsUrlPrefix
	cfg.TemplatesDirectory = cfg.StaticDirectory
	// Redirects are typed into address bars and API calls come from servers,
	// neither sends a cross-site Sec-Fetch-Site value.
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}
