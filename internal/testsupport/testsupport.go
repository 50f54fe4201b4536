// Package testsupport provides shared database and fixture helpers for
// package tests.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal"
	"sitepulse/internal/config"
	"sitepulse/internal/content"
	"sitepulse/internal/events"
	"sitepulse/internal/media"
)

// testDBCache caches test databases by root test name so multiple setup
// calls within the same test share one database.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with sitepulse's interface.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager.
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns every sitepulse model for migration.
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&events.PageView{},
		&content.ContentBlock{},
		&content.Page{},
		&media.Media{},
	}
}

// SetupTestDB creates a test database with all sitepulse models migrated.
// Uses a named in-memory database with cache=shared to allow multiple
// connections to share the same database within a test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use root test name for caching so setup closures that capture the
	// outer t still hit the same database from subtests
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set SITEPULSE_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted
// against the given database.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = NewTestDBManager(db)
	// Keep Sec-Fetch-Site validation on so tests exercise the same request
	// checks as production
	cfg.EnableSecFetchSite = true
	cfg.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// CleanAllTables clears all non-system tables in the database.
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger that only surfaces errors.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// PageViewOption mutates a seeded page view before insertion.
type PageViewOption func(*events.PageView)

// WithVisitor sets the visitor id (and the session id, which defaults to
// the visitor) of a seeded page view.
func WithVisitor(visitorID string) PageViewOption {
	return func(v *events.PageView) {
		v.VisitorID = visitorID
		v.SessionID = visitorID
	}
}

// WithSession sets the session id of a seeded page view.
func WithSession(sessionID string) PageViewOption {
	return func(v *events.PageView) { v.SessionID = sessionID }
}

// WithEngagement sets the client-reported engagement metrics.
func WithEngagement(timeOnPageSeconds, scrollDepthPercent int) PageViewOption {
	return func(v *events.PageView) {
		v.TimeOnPageSeconds = &timeOnPageSeconds
		v.ScrollDepthPercent = &scrollDepthPercent
	}
}

// WithTimeOnPage sets only the reported time on page, leaving the scroll
// depth unreported.
func WithTimeOnPage(timeOnPageSeconds int) PageViewOption {
	return func(v *events.PageView) {
		v.TimeOnPageSeconds = &timeOnPageSeconds
	}
}

// WithNewVisitor marks a seeded page view as coming from a new visitor.
func WithNewVisitor() PageViewOption {
	return func(v *events.PageView) { v.IsNewVisitor = true }
}

// WithSource sets the referrer and derived source of a seeded page view.
func WithSource(referrer, source string) PageViewOption {
	return func(v *events.PageView) {
		v.Referrer = referrer
		v.Source = source
	}
}

// WithDevice overrides the device classification fields.
func WithDevice(deviceType, browser, operatingSystem string) PageViewOption {
	return func(v *events.PageView) {
		v.DeviceType = deviceType
		v.Browser = browser
		v.OperatingSystem = operatingSystem
	}
}

// WithGeo sets the geography fields of a seeded page view.
func WithGeo(country, city, region string) PageViewOption {
	return func(v *events.PageView) {
		v.Country = country
		v.City = city
		v.Region = region
	}
}

// WithCampaign sets the UTM campaign fields of a seeded page view.
func WithCampaign(source, medium, campaign string) PageViewOption {
	return func(v *events.PageView) {
		v.UTMSource = source
		v.UTMMedium = medium
		v.UTMCampaign = campaign
	}
}

// WithIP sets the client address of a seeded page view.
func WithIP(ip string) PageViewOption {
	return func(v *events.PageView) { v.IPAddress = ip }
}

// SeedPageView inserts a page view with sensible defaults, applying any
// options on top.
func SeedPageView(t *testing.T, db *gorm.DB, siteID, pageID string, timestamp time.Time, opts ...PageViewOption) *events.PageView {
	t.Helper()

	view := &events.PageView{
		SiteID:          siteID,
		PageID:          pageID,
		VisitorID:       "visitor-default",
		SessionID:       "visitor-default",
		Source:          "direct",
		UserAgent:       "Mozilla/5.0 Test Browser",
		IPAddress:       "192.0.2.1",
		Timestamp:       timestamp.UTC(),
		DeviceType:      "desktop",
		Browser:         "Chrome",
		OperatingSystem: "Windows",
		Country:         "US",
		CreatedAt:       time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(view)
	}

	require.NoError(t, db.Create(view).Error)
	return view
}
