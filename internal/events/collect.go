package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/classifier"
	"sitepulse/internal/pkg/geoip"
)

// ValidationError marks a rejected page view payload. Handlers map it to a
// 400 response; anything else during collection is a server-side failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid page view: %s %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CollectPageViewInput is the raw tracking payload plus the request metadata
// the handler extracted for enrichment. Timestamp is optional and exists for
// tests; the tracking endpoint never passes one, so events get stamped with
// the server clock at ingestion.
type CollectPageViewInput struct {
	SiteID             string
	PageID             string
	VisitorID          string
	SessionID          string
	IsNewVisitor       bool
	PageURL            string
	PageTitle          string
	Referrer           string
	TimeOnPageSeconds  *int
	ScrollDepthPercent *int
	Timestamp          time.Time

	UserAgent    string
	ForwardedFor string
	RealIP       string
	RemoteAddr   string
}

// CollectPageView validates, enriches and stores one page view. Enrichment
// happens exactly once, here; duplicate submissions are stored as separate
// rows and simply count twice downstream.
func CollectPageView(dbManager cartridge.DBManager, logger *slog.Logger, input *CollectPageViewInput) (*PageView, error) {
	if input.SiteID == "" {
		return nil, NewValidationError("siteId", "is required")
	}
	if input.PageID == "" {
		return nil, NewValidationError("pageId", "is required")
	}
	if input.VisitorID == "" {
		return nil, NewValidationError("visitorId", "is required")
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	view := enrich(input, timestamp)

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(view).Error
	})
	if err != nil {
		logger.Error("Failed to store page view",
			slog.String("site_id", input.SiteID),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to store page view: %w", err)
	}

	return view, nil
}

// enrich derives every classification field from the raw payload. It never
// fails: classifiers degrade to their defined defaults on bad input.
func enrich(input *CollectPageViewInput, timestamp time.Time) *PageView {
	ip := classifier.ClientIP(input.ForwardedFor, input.RealIP, input.RemoteAddr)
	utm := classifier.UTMParams(input.PageURL)
	location := geoip.Lookup(ip)

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = input.VisitorID
	}

	return &PageView{
		SiteID:             input.SiteID,
		PageID:             input.PageID,
		VisitorID:          input.VisitorID,
		SessionID:          sessionID,
		Timestamp:          timestamp.UTC(),
		PageURL:            input.PageURL,
		PageTitle:          input.PageTitle,
		Referrer:           input.Referrer,
		Source:             classifier.ReferrerSource(input.Referrer),
		UserAgent:          input.UserAgent,
		IPAddress:          ip,
		DeviceType:         string(classifier.Device(input.UserAgent)),
		Browser:            classifier.Browser(input.UserAgent),
		OperatingSystem:    classifier.OS(input.UserAgent),
		Country:            location.CountryCode,
		City:               location.City,
		Region:             location.Region,
		IsNewVisitor:       input.IsNewVisitor,
		UTMSource:          utm.Source,
		UTMMedium:          utm.Medium,
		UTMCampaign:        utm.Campaign,
		UTMContent:         utm.Content,
		UTMTerm:            utm.Term,
		TimeOnPageSeconds:  input.TimeOnPageSeconds,
		ScrollDepthPercent: input.ScrollDepthPercent,
		CreatedAt:          time.Now().UTC(),
	}
}
