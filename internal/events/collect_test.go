package events_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/testsupport"
)

func TestCollectPageViewStoresEnrichedEvent(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	timeOnPage := 42
	input := &events.CollectPageViewInput{
		SiteID:            "site-1",
		PageID:            "/pricing",
		VisitorID:         "visitor-abc",
		IsNewVisitor:      true,
		PageURL:           "https://example.com/pricing?utm_source=newsletter&utm_campaign=spring",
		PageTitle:         "Pricing",
		Referrer:          "https://www.google.com/search?q=pricing",
		TimeOnPageSeconds: &timeOnPage,
		Timestamp:         time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36",
		ForwardedFor:      "203.0.113.7, 10.0.0.1",
	}

	view, err := events.CollectPageView(dbManager, logger, input)
	require.NoError(t, err)

	var stored events.PageView
	require.NoError(t, dbManager.GetConnection().First(&stored, view.ID).Error)

	assert.Equal(t, "site-1", stored.SiteID)
	assert.Equal(t, "/pricing", stored.PageID)
	assert.Equal(t, "visitor-abc", stored.VisitorID)
	assert.Equal(t, "visitor-abc", stored.SessionID)
	assert.Equal(t, "google", stored.Source)
	assert.Equal(t, "desktop", stored.DeviceType)
	assert.Equal(t, "Chrome", stored.Browser)
	assert.Equal(t, "Windows", stored.OperatingSystem)
	assert.Equal(t, "203.0.113.7", stored.IPAddress)
	assert.Equal(t, "newsletter", stored.UTMSource)
	assert.Equal(t, "spring", stored.UTMCampaign)
	assert.True(t, stored.IsNewVisitor)
	require.NotNil(t, stored.TimeOnPageSeconds)
	assert.Equal(t, 42, *stored.TimeOnPageSeconds)
	assert.Nil(t, stored.ScrollDepthPercent)
	assert.Equal(t, input.Timestamp, stored.Timestamp.UTC())
}

func TestCollectPageViewValidatesRequiredFields(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	cases := []struct {
		name  string
		input *events.CollectPageViewInput
		field string
	}{
		{
			name:  "missing siteId",
			input: &events.CollectPageViewInput{PageID: "/", VisitorID: "v1"},
			field: "siteId",
		},
		{
			name:  "missing pageId",
			input: &events.CollectPageViewInput{SiteID: "site-1", VisitorID: "v1"},
			field: "pageId",
		},
		{
			name:  "missing visitorId",
			input: &events.CollectPageViewInput{SiteID: "site-1", PageID: "/"},
			field: "visitorId",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := events.CollectPageView(dbManager, logger, tc.input)
			require.Error(t, err)

			var validationErr *events.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestCollectPageViewStampsServerTimestamp(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	before := time.Now().UTC().Add(-time.Second)
	view, err := events.CollectPageView(dbManager, logger, &events.CollectPageViewInput{
		SiteID:    "site-1",
		PageID:    "/",
		VisitorID: "v1",
	})
	require.NoError(t, err)
	after := time.Now().UTC().Add(time.Second)

	assert.True(t, view.Timestamp.After(before) && view.Timestamp.Before(after))
}

func TestCollectPageViewDegradesGracefully(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	// Empty user agent, malformed page URL, no client address headers:
	// nothing fails, everything falls back to a default label.
	view, err := events.CollectPageView(dbManager, logger, &events.CollectPageViewInput{
		SiteID:    "site-1",
		PageID:    "/about",
		VisitorID: "v1",
		PageURL:   "://broken",
	})
	require.NoError(t, err)

	assert.Equal(t, "unknown", view.DeviceType)
	assert.Equal(t, "Unknown", view.Browser)
	assert.Equal(t, "Unknown", view.OperatingSystem)
	assert.Equal(t, "direct", view.Source)
	assert.Equal(t, "unknown", view.IPAddress)
	assert.Empty(t, view.Country)
	assert.Empty(t, view.UTMCampaign)
}

func TestCollectPageViewAcceptsDuplicates(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	input := &events.CollectPageViewInput{
		SiteID:    "site-1",
		PageID:    "/home",
		VisitorID: "visitor-dup",
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	_, err := events.CollectPageView(dbManager, logger, input)
	require.NoError(t, err)
	_, err = events.CollectPageView(dbManager, logger, input)
	require.NoError(t, err)

	var count int64
	require.NoError(t, dbManager.GetConnection().Model(&events.PageView{}).
		Where("site_id = ? AND page_id = ?", "site-1", "/home").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
