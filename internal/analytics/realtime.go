package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// Realtime window sizes. Fixed, not caller-configurable.
const (
	ActiveVisitorWindow  = 5 * time.Minute
	RecentViewsWindow    = 24 * time.Hour
	PerMinuteSeriesRange = time.Hour
)

// RecentView is one row of the realtime activity feed.
type RecentView struct {
	PageID     string    `json:"pageId"`
	PageTitle  string    `json:"pageTitle"`
	Referrer   string    `json:"referrer"`
	Source     string    `json:"source"`
	DeviceType string    `json:"deviceType"`
	Browser    string    `json:"browser"`
	Country    string    `json:"country"`
	Timestamp  time.Time `json:"timestamp"`
}

// RealtimeReport is the live view of a site: who is on it right now, what
// was viewed in the last day, and active visitors minute by minute over the
// last hour.
type RealtimeReport struct {
	ActiveVisitors    int64                `json:"activeVisitors"`
	RecentViews       []RecentView         `json:"recentViews"`
	VisitorsPerMinute []timeframe.DateStat `json:"visitorsPerMinute"`
}

// GetActiveVisitors counts distinct visitors with a view in the active
// window ending at now.
func GetActiveVisitors(db *gorm.DB, siteID string, now time.Time) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(DISTINCT visitor_id) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp > ?
    `

	err := db.Raw(query, siteID, now.UTC().Add(-ActiveVisitorWindow)).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting active visitors: %w", err)
	}

	return result.Count, nil
}

// GetRecentViews returns the latest views of the last day, newest first,
// capped at limit.
func GetRecentViews(db *gorm.DB, siteID string, now time.Time, limit int) ([]RecentView, error) {
	var rawResults []struct {
		PageID     string
		PageTitle  string
		Referrer   string
		Source     string
		DeviceType string
		Browser    string
		Country    string
		Timestamp  time.Time
	}

	query := `
    SELECT page_id, page_title, referrer, source, device_type, browser, country, timestamp
    FROM page_views
    WHERE site_id = ?
    AND timestamp > ?
    ORDER BY timestamp DESC
    LIMIT ?
    `

	err := db.Raw(query, siteID, now.UTC().Add(-RecentViewsWindow), limit).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching recent views: %w", err)
	}

	results := make([]RecentView, len(rawResults))
	for i, r := range rawResults {
		results[i] = RecentView{
			PageID:     r.PageID,
			PageTitle:  r.PageTitle,
			Referrer:   r.Referrer,
			Source:     r.Source,
			DeviceType: r.DeviceType,
			Browser:    r.Browser,
			Country:    r.Country,
			Timestamp:  r.Timestamp,
		}
	}
	return results, nil
}

// GetVisitorsPerMinute returns a zero-filled per-minute distinct-visitor
// series for the last hour ending at now.
func GetVisitorsPerMinute(db *gorm.DB, siteID string, now time.Time) ([]timeframe.DateStat, error) {
	now = now.UTC().Truncate(time.Minute)
	from := now.Add(-PerMinuteSeriesRange)

	var rawResults []struct {
		Bucket string
		Count  int
	}

	query := `
    SELECT strftime('%Y-%m-%d %H:%M', timestamp) as bucket, COUNT(DISTINCT visitor_id) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    GROUP BY bucket
    ORDER BY bucket ASC
    `

	err := db.Raw(query, siteID, from, now.Add(time.Minute)).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching per-minute visitors: %w", err)
	}

	counts := make(map[string]int, len(rawResults))
	for _, r := range rawResults {
		counts[r.Bucket] += r.Count
	}

	series := make([]timeframe.DateStat, 0, 61)
	for t := from; !t.After(now); t = t.Add(time.Minute) {
		key := t.Format("2006-01-02 15:04")
		series = append(series, timeframe.DateStat{Date: key, Count: counts[key]})
	}
	return series, nil
}

// GetRealtimeReport assembles the realtime view of a site.
func GetRealtimeReport(db *gorm.DB, siteID string, now time.Time, recentLimit int) (*RealtimeReport, error) {
	active, err := GetActiveVisitors(db, siteID, now)
	if err != nil {
		return nil, err
	}

	recent, err := GetRecentViews(db, siteID, now, recentLimit)
	if err != nil {
		return nil, err
	}

	perMinute, err := GetVisitorsPerMinute(db, siteID, now)
	if err != nil {
		return nil, err
	}

	return &RealtimeReport{
		ActiveVisitors:    active,
		RecentViews:       recent,
		VisitorsPerMinute: perMinute,
	}, nil
}
