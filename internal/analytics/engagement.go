package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// EngagementStats summarizes client-reported engagement in a frame. Only
// views with a positive time on page qualify; all values are zero when no
// view qualifies.
type EngagementStats struct {
	AvgTimeOnPageSeconds  float64 `json:"avgTimeOnPage"`
	AvgScrollDepthPercent float64 `json:"avgScrollDepth"`
	TotalEngagedSessions  int64   `json:"totalEngagedSessions"`
}

// GetEngagementStats averages the client-supplied engagement metrics over
// views where time on page was reported and positive. AVG skips NULL scroll
// depths, so engaged views without a reported depth do not pull the average
// down.
func GetEngagementStats(db *gorm.DB, params SiteScopedQueryParams) (*EngagementStats, error) {
	var result struct {
		AvgTime   float64
		AvgScroll float64
		Engaged   int64
	}

	query := `
    SELECT
        COALESCE(AVG(time_on_page_seconds), 0) as avg_time,
        COALESCE(AVG(scroll_depth_percent), 0) as avg_scroll,
        COUNT(*) as engaged
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    AND time_on_page_seconds > 0
    `

	err := db.Raw(query,
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("error calculating engagement stats: %w", err)
	}

	return &EngagementStats{
		AvgTimeOnPageSeconds:  result.AvgTime,
		AvgScrollDepthPercent: result.AvgScroll,
		TotalEngagedSessions:  result.Engaged,
	}, nil
}
