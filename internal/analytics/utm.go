package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// CampaignStat is one row of the campaign breakdown, keyed by the
// (campaign, source, medium) triple.
type CampaignStat struct {
	Campaign       string `json:"campaign"`
	Source         string `json:"source"`
	Medium         string `json:"medium"`
	Views          int64  `json:"views"`
	UniqueVisitors int64  `json:"uniqueVisitors"`
}

// GetUTMCampaigns returns the top campaign triples by view count, capped at
// params.Limit. Views without a utm_campaign tag are excluded.
func GetUTMCampaigns(db *gorm.DB, params SiteScopedQueryParams) ([]CampaignStat, error) {
	var rawResults []struct {
		Campaign       string
		Source         string
		Medium         string
		Views          int64
		UniqueVisitors int64
	}

	query := `
    SELECT
        utm_campaign as campaign,
        utm_source as source,
        utm_medium as medium,
        COUNT(*) as views,
        COUNT(DISTINCT visitor_id) as unique_visitors
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    AND utm_campaign != ''
    GROUP BY utm_campaign, utm_source, utm_medium
    ORDER BY views DESC, campaign ASC
    LIMIT ?
    `

	err := db.Raw(query,
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching utm campaigns: %w", err)
	}

	results := make([]CampaignStat, len(rawResults))
	for i, r := range rawResults {
		results[i] = CampaignStat{
			Campaign:       r.Campaign,
			Source:         r.Source,
			Medium:         r.Medium,
			Views:          r.Views,
			UniqueVisitors: r.UniqueVisitors,
		}
	}
	return results, nil
}

// GetUTMSources returns view counts grouped by utm_source for tagged views.
func GetUTMSources(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	var rawResults []struct {
		Name  string
		Count int64
	}

	query := `
    SELECT utm_source as name, COUNT(*) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    AND utm_source != ''
    GROUP BY utm_source
    ORDER BY count DESC, name ASC
    LIMIT ?
    `

	err := db.Raw(query,
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching utm sources: %w", err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.Name, Count: r.Count}
	}
	return results, nil
}
