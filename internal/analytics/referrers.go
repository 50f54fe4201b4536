package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetTopReferrers returns the most common non-empty referrer URLs, capped at
// params.Limit. Direct traffic (empty referrer) is excluded; it shows up in
// the source breakdown instead.
func GetTopReferrers(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	var rawResults []struct {
		Name  string
		Count int64
	}

	query := `
    SELECT referrer as name, COUNT(*) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    AND referrer != ''
    GROUP BY referrer
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
		return nil, fmt.Errorf("error fetching top referrers: %w", err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.Name, Count: r.Count}
	}
	return results, nil
}
