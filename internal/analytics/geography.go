package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// CityTopListLimit caps the city breakdown in the geography report.
const CityTopListLimit = 20

// CityStat is one row of the city breakdown. Cities are keyed by the
// city/country pair so same-named cities in different countries stay
// separate rows.
type CityStat struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// GetViewsByCity returns the top cities by view count. Views with no
// resolved city are excluded.
func GetViewsByCity(db *gorm.DB, params SiteScopedQueryParams) ([]CityStat, error) {
	var rawResults []struct {
		City    string
		Country string
		Count   int64
	}

	query := `
    SELECT city, country, COUNT(*) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    AND city != ''
    GROUP BY city, country
    ORDER BY count DESC, city ASC
    LIMIT ?
    `

	err := db.Raw(query,
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		CityTopListLimit,
	).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching city breakdown: %w", err)
	}

	results := make([]CityStat, len(rawResults))
	for i, r := range rawResults {
		results[i] = CityStat{City: r.City, Country: r.Country, Count: r.Count}
	}
	return results, nil
}

// GetViewsByRegion returns view counts grouped by region within a country.
func GetViewsByRegion(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	var rawResults []struct {
		Name  string
		Count int64
	}

	query := `
    SELECT region as name, COUNT(*) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    AND region != ''
    GROUP BY region
    ORDER BY count DESC, name ASC
    LIMIT ?
    `

	err := db.Raw(query,
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		CityTopListLimit,
	).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching region breakdown: %w", err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.Name, Count: r.Count}
	}
	return results, nil
}
