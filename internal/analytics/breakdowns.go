package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// groupedCount runs a simple GROUP BY breakdown over page_views for one
// column, returning rows ordered by descending count. An extra filter
// clause can narrow the scanned rows; it is appended verbatim, so only
// trusted literals belong there.
func groupedCount(db *gorm.DB, params SiteScopedQueryParams, column, extraFilter string, limit int) ([]MetricCountResult, error) {
	var rawResults []struct {
		Name  string
		Count int64
	}

	query := fmt.Sprintf(`
    SELECT %s as name, COUNT(*) as count
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    %s
    GROUP BY %s
    ORDER BY count DESC, name ASC
    `, column, extraFilter, column)
	if limit > 0 {
		query += " LIMIT ?"
	}

	args := []interface{}{
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	}
	if limit > 0 {
		args = append(args, limit)
	}

	err := db.Raw(query, args...).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching %s breakdown: %w", column, err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.Name, Count: r.Count}
	}
	return results, nil
}

// GetViewsByPage returns the most viewed pages, capped at params.Limit.
func GetViewsByPage(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	return groupedCount(db, params, "page_id", "", params.Limit)
}

// GetViewsBySource returns view counts grouped by classified traffic source.
// All sources are returned; the cardinality is bounded by the classifier's
// label set.
func GetViewsBySource(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	return groupedCount(db, params, "source", "", 0)
}

// GetViewsByDevice returns view counts grouped by device type.
func GetViewsByDevice(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	return groupedCount(db, params, "device_type", "", 0)
}

// GetViewsByBrowser returns view counts grouped by browser label.
func GetViewsByBrowser(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	return groupedCount(db, params, "browser", "", 0)
}

// GetViewsByOS returns view counts grouped by operating system.
func GetViewsByOS(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	return groupedCount(db, params, "operating_system", "", 0)
}

// GetViewsByCountry returns the top countries by view count, capped at
// params.Limit. Views without a resolved country are excluded. Names are
// ISO alpha codes here; display name conversion happens at report assembly.
func GetViewsByCountry(db *gorm.DB, params SiteScopedQueryParams) ([]MetricCountResult, error) {
	return groupedCount(db, params, "country", "AND country != ''", params.Limit)
}
