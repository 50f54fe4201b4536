package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// TimeBucket is one point of the views-over-time series.
type TimeBucket struct {
	Date           string `json:"date"`
	Views          int64  `json:"views"`
	NewVisitors    int64  `json:"newVisitors"`
	UniqueVisitors int64  `json:"uniqueVisitors"`
}

// GetViewsOverTime returns the bucketed page view series for the frame,
// ascending by bucket. Buckets with no views are present with explicit
// zeros, so the series always covers the full frame and its view counts
// sum to the total view count.
func GetViewsOverTime(db *gorm.DB, params SiteScopedQueryParams) ([]TimeBucket, error) {
	groupExpr := params.TimeFrame.SQLiteGroupExpression("timestamp")

	var rawResults []struct {
		Bucket         string
		Views          int64
		NewVisitors    int64
		UniqueVisitors int64
	}

	query := fmt.Sprintf(`
    SELECT
        %s as bucket,
        COUNT(*) as views,
        SUM(CASE WHEN is_new_visitor = 1 THEN 1 ELSE 0 END) as new_visitors,
        COUNT(DISTINCT visitor_id) as unique_visitors
    FROM page_views
    WHERE site_id = ?
    AND timestamp BETWEEN ? AND ?
    GROUP BY bucket
    ORDER BY bucket ASC
    `, groupExpr)

	err := db.Raw(query,
		params.SiteID,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching views over time: %w", err)
	}

	byBucket := make(map[string]TimeBucket, len(rawResults))
	for _, r := range rawResults {
		byBucket[r.Bucket] = TimeBucket{
			Date:           r.Bucket,
			Views:          r.Views,
			NewVisitors:    r.NewVisitors,
			UniqueVisitors: r.UniqueVisitors,
		}
	}

	keys := params.TimeFrame.BucketKeys()
	series := make([]TimeBucket, 0, len(keys))
	for _, key := range keys {
		if bucket, ok := byBucket[key]; ok {
			series = append(series, bucket)
			continue
		}
		series = append(series, TimeBucket{Date: key})
	}
	return series, nil
}
