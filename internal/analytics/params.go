// Package analytics computes the read-side reports over recorded page
// views. Every query is stateless: it scans the page_views table for a site
// and time frame and derives its numbers on the fly.
package analytics

import (
	"time"

	"sitepulse/internal/timeframe"
)

// DefaultTopListLimit caps ranked breakdowns (top pages, referrers,
// campaigns) unless the caller overrides it.
const DefaultTopListLimit = 10

// SiteScopedQueryParams contains the common parameters of site-scoped
// aggregation queries.
type SiteScopedQueryParams struct {
	TimeFrame *timeframe.TimeFrame
	SiteID    string
	Limit     int
}

// NewSiteScopedQueryParams creates query params with the given frame,
// falling back to the default reporting window when none is provided.
func NewSiteScopedQueryParams(tf *timeframe.TimeFrame, siteID string) SiteScopedQueryParams {
	if tf == nil {
		tf = timeframe.Default(time.Now())
	}
	return SiteScopedQueryParams{
		TimeFrame: tf,
		SiteID:    siteID,
		Limit:     DefaultTopListLimit,
	}
}

// MetricCountResult is one row of a ranked breakdown: a label and how many
// views carried it.
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
