package analytics

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"sitepulse/internal/pkg/async"
)

// reportWorkerCount is the pool size for fanning out the independent
// aggregate queries of a stats report.
const reportWorkerCount = 6

// StatsReport is the full dashboard payload for a site and time frame.
type StatsReport struct {
	TotalViews        int64               `json:"totalViews"`
	NewVisitors       int64               `json:"newVisitors"`
	UniqueVisitors    int64               `json:"uniqueVisitors"`
	ReturningVisitors int64               `json:"returningVisitors"`
	ViewsByPage       []MetricCountResult `json:"viewsByPage"`
	ViewsBySource     []MetricCountResult `json:"viewsBySource"`
	ViewsByDevice     []MetricCountResult `json:"viewsByDevice"`
	ViewsByCountry    []MetricCountResult `json:"viewsByCountry"`
	ViewsByBrowser    []MetricCountResult `json:"viewsByBrowser"`
	ViewsByOS         []MetricCountResult `json:"viewsByOperatingSystem"`
	ViewsByCity       []CityStat          `json:"viewsByCity"`
	ViewsOverTime     []TimeBucket        `json:"viewsOverTime"`
	EngagementStats   *EngagementStats    `json:"engagementStats"`
	TopReferrers      []MetricCountResult `json:"topReferrers"`
	UTMCampaigns      []CampaignStat      `json:"utmCampaigns"`
}

// GetStatsReport runs every aggregate of the dashboard in parallel and
// assembles the report. A failing aggregate does not fail the report: its
// section falls back to an empty value and the error is logged, so one bad
// query degrades a panel instead of blanking the whole dashboard.
func GetStatsReport(ctx context.Context, db *gorm.DB, logger *slog.Logger, params SiteScopedQueryParams) *StatsReport {
	tasks := []async.Task{
		{Name: "totalViews", Execute: func() (interface{}, error) {
			return GetTotalViews(db, params)
		}},
		{Name: "newVisitors", Execute: func() (interface{}, error) {
			return GetNewVisitors(db, params)
		}},
		{Name: "uniqueVisitors", Execute: func() (interface{}, error) {
			return GetUniqueVisitors(db, params)
		}},
		{Name: "returningVisitors", Execute: func() (interface{}, error) {
			return GetReturningVisitors(db, params)
		}},
		{Name: "viewsByPage", Execute: func() (interface{}, error) {
			return GetViewsByPage(db, params)
		}},
		{Name: "viewsBySource", Execute: func() (interface{}, error) {
			return GetViewsBySource(db, params)
		}},
		{Name: "viewsByDevice", Execute: func() (interface{}, error) {
			return GetViewsByDevice(db, params)
		}},
		{Name: "viewsByCountry", Execute: func() (interface{}, error) {
			stats, err := GetViewsByCountry(db, params)
			if err != nil {
				return nil, err
			}
			return ConvertCountryNames(stats), nil
		}},
		{Name: "viewsByBrowser", Execute: func() (interface{}, error) {
			return GetViewsByBrowser(db, params)
		}},
		{Name: "viewsByOS", Execute: func() (interface{}, error) {
			return GetViewsByOS(db, params)
		}},
		{Name: "viewsByCity", Execute: func() (interface{}, error) {
			return GetViewsByCity(db, params)
		}},
		{Name: "viewsOverTime", Execute: func() (interface{}, error) {
			return GetViewsOverTime(db, params)
		}},
		{Name: "engagementStats", Execute: func() (interface{}, error) {
			return GetEngagementStats(db, params)
		}},
		{Name: "topReferrers", Execute: func() (interface{}, error) {
			return GetTopReferrers(db, params)
		}},
		{Name: "utmCampaigns", Execute: func() (interface{}, error) {
			return GetUTMCampaigns(db, params)
		}},
	}

	pool := async.NewPool(reportWorkerCount)
	results := pool.Execute(ctx, tasks)

	for name, result := range results {
		if result.Err != nil {
			logger.Error("Report aggregate failed",
				slog.String("aggregate", name),
				slog.String("site_id", params.SiteID),
				slog.Any("error", result.Err))
		}
	}

	report := &StatsReport{
		TotalViews:        countOrZero(results, "totalViews"),
		NewVisitors:       countOrZero(results, "newVisitors"),
		UniqueVisitors:    countOrZero(results, "uniqueVisitors"),
		ReturningVisitors: countOrZero(results, "returningVisitors"),
		ViewsByPage:       metricsOrEmpty(results, "viewsByPage"),
		ViewsBySource:     metricsOrEmpty(results, "viewsBySource"),
		ViewsByDevice:     metricsOrEmpty(results, "viewsByDevice"),
		ViewsByCountry:    metricsOrEmpty(results, "viewsByCountry"),
		ViewsByBrowser:    metricsOrEmpty(results, "viewsByBrowser"),
		ViewsByOS:         metricsOrEmpty(results, "viewsByOS"),
		TopReferrers:      metricsOrEmpty(results, "topReferrers"),
		ViewsByCity:       []CityStat{},
		ViewsOverTime:     []TimeBucket{},
		EngagementStats:   &EngagementStats{},
		UTMCampaigns:      []CampaignStat{},
	}

	if result, ok := results["viewsByCity"]; ok && result.Err == nil {
		if cities, ok := result.Data.([]CityStat); ok && cities != nil {
			report.ViewsByCity = cities
		}
	}
	if result, ok := results["viewsOverTime"]; ok && result.Err == nil {
		if series, ok := result.Data.([]TimeBucket); ok && series != nil {
			report.ViewsOverTime = series
		}
	}
	if result, ok := results["engagementStats"]; ok && result.Err == nil {
		if stats, ok := result.Data.(*EngagementStats); ok && stats != nil {
			report.EngagementStats = stats
		}
	}
	if result, ok := results["utmCampaigns"]; ok && result.Err == nil {
		if campaigns, ok := result.Data.([]CampaignStat); ok && campaigns != nil {
			report.UTMCampaigns = campaigns
		}
	}

	return report
}

func countOrZero(results map[string]async.Result, name string) int64 {
	if result, ok := results[name]; ok && result.Err == nil {
		if count, ok := result.Data.(int64); ok {
			return count
		}
	}
	return 0
}

func metricsOrEmpty(results map[string]async.Result, name string) []MetricCountResult {
	if result, ok := results[name]; ok && result.Err == nil {
		if metrics, ok := result.Data.([]MetricCountResult); ok && metrics != nil {
			return metrics
		}
	}
	return []MetricCountResult{}
}

// ConvertCountryNames maps stored ISO alpha country codes to their common
// display names. Codes that cannot be resolved keep an uppercased form.
func ConvertCountryNames(items []MetricCountResult) []MetricCountResult {
	if len(items) == 0 {
		return []MetricCountResult{}
	}

	titler := cases.Title(language.AmericanEnglish)
	countries := gountries.New()

	result := make([]MetricCountResult, len(items))
	for i, item := range items {
		if item.Name == "" || strings.EqualFold(item.Name, "unknown") {
			result[i] = MetricCountResult{Name: titler.String("unknown"), Count: item.Count}
			continue
		}

		country, err := countries.FindCountryByAlpha(item.Name)
		if err != nil {
			result[i] = MetricCountResult{Name: strings.ToUpper(item.Name), Count: item.Count}
			continue
		}
		result[i] = MetricCountResult{Name: country.Name.Common, Count: item.Count}
	}
	return result
}
