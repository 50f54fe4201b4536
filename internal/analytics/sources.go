package analytics

import (
	"gorm.io/gorm"
)

// SourcesReport is the traffic acquisition view: classified sources,
// the raw referrer URLs behind them, and the tagged campaign sources.
type SourcesReport struct {
	Sources      []MetricCountResult `json:"sources"`
	TopReferrers []MetricCountResult `json:"topReferrers"`
	UTMSources   []MetricCountResult `json:"utmSources"`
}

// GetSourcesReport assembles the acquisition report for a site and frame.
func GetSourcesReport(db *gorm.DB, params SiteScopedQueryParams) (*SourcesReport, error) {
	sources, err := GetViewsBySource(db, params)
	if err != nil {
		return nil, err
	}

	referrers, err := GetTopReferrers(db, params)
	if err != nil {
		return nil, err
	}

	utmSources, err := GetUTMSources(db, params)
	if err != nil {
		return nil, err
	}

	return &SourcesReport{
		Sources:      sources,
		TopReferrers: referrers,
		UTMSources:   utmSources,
	}, nil
}

// GeographyReport breaks views down by country, city and region.
type GeographyReport struct {
	Countries []MetricCountResult `json:"countries"`
	Cities    []CityStat          `json:"cities"`
	Regions   []MetricCountResult `json:"regions"`
}

// GetGeographyReport assembles the geography report. Country codes are
// converted to display names.
func GetGeographyReport(db *gorm.DB, params SiteScopedQueryParams) (*GeographyReport, error) {
	countries, err := GetViewsByCountry(db, params)
	if err != nil {
		return nil, err
	}

	cities, err := GetViewsByCity(db, params)
	if err != nil {
		return nil, err
	}

	regions, err := GetViewsByRegion(db, params)
	if err != nil {
		return nil, err
	}

	return &GeographyReport{
		Countries: ConvertCountryNames(countries),
		Cities:    cities,
		Regions:   regions,
	}, nil
}
