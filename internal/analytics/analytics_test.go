package analytics_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
)

const testSite = "site-test"

func frameAround(t *testing.T, from, to time.Time, g timeframe.Granularity) *timeframe.TimeFrame {
	t.Helper()
	tf, err := timeframe.New(from, to, g)
	require.NoError(t, err)
	return tf
}

func TestTotals(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	// Three views from visitors {A, A, B}; A's first view and B's view are
	// flagged new.
	testsupport.SeedPageView(t, db, testSite, "/", base,
		testsupport.WithVisitor("A"), testsupport.WithNewVisitor())
	testsupport.SeedPageView(t, db, testSite, "/about", base.Add(time.Minute),
		testsupport.WithVisitor("A"))
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(2*time.Minute),
		testsupport.WithVisitor("B"), testsupport.WithNewVisitor())

	// A different site's traffic must not leak in.
	testsupport.SeedPageView(t, db, "other-site", "/", base, testsupport.WithVisitor("C"))

	tf := frameAround(t, base.Add(-time.Hour), base.Add(time.Hour), timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	total, err := analytics.GetTotalViews(db, params)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	unique, err := analytics.GetUniqueVisitors(db, params)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unique)

	newVisitors, err := analytics.GetNewVisitors(db, params)
	require.NoError(t, err)
	assert.EqualValues(t, 2, newVisitors)

	returning, err := analytics.GetReturningVisitors(db, params)
	require.NoError(t, err)
	assert.Zero(t, returning)
}

func TestReturningVisitorsCanGoNegative(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	base := time.Date(2026, 4, 11, 9, 0, 0, 0, time.UTC)

	// One visitor whose client reports every view as a first visit. The
	// derived count goes negative and is reported as-is.
	testsupport.SeedPageView(t, db, testSite, "/", base,
		testsupport.WithVisitor("A"), testsupport.WithNewVisitor())
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(time.Minute),
		testsupport.WithVisitor("A"), testsupport.WithNewVisitor())

	tf := frameAround(t, base.Add(-time.Hour), base.Add(time.Hour), timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	returning, err := analytics.GetReturningVisitors(db, params)
	require.NoError(t, err)
	assert.EqualValues(t, -1, returning)
}

func TestTotalsEmptyFrame(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	tf := frameAround(t,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		timeframe.GranularityDaily)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	total, err := analytics.GetTotalViews(db, params)
	require.NoError(t, err)
	assert.Zero(t, total)

	returning, err := analytics.GetReturningVisitors(db, params)
	require.NoError(t, err)
	assert.Zero(t, returning)
}

func TestViewsByPageTopListCap(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	// 12 distinct pages; /page-0 gets the most views.
	for i := 0; i < 12; i++ {
		page := fmt.Sprintf("/page-%d", i)
		for j := 0; j <= 12-i; j++ {
			testsupport.SeedPageView(t, db, testSite, page, base.Add(time.Duration(j)*time.Minute))
		}
	}

	tf := frameAround(t, base.Add(-time.Hour), base.Add(time.Hour), timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	pages, err := analytics.GetViewsByPage(db, params)
	require.NoError(t, err)

	require.Len(t, pages, analytics.DefaultTopListLimit)
	assert.Equal(t, "/page-0", pages[0].Name)
	assert.EqualValues(t, 13, pages[0].Count)

	// Descending by count.
	for i := 1; i < len(pages); i++ {
		assert.GreaterOrEqual(t, pages[i-1].Count, pages[i].Count)
	}
}

func TestViewsByDeviceAndSource(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	testsupport.SeedPageView(t, db, testSite, "/", base,
		testsupport.WithDevice("mobile", "Safari", "iOS"),
		testsupport.WithSource("https://www.facebook.com/post", "facebook"))
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(time.Minute),
		testsupport.WithDevice("mobile", "Chrome", "Android"))
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(2*time.Minute))

	tf := frameAround(t, base.Add(-time.Hour), base.Add(time.Hour), timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	devices, err := analytics.GetViewsByDevice(db, params)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, analytics.MetricCountResult{Name: "mobile", Count: 2}, devices[0])
	assert.Equal(t, analytics.MetricCountResult{Name: "desktop", Count: 1}, devices[1])

	sources, err := analytics.GetViewsBySource(db, params)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, analytics.MetricCountResult{Name: "direct", Count: 2}, sources[0])
	assert.Equal(t, analytics.MetricCountResult{Name: "facebook", Count: 1}, sources[1])
}

func TestViewsByCountryExcludesUnresolved(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	base := time.Date(2026, 4, 4, 10, 0, 0, 0, time.UTC)
	testsupport.SeedPageView(t, db, testSite, "/", base, testsupport.WithGeo("US", "Portland", "Oregon"))
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(time.Minute), testsupport.WithGeo("", "", ""))

	tf := frameAround(t, base.Add(-time.Hour), base.Add(time.Hour), timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	countries, err := analytics.GetViewsByCountry(db, params)
	require.NoError(t, err)

	require.Len(t, countries, 1)
	assert.Equal(t, "US", countries[0].Name)
	assert.EqualValues(t, 1, countries[0].Count)
}

func TestViewsOverTimeSumsToTotal(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 7, 23, 59, 59, 0, time.UTC)

	testsupport.SeedPageView(t, db, testSite, "/", from.Add(2*time.Hour),
		testsupport.WithVisitor("A"), testsupport.WithNewVisitor())
	testsupport.SeedPageView(t, db, testSite, "/", from.AddDate(0, 0, 2),
		testsupport.WithVisitor("A"))
	testsupport.SeedPageView(t, db, testSite, "/", from.AddDate(0, 0, 2).Add(5*time.Hour),
		testsupport.WithVisitor("B"))
	testsupport.SeedPageView(t, db, testSite, "/", from.AddDate(0, 0, 6),
		testsupport.WithVisitor("B"))

	tf := frameAround(t, from, to, timeframe.GranularityDaily)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	series, err := analytics.GetViewsOverTime(db, params)
	require.NoError(t, err)

	// One point per day of the frame, zero-filled.
	require.Len(t, series, 7)
	assert.Equal(t, "2026-04-01", series[0].Date)
	assert.Zero(t, series[1].Views)

	var total int64
	for _, p := range series {
		total += p.Views
	}
	assert.EqualValues(t, 4, total)

	assert.EqualValues(t, 1, series[0].Views)
	assert.EqualValues(t, 1, series[0].NewVisitors)
	assert.EqualValues(t, 2, series[2].Views)
	assert.EqualValues(t, 2, series[2].UniqueVisitors)
	assert.EqualValues(t, 1, series[6].Views)
}

func TestViewsOverTimeCoversLongHourlyFrame(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	// 60 days of hourly buckets. Views at both edges must land in the
	// series so the bucket counts still sum to the total view count.
	from := time.Date(2025, 12, 13, 15, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 60)

	testsupport.SeedPageView(t, db, testSite, "/", from.Add(30*time.Minute),
		testsupport.WithVisitor("A"))
	testsupport.SeedPageView(t, db, testSite, "/", to.Add(-30*time.Minute),
		testsupport.WithVisitor("A"))
	testsupport.SeedPageView(t, db, testSite, "/", to.Add(-30*time.Minute),
		testsupport.WithVisitor("B"))

	tf := frameAround(t, from, to, timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	series, err := analytics.GetViewsOverTime(db, params)
	require.NoError(t, err)

	require.Len(t, series, 1441)
	assert.Equal(t, "2026-02-11 15:00", series[len(series)-1].Date)

	var total int64
	for _, p := range series {
		total += p.Views
	}
	assert.EqualValues(t, 3, total)
	assert.EqualValues(t, 2, series[len(series)-2].Views)
}

func TestTopReferrersExcludesDirect(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	base := time.Date(2026, 4, 3, 15, 0, 0, 0, time.UTC)
	testsupport.SeedPageView(t, db, testSite, "/", base,
		testsupport.WithSource("https://news.ycombinator.com/item?id=1", "other"))
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(time.Minute),
		testsupport.WithSource("https://news.ycombinator.com/item?id=1", "other"))
	testsupport.SeedPageView(t, db, testSite, "/", base.Add(2*time.Minute))

	tf := frameAround(t, base.Add(-time.Hour), base.Add(time.Hour), timeframe.GranularityHourly)
	params := analytics.NewSiteScopedQueryParams(tf, testSite)

	referrers, err := analytics.GetTopReferrers(db, params)
	require.NoError(t, err)

	require.Len(t, referrers, 1)
	assert.Equal(t, "https://news.ycombinator.com/item?id=1", referrers[0].Name)
	assert.EqualValues(t, 2, referrers[0].Count)
}

func TestConvertCountryNames(t *testing.T) {
	converted := analytics.ConvertCountryNames([]analytics.MetricCountResult{
		{Name: "US", Count: 5},
		{Name: "DE", Count: 3},
		{Name: "unknown", Count: 2},
		{Name: "XX", Count: 1},
	})

	require.Len(t, converted, 4)
	assert.Equal(t, "United States", converted[0].Name)
	assert.Equal(t, "Germany", converted[1].Name)
	assert.Equal(t, "Unknown", converted[2].Name)
	assert.Equal(t, "XX", converted[3].Name)
	assert.EqualValues(t, 5, converted[0].Count)
}
