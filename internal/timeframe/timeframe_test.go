package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFrame(t *testing.T, from, to time.Time, g Granularity) *TimeFrame {
	t.Helper()
	tf, err := New(from, to, g)
	require.NoError(t, err)
	return tf
}

func TestNewRejectsInvertedRange(t *testing.T) {
	now := time.Now()
	_, err := New(now, now.Add(-time.Hour), GranularityDaily)
	assert.Error(t, err)
}

func TestNewRejectsUnknownGranularity(t *testing.T) {
	now := time.Now()
	_, err := New(now.Add(-time.Hour), now, Granularity("quarterly"))
	assert.Error(t, err)
}

func TestNewDefaultsToDaily(t *testing.T) {
	now := time.Now()
	tf := mustFrame(t, now.Add(-time.Hour), now, "")
	assert.Equal(t, GranularityDaily, tf.Granularity)
}

func TestDefaultWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tf := Default(now)

	assert.Equal(t, GranularityDaily, tf.Granularity)
	assert.Equal(t, now, tf.To)
	assert.Equal(t, now.AddDate(0, 0, -30), tf.From)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, GranularityDaily, g)

	g, err = ParseGranularity("hourly")
	require.NoError(t, err)
	assert.Equal(t, GranularityHourly, g)

	_, err = ParseGranularity("fortnightly")
	assert.Error(t, err)
}

func TestSQLiteGroupExpression(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	hourly := mustFrame(t, from, to, GranularityHourly)
	assert.Equal(t, "strftime('%Y-%m-%d %H:00', timestamp)", hourly.SQLiteGroupExpression("timestamp"))

	daily := mustFrame(t, from, to, GranularityDaily)
	assert.Equal(t, "strftime('%Y-%m-%d', timestamp)", daily.SQLiteGroupExpression("timestamp"))

	monthly := mustFrame(t, from, to, GranularityMonthly)
	assert.Equal(t, "strftime('%Y-%m', timestamp)", monthly.SQLiteGroupExpression("timestamp"))
}

func TestBucketKeyZeroPadding(t *testing.T) {
	from := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	tf := mustFrame(t, from, from.Add(time.Hour), GranularityHourly)

	// Single-digit hours must render zero-padded so string sort equals
	// chronological sort.
	key := tf.BucketKey(time.Date(2026, 2, 3, 7, 42, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-03 07:00", key)
}

func TestBucketKeyWeeklySnapsToMonday(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tf := mustFrame(t, from, from.AddDate(0, 0, 14), GranularityWeekly)

	// 2026-02-04 is a Wednesday; its week starts Monday 2026-02-02.
	key := tf.BucketKey(time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-02", key)

	// Sunday belongs to the Monday-started week that precedes it.
	key = tf.BucketKey(time.Date(2026, 2, 8, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-02", key)
}

func TestBucketKeysDaily(t *testing.T) {
	from := time.Date(2026, 1, 30, 8, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 2, 16, 0, 0, 0, time.UTC)
	tf := mustFrame(t, from, to, GranularityDaily)

	assert.Equal(t, []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02"}, tf.BucketKeys())
}

func TestBucketKeysHourly(t *testing.T) {
	from := time.Date(2026, 1, 1, 22, 15, 0, 0, time.UTC)
	to := time.Date(2026, 1, 2, 1, 0, 0, 0, time.UTC)
	tf := mustFrame(t, from, to, GranularityHourly)

	assert.Equal(t, []string{
		"2026-01-01 22:00",
		"2026-01-01 23:00",
		"2026-01-02 00:00",
		"2026-01-02 01:00",
	}, tf.BucketKeys())
}

func TestBucketKeysCoverLongHourlyRange(t *testing.T) {
	// 60 days of hourly buckets is 1441 points; the grid must reach the
	// final hour of the window instead of stopping short.
	from := time.Date(2025, 12, 13, 15, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 60)
	tf := mustFrame(t, from, to, GranularityHourly)

	keys := tf.BucketKeys()
	require.Len(t, keys, 1441)
	assert.Equal(t, "2025-12-13 15:00", keys[0])
	assert.Equal(t, "2026-02-11 15:00", keys[len(keys)-1])
}

func TestNewRejectsOversizedRange(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := New(from, from.AddDate(0, 0, 90), GranularityHourly)
	assert.ErrorContains(t, err, "buckets")

	// The same range is fine at a coarser granularity.
	_, err = New(from, from.AddDate(0, 0, 90), GranularityDaily)
	assert.NoError(t, err)
}
