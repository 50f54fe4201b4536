// Package timeframe models the reporting window of an analytics query: a
// [from, to] range plus a bucket granularity, with helpers to build the
// SQLite grouping expression and to zero-fill the resulting time series.
package timeframe

import (
	"fmt"
	"time"
)

// Granularity is the bucket size used when grouping events over time.
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// DefaultRangeDays is the reporting window used when the caller supplies no
// explicit range.
const DefaultRangeDays = 30

// MaxSeriesPoints caps how many buckets one frame may span. Ranges that
// would produce more are rejected at construction, so a series is never
// silently truncated mid-window.
const MaxSeriesPoints = 1500

// DateStat is one point of a bucketed time series. Date carries the bucket
// key in the granularity's canonical format.
type DateStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TimeFrame is a half-open-ish reporting window: events with
// From <= timestamp <= To fall inside it.
type TimeFrame struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
}

// New builds a TimeFrame, validating the range and granularity.
func New(from, to time.Time, granularity Granularity) (*TimeFrame, error) {
	if from.After(to) {
		return nil, fmt.Errorf("invalid time frame: from %s is after to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	switch granularity {
	case GranularityHourly, GranularityDaily, GranularityWeekly, GranularityMonthly:
	case "":
		granularity = GranularityDaily
	default:
		return nil, fmt.Errorf("unknown granularity: %s", granularity)
	}

	tf := &TimeFrame{From: from.UTC(), To: to.UTC(), Granularity: granularity}
	if tf.bucketCount() > MaxSeriesPoints {
		return nil, fmt.Errorf("time frame spans more than %d %s buckets, narrow the range or coarsen the granularity", MaxSeriesPoints, granularity)
	}
	return tf, nil
}

// Default returns the standard reporting window: the last DefaultRangeDays
// days up to now, bucketed daily.
func Default(now time.Time) *TimeFrame {
	now = now.UTC()
	return &TimeFrame{
		From:        now.AddDate(0, 0, -DefaultRangeDays),
		To:          now,
		Granularity: GranularityDaily,
	}
}

// ParseGranularity maps a query string value to a Granularity, defaulting to
// daily for empty input.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "":
		return GranularityDaily, nil
	case string(GranularityHourly):
		return GranularityHourly, nil
	case string(GranularityDaily):
		return GranularityDaily, nil
	case string(GranularityWeekly):
		return GranularityWeekly, nil
	case string(GranularityMonthly):
		return GranularityMonthly, nil
	default:
		return "", fmt.Errorf("unknown granularity: %s", s)
	}
}

// SQLiteGroupExpression returns the strftime expression that maps the given
// timestamp column onto this frame's bucket key. Weekly buckets collapse to
// the Monday that starts the week so keys stay sortable as plain strings.
func (tf *TimeFrame) SQLiteGroupExpression(column string) string {
	switch tf.Granularity {
	case GranularityHourly:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:00', %s)", column)
	case GranularityWeekly:
		return fmt.Sprintf("date(%s, 'start of day', '-' || ((strftime('%%w', %s) + 6) %% 7) || ' days')", column, column)
	case GranularityMonthly:
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	default:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column)
	}
}

// BucketKey formats a time into this frame's canonical bucket key. Keys use
// zero-padded components so lexical order equals chronological order.
func (tf *TimeFrame) BucketKey(t time.Time) string {
	t = t.UTC()
	switch tf.Granularity {
	case GranularityHourly:
		return t.Format("2006-01-02 15:00")
	case GranularityWeekly:
		return truncateToBucket(t, GranularityWeekly).Format("2006-01-02")
	case GranularityMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// BucketKeys enumerates every bucket key covered by the frame, in order.
// Frames built through New never exceed MaxSeriesPoints, so the full grid
// is always enumerated.
func (tf *TimeFrame) BucketKeys() []string {
	keys := []string{}
	current := truncateToBucket(tf.From, tf.Granularity)
	end := truncateToBucket(tf.To, tf.Granularity)

	for !current.After(end) && len(keys) <= MaxSeriesPoints {
		keys = append(keys, tf.BucketKey(current))
		current = tf.advance(current)
	}

	return keys
}

// bucketCount counts the buckets the frame spans, stopping early once the
// count passes MaxSeriesPoints.
func (tf *TimeFrame) bucketCount() int {
	count := 0
	current := truncateToBucket(tf.From, tf.Granularity)
	end := truncateToBucket(tf.To, tf.Granularity)

	for !current.After(end) && count <= MaxSeriesPoints {
		count++
		current = tf.advance(current)
	}

	return count
}

func (tf *TimeFrame) advance(t time.Time) time.Time {
	switch tf.Granularity {
	case GranularityHourly:
		return t.Add(time.Hour)
	case GranularityWeekly:
		return t.AddDate(0, 0, 7)
	case GranularityMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func truncateToBucket(t time.Time, granularity Granularity) time.Time {
	utc := t.UTC()
	year, month, day := utc.Year(), utc.Month(), utc.Day()

	switch granularity {
	case GranularityHourly:
		return time.Date(year, month, day, utc.Hour(), 0, 0, 0, time.UTC)
	case GranularityWeekly:
		weekday := int(utc.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		return time.Date(year, month, day-(weekday-1), 0, 0, 0, 0, time.UTC)
	case GranularityMonthly:
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}
