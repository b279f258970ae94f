package analytics_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortn/internal/analytics"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now(loc *time.Location) time.Time {
	return c.now.In(loc)
}

func TestBucketLabels(t *testing.T) {
	tests := []struct {
		size     int
		expected []string
	}{
		{6, []string{"00:00-06:00", "06:00-12:00", "12:00-18:00", "18:00-24:00"}},
		{0, []string{"00:00-06:00", "06:00-12:00", "12:00-18:00", "18:00-24:00"}},
		{-3, []string{"00:00-06:00", "06:00-12:00", "12:00-18:00", "18:00-24:00"}},
		{5, []string{"00:00-05:00", "05:00-10:00", "10:00-15:00", "15:00-20:00", "20:00-24:00"}},
		{24, []string{"00:00-24:00"}},
		{48, []string{"00:00-24:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.expected[0], func(t *testing.T) {
			assert.Equal(t, tt.expected, analytics.BucketLabels(tt.size))
		})
	}

	assert.Len(t, analytics.BucketLabels(1), 24)
	assert.Equal(t, "23:00-24:00", analytics.BucketLabels(1)[23])
}

func TestAggregateTimeBuckets(t *testing.T) {
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 3, 23, 59, 59, 0, time.UTC)

	entries := []analytics.ClickEntry{
		{Timestamp: time.Date(2024, 7, 1, 0, 15, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 7, 1, 5, 59, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 7, 3, 23, 0, 0, 0, time.UTC)},
		// Outside the range
		{Timestamp: time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)},
	}

	result := analytics.AggregateTimeBuckets(entries, analytics.TimeBucketOptions{
		BucketSizeHours: 6,
		From:            from,
		To:              to,
	})

	require.Len(t, result.Rows, 3)
	assert.Equal(t, "2024-07-01", result.Rows[0].Date)
	assert.Equal(t, "2024-07-02", result.Rows[1].Date)
	assert.Equal(t, "2024-07-03", result.Rows[2].Date)

	assert.Equal(t, map[string]int{
		"00:00-06:00": 2, "06:00-12:00": 0, "12:00-18:00": 1, "18:00-24:00": 0,
	}, result.Rows[0].Counts)
	assert.Equal(t, map[string]int{
		"00:00-06:00": 0, "06:00-12:00": 0, "12:00-18:00": 0, "18:00-24:00": 0,
	}, result.Rows[1].Counts)
	assert.Equal(t, 1, result.Rows[2].Counts["18:00-24:00"])
}

func TestAggregateTimeBucketsIsDense(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	// A single click in a 60 day window still yields a row per day.
	entries := []analytics.ClickEntry{{Timestamp: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)}}

	result := analytics.AggregateTimeBuckets(entries, analytics.TimeBucketOptions{From: from, To: to})

	require.Len(t, result.Rows, 60)
	for _, row := range result.Rows {
		assert.Len(t, row.Counts, len(result.Labels))
		for _, label := range result.Labels {
			_, ok := row.Counts[label]
			assert.True(t, ok, "row %s missing %s", row.Date, label)
		}
	}
}

func TestAggregateTimeBucketsDefaultWindow(t *testing.T) {
	clock := fixedClock{now: time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)}

	result := analytics.AggregateTimeBuckets(nil, analytics.TimeBucketOptions{Clock: clock})

	// May 1 through July 15 inclusive.
	require.Len(t, result.Rows, 31+30+15)
	assert.Equal(t, "2024-05-01", result.Rows[0].Date)
	assert.Equal(t, "2024-07-15", result.Rows[len(result.Rows)-1].Date)
	assert.Equal(t, 6, result.BucketSizeHours)
}

func TestAggregateTimeBucketsUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	from := time.Date(2024, 7, 2, 0, 0, 0, 0, tokyo)
	to := time.Date(2024, 7, 2, 23, 59, 59, 0, tokyo)

	// 16:30 UTC on July 1 is 01:30 on July 2 in Tokyo.
	entries := []analytics.ClickEntry{{Timestamp: time.Date(2024, 7, 1, 16, 30, 0, 0, time.UTC)}}

	result := analytics.AggregateTimeBuckets(entries, analytics.TimeBucketOptions{
		BucketSizeHours: 12,
		From:            from,
		To:              to,
		Location:        tokyo,
	})

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "2024-07-02", result.Rows[0].Date)
	assert.Equal(t, 1, result.Rows[0].Counts["00:00-12:00"])
}

func TestAggregateTimeBucketsInvertedRange(t *testing.T) {
	result := analytics.AggregateTimeBuckets(nil, analytics.TimeBucketOptions{
		From: time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.Empty(t, result.Rows)
	assert.Len(t, result.Labels, 4)
}

func TestTimeBucketRowMarshalsFlat(t *testing.T) {
	result := analytics.AggregateTimeBuckets(
		[]analytics.ClickEntry{{Timestamp: time.Date(2024, 7, 1, 7, 0, 0, 0, time.UTC)}},
		analytics.TimeBucketOptions{
			BucketSizeHours: 12,
			From:            time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			To:              time.Date(2024, 7, 1, 23, 59, 59, 0, time.UTC),
		},
	)

	data, err := json.Marshal(result.Rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-07-01","00:00-12:00":1,"12:00-24:00":0}`, string(data))
}
