package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"shortn/internal/timeframe"
)

// DefaultBucketSizeHours is the bucket width used when none is requested.
const DefaultBucketSizeHours = 6

// TimeBucketOptions configures AggregateTimeBuckets. Zero values pick the
// defaults: 6 hour buckets, the DefaultWindow range, UTC and the system clock.
type TimeBucketOptions struct {
	BucketSizeHours int
	From            time.Time
	To              time.Time
	Location        *time.Location
	Clock           timeframe.TimeProvider
}

// TimeBucketRow holds one calendar day of bucket counts.
// It marshals flat, as {"date": "2024-07-01", "00:00-06:00": 3, ...}.
type TimeBucketRow struct {
	Date   string
	Counts map[string]int
	labels []string
}

func (r TimeBucketRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	date, err := json.Marshal(r.Date)
	if err != nil {
		return nil, err
	}
	buf.Write(date)

	for _, label := range r.labels {
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", r.Counts[label])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TimeBuckets is the dense day-by-bucket histogram.
type TimeBuckets struct {
	BucketSizeHours int             `json:"bucketSizeHours"`
	Labels          []string        `json:"labels"`
	Rows            []TimeBucketRow `json:"rows"`
}

// BucketLabels returns the "HH:00-HH:00" labels covering one day.
func BucketLabels(bucketSizeHours int) []string {
	if bucketSizeHours <= 0 {
		bucketSizeHours = DefaultBucketSizeHours
	}
	bucketsPerDay := (24 + bucketSizeHours - 1) / bucketSizeHours

	labels := make([]string, 0, bucketsPerDay)
	for i := 0; i < bucketsPerDay; i++ {
		start := i * bucketSizeHours
		end := min(start+bucketSizeHours, 24)
		labels = append(labels, fmt.Sprintf("%02d:00-%02d:00", start, end))
	}
	return labels
}

// AggregateTimeBuckets histograms clicks by calendar day and hour-of-day bucket.
// Every day in the range gets a row with every label, zero filled.
func AggregateTimeBuckets(entries []ClickEntry, opts TimeBucketOptions) TimeBuckets {
	size := opts.BucketSizeHours
	if size <= 0 {
		size = DefaultBucketSizeHours
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := opts.Clock
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}

	from, to := opts.From, opts.To
	if from.IsZero() || to.IsZero() {
		defaultFrom, defaultTo := timeframe.DefaultWindow(clock.Now(loc))
		if from.IsZero() {
			from = defaultFrom
		}
		if to.IsZero() {
			to = defaultTo
		}
	}

	labels := BucketLabels(size)
	result := TimeBuckets{BucketSizeHours: size, Labels: labels, Rows: []TimeBucketRow{}}

	tf, err := timeframe.NewTimeFrame(from, to, loc)
	if err != nil {
		return result
	}

	counts := make(map[string]map[string]int)
	for _, e := range entries {
		if !tf.Contains(e.Timestamp) {
			continue
		}
		day := tf.DayKey(e.Timestamp)
		label := labels[e.Timestamp.In(loc).Hour()/size]
		if counts[day] == nil {
			counts[day] = make(map[string]int)
		}
		counts[day][label]++
	}

	for _, day := range tf.Days() {
		row := TimeBucketRow{Date: day, Counts: make(map[string]int, len(labels)), labels: labels}
		for _, label := range labels {
			row.Counts[label] = counts[day][label]
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}
