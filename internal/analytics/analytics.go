// Package analytics turns recorded clicks into the aggregates the dashboard
// charts: referrers, locations, devices, time-of-day buckets and the UTM tree.
//
// The package is organized into focused modules:
//   - analytics.go: ClickEntry and the shared counting helpers
//   - referrers.go: referrer hostname normalization and counts
//   - locations.go: country/region/city counts with percentages
//   - devices.go: coarse device class counts
//   - timebuckets.go: dense per-day time-of-day histograms
//   - utm.go: UTM hierarchy drill-down and full tree
//
// Every aggregator is pure: it never mutates its input, never returns an
// error, and degrades missing fields to sentinel keys.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"
)

// ClickEntry is one recorded visit or scan of a short link.
// Empty strings mean the field was not captured.
type ClickEntry struct {
	Timestamp   time.Time         `json:"timestamp"`
	Referrer    string            `json:"referrer,omitempty"`
	Country     string            `json:"country,omitempty"`
	Region      string            `json:"region,omitempty"`
	City        string            `json:"city,omitempty"`
	DeviceType  string            `json:"deviceType,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
}

type keyCount struct {
	key   string
	count int
}

// tally counts keys in first-seen order and sorts by count descending.
// Ties keep their first-seen order.
func tally(n int, keyAt func(i int) string) []keyCount {
	index := make(map[string]int)
	var counts []keyCount

	for i := 0; i < n; i++ {
		key := keyAt(i)
		if pos, ok := index[key]; ok {
			counts[pos].count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, keyCount{key: key, count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	return counts
}

// percentage is 100*count/total rounded to two decimals, 0 for an empty total.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)*10000/float64(total)) / 100
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
