package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shortn/internal/analytics"
)

func TestExportFilter(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 7, d, 12, 0, 0, 0, time.UTC) }

	clicks := []analytics.ClickEntry{
		{Timestamp: day(1), QueryParams: map[string]string{"utm_source": "google", "utm_medium": "cpc"}},
		{Timestamp: day(2), QueryParams: map[string]string{"utm_source": "newsletter", "utm_medium": "email"}},
		{Timestamp: day(3), QueryParams: map[string]string{"utm_source": "google", "utm_medium": "organic", "utm_term": "shoes"}},
		{Timestamp: day(4)},
	}

	tests := []struct {
		name     string
		filter   analytics.ExportFilter
		expected []time.Time
	}{
		{
			name:     "empty filter keeps everything",
			filter:   analytics.ExportFilter{},
			expected: []time.Time{day(1), day(2), day(3), day(4)},
		},
		{
			name:     "date range is inclusive",
			filter:   analytics.ExportFilter{From: day(2), To: day(3)},
			expected: []time.Time{day(2), day(3)},
		},
		{
			name:     "sources",
			filter:   analytics.ExportFilter{Sources: []string{"google"}},
			expected: []time.Time{day(1), day(3)},
		},
		{
			name:     "sources and mediums combine",
			filter:   analytics.ExportFilter{Sources: []string{"google"}, Mediums: []string{"organic", "email"}},
			expected: []time.Time{day(3)},
		},
		{
			name:     "terms",
			filter:   analytics.ExportFilter{Terms: []string{"shoes"}},
			expected: []time.Time{day(3)},
		},
		{
			name:     "untagged clicks via (none)",
			filter:   analytics.ExportFilter{Sources: []string{"(none)"}},
			expected: []time.Time{day(4)},
		},
		{
			name:     "contents with no match",
			filter:   analytics.ExportFilter{Contents: []string{"banner"}},
			expected: []time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []time.Time{}
			for _, e := range clicks {
				if tt.filter.Matches(e) {
					got = append(got, e.Timestamp)
				}
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
