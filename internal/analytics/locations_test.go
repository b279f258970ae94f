package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shortn/internal/analytics"
)

func TestAggregateLocations(t *testing.T) {
	t.Run("city level with unknowns", func(t *testing.T) {
		entries := []analytics.ClickEntry{
			{City: "Paris"},
			{City: ""},
			{},
		}

		result := analytics.AggregateLocations(entries, analytics.LocationLevelCity)

		assert.Equal(t, []analytics.LocationStat{
			{Location: "Unknown City", Clicks: 2, Percentage: 66.67},
			{Location: "Paris", Clicks: 1, Percentage: 33.33},
		}, result)
	})

	tests := []struct {
		name     string
		level    analytics.LocationLevel
		entries  []analytics.ClickEntry
		expected []analytics.LocationStat
	}{
		{
			name:  "country level",
			level: analytics.LocationLevelCountry,
			entries: []analytics.ClickEntry{
				{Country: "France"}, {Country: "Germany"}, {Country: "France"}, {Country: " "},
			},
			expected: []analytics.LocationStat{
				{Location: "France", Clicks: 2, Percentage: 50},
				{Location: "Germany", Clicks: 1, Percentage: 25},
				{Location: "Unknown Country", Clicks: 1, Percentage: 25},
			},
		},
		{
			name:  "region level",
			level: analytics.LocationLevelRegion,
			entries: []analytics.ClickEntry{
				{Region: "Bavaria", City: "Munich"}, {City: "Lyon"},
			},
			expected: []analytics.LocationStat{
				{Location: "Bavaria", Clicks: 1, Percentage: 50},
				{Location: "Unknown Region", Clicks: 1, Percentage: 50},
			},
		},
		{
			name:     "empty input",
			level:    analytics.LocationLevelCity,
			entries:  nil,
			expected: []analytics.LocationStat{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, analytics.AggregateLocations(tt.entries, tt.level))
		})
	}
}

func TestAggregateLocationsPercentagesSumTo100(t *testing.T) {
	entries := []analytics.ClickEntry{
		{Country: "A"}, {Country: "B"}, {Country: "C"},
		{Country: "A"}, {Country: "D"}, {Country: "E"}, {Country: "F"},
	}

	result := analytics.AggregateLocations(entries, analytics.LocationLevelCountry)

	var clicks int
	var pct float64
	for _, s := range result {
		clicks += s.Clicks
		pct += s.Percentage
	}
	assert.Equal(t, len(entries), clicks)
	assert.InDelta(t, 100.0, pct, 0.05)
}

func TestParseLocationLevel(t *testing.T) {
	assert.Equal(t, analytics.LocationLevelCity, analytics.ParseLocationLevel("city"))
	assert.Equal(t, analytics.LocationLevelRegion, analytics.ParseLocationLevel("region"))
	assert.Equal(t, analytics.LocationLevelCountry, analytics.ParseLocationLevel("country"))
	assert.Equal(t, analytics.LocationLevelCountry, analytics.ParseLocationLevel(""))
	assert.Equal(t, analytics.LocationLevelCountry, analytics.ParseLocationLevel("planet"))
}

func TestAggregateDevices(t *testing.T) {
	entries := []analytics.ClickEntry{
		{DeviceType: "desktop"}, {DeviceType: "Mobile"}, {DeviceType: "tablet"},
		{DeviceType: "desktop"}, {}, {DeviceType: "smartphone"},
	}

	result := analytics.AggregateDevices(entries)

	assert.Equal(t, []analytics.DeviceStat{
		{Device: "desktop", Clicks: 2, Percentage: 33.33},
		{Device: "mobile", Clicks: 2, Percentage: 33.33},
		{Device: "tablet", Clicks: 1, Percentage: 16.67},
		{Device: "other", Clicks: 1, Percentage: 16.67},
	}, result)
}
