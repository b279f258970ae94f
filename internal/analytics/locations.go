package analytics

// LocationLevel selects which geographic field clicks are grouped by.
type LocationLevel string

const (
	LocationLevelCountry LocationLevel = "country"
	LocationLevelRegion  LocationLevel = "region"
	LocationLevelCity    LocationLevel = "city"
)

// Sentinels used when a click carries no value at the requested level.
const (
	UnknownCountry = "Unknown Country"
	UnknownRegion  = "Unknown Region"
	UnknownCity    = "Unknown City"
)

// LocationStat is one row of the location breakdown.
type LocationStat struct {
	Location   string  `json:"location"`
	Clicks     int     `json:"clicks"`
	Percentage float64 `json:"percentage"`
}

// ParseLocationLevel maps a query value to a level, defaulting to country.
func ParseLocationLevel(s string) LocationLevel {
	switch LocationLevel(s) {
	case LocationLevelRegion:
		return LocationLevelRegion
	case LocationLevelCity:
		return LocationLevelCity
	default:
		return LocationLevelCountry
	}
}

func (l LocationLevel) valueOf(e ClickEntry) string {
	switch l {
	case LocationLevelRegion:
		return orDefault(e.Region, UnknownRegion)
	case LocationLevelCity:
		return orDefault(e.City, UnknownCity)
	default:
		return orDefault(e.Country, UnknownCountry)
	}
}

// AggregateLocations counts clicks per location at the given level.
// Country values are expected to be display names already.
func AggregateLocations(entries []ClickEntry, level LocationLevel) []LocationStat {
	counts := tally(len(entries), func(i int) string {
		return level.valueOf(entries[i])
	})

	stats := make([]LocationStat, 0, len(counts))
	for _, c := range counts {
		stats = append(stats, LocationStat{
			Location:   c.key,
			Clicks:     c.count,
			Percentage: percentage(c.count, len(entries)),
		})
	}
	return stats
}
