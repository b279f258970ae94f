package analytics

import "strings"

// Device classes clicks are bucketed into.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"
)

// DeviceStat is the click count and share of one device class.
type DeviceStat struct {
	Device     string  `json:"device"`
	Clicks     int     `json:"clicks"`
	Percentage float64 `json:"percentage"`
}

// NormalizeDevice folds a recorded device type into one of the device classes.
func NormalizeDevice(deviceType string) string {
	switch strings.ToLower(strings.TrimSpace(deviceType)) {
	case DeviceDesktop:
		return DeviceDesktop
	case DeviceMobile, "phone", "smartphone":
		return DeviceMobile
	case DeviceTablet:
		return DeviceTablet
	default:
		return DeviceOther
	}
}

// AggregateDevices counts clicks per device class.
func AggregateDevices(entries []ClickEntry) []DeviceStat {
	counts := tally(len(entries), func(i int) string {
		return NormalizeDevice(entries[i].DeviceType)
	})

	stats := make([]DeviceStat, 0, len(counts))
	for _, c := range counts {
		stats = append(stats, DeviceStat{
			Device:     c.key,
			Clicks:     c.count,
			Percentage: percentage(c.count, len(entries)),
		})
	}
	return stats
}
