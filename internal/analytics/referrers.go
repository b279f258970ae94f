package analytics

import (
	"net/url"
	"strings"
)

// DirectReferrer is the key for clicks that arrived without a referrer.
const DirectReferrer = "direct"

// ReferrerStat is one row of the referrer breakdown.
type ReferrerStat struct {
	Referrer string `json:"referrer"`
	Clicks   int    `json:"clicks"`
}

// NormalizeReferrer reduces a raw referrer to the key clicks are grouped by.
// Blank referrers become DirectReferrer. URLs reduce to their hostname without
// a leading "www."; anything unparseable keeps its trimmed text, minus "www.".
// Case is preserved, so "Google.com" and "google.com" stay distinct.
func NormalizeReferrer(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return DirectReferrer
	}

	if u, err := url.Parse(referrer); err == nil {
		if host := u.Hostname(); host != "" {
			return strings.TrimPrefix(host, "www.")
		}
	}

	return strings.TrimPrefix(referrer, "www.")
}

// AggregateReferrers counts clicks per normalized referrer, most clicks first.
func AggregateReferrers(entries []ClickEntry) []ReferrerStat {
	counts := tally(len(entries), func(i int) string {
		return NormalizeReferrer(entries[i].Referrer)
	})

	stats := make([]ReferrerStat, 0, len(counts))
	for _, c := range counts {
		stats = append(stats, ReferrerStat{Referrer: c.key, Clicks: c.count})
	}
	return stats
}
