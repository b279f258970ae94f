package analytics

import (
	"slices"
	"time"
)

// ExportFilter selects the clicks included in a campaign export.
// Zero times and empty slices place no restriction.
type ExportFilter struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Sources  []string  `json:"sources,omitempty"`
	Mediums  []string  `json:"mediums,omitempty"`
	Terms    []string  `json:"terms,omitempty"`
	Contents []string  `json:"contents,omitempty"`
}

// Matches reports whether the click passes every restriction of the filter.
// UTM lists may contain UTMNone to select clicks without that tag.
func (f ExportFilter) Matches(e ClickEntry) bool {
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return allowed(f.Sources, UTMValue(e, UTMSource)) &&
		allowed(f.Mediums, UTMValue(e, UTMMedium)) &&
		allowed(f.Terms, UTMValue(e, UTMTerm)) &&
		allowed(f.Contents, UTMValue(e, UTMContent))
}

func allowed(values []string, value string) bool {
	return len(values) == 0 || slices.Contains(values, value)
}
