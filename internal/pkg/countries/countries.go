// Package countries resolves ISO-3166 alpha codes to display names.
package countries

import (
	"strings"
	"sync"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	query     *gountries.Query
	queryOnce sync.Once
)

func getQuery() *gountries.Query {
	queryOnce.Do(func() {
		query = gountries.New()
	})
	return query
}

// DisplayName returns the common English name for an alpha-2 or alpha-3 code.
// Unknown codes are upper-cased as-is; empty input stays empty.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	country, err := getQuery().FindCountryByAlpha(code)
	if err != nil {
		return cases.Upper(language.AmericanEnglish).String(code)
	}
	return country.Name.Common
}
