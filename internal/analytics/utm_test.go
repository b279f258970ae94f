package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortn/internal/analytics"
)

func utmClick(source, medium, term, content string) analytics.ClickEntry {
	params := map[string]string{}
	if source != "" {
		params[analytics.UTMSource] = source
	}
	if medium != "" {
		params[analytics.UTMMedium] = medium
	}
	if term != "" {
		params[analytics.UTMTerm] = term
	}
	if content != "" {
		params[analytics.UTMContent] = content
	}
	return analytics.ClickEntry{QueryParams: params}
}

func campaignClicks() []analytics.ClickEntry {
	return []analytics.ClickEntry{
		utmClick("google", "cpc", "shoes", "banner"),
		utmClick("google", "cpc", "shoes", "text"),
		utmClick("google", "cpc", "boots", ""),
		utmClick("google", "organic", "", ""),
		utmClick("newsletter", "email", "", "footer"),
		{},
	}
}

func TestDrillUTM(t *testing.T) {
	tests := []struct {
		name               string
		path               []string
		expectedLevel      analytics.UTMLevel
		expectedBreadcrumb []string
		expectedItems      []analytics.UTMTreeItem
	}{
		{
			name:               "top level lists sources",
			path:               nil,
			expectedLevel:      analytics.UTMLevelSource,
			expectedBreadcrumb: []string{},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "google", Clicks: 4, Percentage: 66.67},
				{Value: "newsletter", Clicks: 1, Percentage: 16.67},
				{Value: "(none)", Clicks: 1, Percentage: 16.67},
			},
		},
		{
			name:               "source selected lists mediums",
			path:               []string{"google"},
			expectedLevel:      analytics.UTMLevelMedium,
			expectedBreadcrumb: []string{"google"},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "cpc", Clicks: 3, Percentage: 75},
				{Value: "organic", Clicks: 1, Percentage: 25},
			},
		},
		{
			name:               "medium selected lists terms",
			path:               []string{"google", "cpc"},
			expectedLevel:      analytics.UTMLevelTerm,
			expectedBreadcrumb: []string{"google", "cpc"},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "shoes", Clicks: 2, Percentage: 66.67},
				{Value: "boots", Clicks: 1, Percentage: 33.33},
			},
		},
		{
			name:               "term selected lists contents",
			path:               []string{"google", "cpc", "shoes"},
			expectedLevel:      analytics.UTMLevelContent,
			expectedBreadcrumb: []string{"google", "cpc", "shoes"},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "banner", Clicks: 1, Percentage: 50},
				{Value: "text", Clicks: 1, Percentage: 50},
			},
		},
		{
			name:               "full path stays on contents",
			path:               []string{"google", "cpc", "shoes", "banner"},
			expectedLevel:      analytics.UTMLevelContent,
			expectedBreadcrumb: []string{"google", "cpc", "shoes"},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "banner", Clicks: 1, Percentage: 50},
				{Value: "text", Clicks: 1, Percentage: 50},
			},
		},
		{
			name:               "path longer than the hierarchy is truncated",
			path:               []string{"google", "cpc", "shoes", "text", "extra"},
			expectedLevel:      analytics.UTMLevelContent,
			expectedBreadcrumb: []string{"google", "cpc", "shoes"},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "banner", Clicks: 1, Percentage: 50},
				{Value: "text", Clicks: 1, Percentage: 50},
			},
		},
		{
			name:               "missing values drill through (none)",
			path:               []string{"google", "organic"},
			expectedLevel:      analytics.UTMLevelTerm,
			expectedBreadcrumb: []string{"google", "organic"},
			expectedItems: []analytics.UTMTreeItem{
				{Value: "(none)", Clicks: 1, Percentage: 100},
			},
		},
		{
			name:               "unknown selection yields no items",
			path:               []string{"bing"},
			expectedLevel:      analytics.UTMLevelMedium,
			expectedBreadcrumb: []string{"bing"},
			expectedItems:      []analytics.UTMTreeItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analytics.DrillUTM(campaignClicks(), tt.path)
			assert.Equal(t, tt.expectedLevel, result.Level)
			assert.Equal(t, tt.expectedBreadcrumb, result.Breadcrumb)
			assert.Equal(t, tt.expectedItems, result.Items)
		})
	}
}

func TestDrillUTMEmptyInput(t *testing.T) {
	result := analytics.DrillUTM(nil, nil)
	assert.Equal(t, analytics.UTMLevelSource, result.Level)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
}

func TestParseUTMPath(t *testing.T) {
	assert.Nil(t, analytics.ParseUTMPath(""))
	assert.Nil(t, analytics.ParseUTMPath("  "))
	assert.Equal(t, []string{"google", "cpc"}, analytics.ParseUTMPath("google, cpc"))
	assert.Equal(t, []string{"google", "(none)"}, analytics.ParseUTMPath("google,(none)"))
}

func TestBuildUTMTree(t *testing.T) {
	tree := analytics.BuildUTMTree(campaignClicks())

	require.Len(t, tree, 3)
	google := tree[0]
	assert.Equal(t, "google", google.Value)
	assert.Equal(t, 4, google.Clicks)
	assert.Equal(t, analytics.UTMLevelSource, google.Level)

	require.Len(t, google.Children, 2)
	cpc := google.Children[0]
	assert.Equal(t, "cpc", cpc.Value)
	assert.Equal(t, 3, cpc.Clicks)

	require.Len(t, cpc.Children, 2)
	shoes := cpc.Children[0]
	assert.Equal(t, "shoes", shoes.Value)
	require.Len(t, shoes.Children, 2)
	assert.Equal(t, analytics.UTMLevelContent, shoes.Children[0].Level)
	assert.Empty(t, shoes.Children[0].Children)

	total := 0
	for _, n := range tree {
		total += n.Clicks
	}
	assert.Equal(t, len(campaignClicks()), total)
}

func TestBuildUTMTreeEmpty(t *testing.T) {
	assert.Empty(t, analytics.BuildUTMTree(nil))
}
