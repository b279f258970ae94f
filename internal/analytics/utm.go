package analytics

import (
	"strings"
)

// UTM query keys.
const (
	UTMSource   = "utm_source"
	UTMMedium   = "utm_medium"
	UTMCampaign = "utm_campaign"
	UTMTerm     = "utm_term"
	UTMContent  = "utm_content"
)

// UTMNone groups clicks that carry no value at a level.
const UTMNone = "(none)"

// UTMLevel names one step of the source → medium → term → content drill-down.
type UTMLevel string

const (
	UTMLevelSource  UTMLevel = "source"
	UTMLevelMedium  UTMLevel = "medium"
	UTMLevelTerm    UTMLevel = "term"
	UTMLevelContent UTMLevel = "content"
)

// UTMHierarchy is the drill-down order.
var UTMHierarchy = []UTMLevel{UTMLevelSource, UTMLevelMedium, UTMLevelTerm, UTMLevelContent}

// QueryKey returns the utm_* parameter backing the level.
func (l UTMLevel) QueryKey() string {
	return "utm_" + string(l)
}

// UTMValue returns the entry's value for key, or UTMNone when absent.
func UTMValue(e ClickEntry, key string) string {
	return orDefault(e.QueryParams[key], UTMNone)
}

// UTMTreeItem is one value at a drill-down level with its click share.
type UTMTreeItem struct {
	Value      string  `json:"value"`
	Clicks     int     `json:"clicks"`
	Percentage float64 `json:"percentage"`
}

// UTMTreeLevel is one drill-down step: the values at Level among the clicks
// matching Breadcrumb.
type UTMTreeLevel struct {
	Level      UTMLevel      `json:"level"`
	Breadcrumb []string      `json:"breadcrumb"`
	Items      []UTMTreeItem `json:"items"`
}

// DrillUTM returns the next level below path, where path holds the values
// already selected from the top of the hierarchy. Path elements past the
// term are dropped, so the deepest result lists contents under the selected
// term. The returned Breadcrumb holds the path actually applied.
func DrillUTM(entries []ClickEntry, path []string) UTMTreeLevel {
	depth := min(len(path), len(UTMHierarchy)-1)
	breadcrumb := make([]string, depth)
	for i := 0; i < depth; i++ {
		breadcrumb[i] = orDefault(path[i], UTMNone)
	}

	var matched []ClickEntry
	for _, e := range entries {
		if matchesBreadcrumb(e, breadcrumb) {
			matched = append(matched, e)
		}
	}

	level := UTMHierarchy[depth]
	counts := tally(len(matched), func(i int) string {
		return UTMValue(matched[i], level.QueryKey())
	})

	items := make([]UTMTreeItem, 0, len(counts))
	for _, c := range counts {
		items = append(items, UTMTreeItem{
			Value:      c.key,
			Clicks:     c.count,
			Percentage: percentage(c.count, len(matched)),
		})
	}

	return UTMTreeLevel{Level: level, Breadcrumb: breadcrumb, Items: items}
}

func matchesBreadcrumb(e ClickEntry, breadcrumb []string) bool {
	for i, value := range breadcrumb {
		if UTMValue(e, UTMHierarchy[i].QueryKey()) != value {
			return false
		}
	}
	return true
}

// ParseUTMPath splits a comma separated breadcrumb, dropping surrounding blanks.
func ParseUTMPath(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	path := make([]string, 0, len(parts))
	for _, p := range parts {
		path = append(path, strings.TrimSpace(p))
	}
	return path
}

// UTMTreeNode is a node of the full UTM hierarchy.
type UTMTreeNode struct {
	Level    UTMLevel       `json:"level"`
	Value    string         `json:"value"`
	Clicks   int            `json:"clicks"`
	Children []*UTMTreeNode `json:"children,omitempty"`
}

// BuildUTMTree nests clicks source → medium → term → content, each level
// ordered by clicks descending.
func BuildUTMTree(entries []ClickEntry) []*UTMTreeNode {
	return buildUTMLevel(entries, 0)
}

func buildUTMLevel(entries []ClickEntry, depth int) []*UTMTreeNode {
	if depth >= len(UTMHierarchy) || len(entries) == 0 {
		return nil
	}
	level := UTMHierarchy[depth]

	groups := make(map[string][]ClickEntry)
	counts := tally(len(entries), func(i int) string {
		value := UTMValue(entries[i], level.QueryKey())
		groups[value] = append(groups[value], entries[i])
		return value
	})

	nodes := make([]*UTMTreeNode, 0, len(counts))
	for _, c := range counts {
		nodes = append(nodes, &UTMTreeNode{
			Level:    level,
			Value:    c.key,
			Clicks:   c.count,
			Children: buildUTMLevel(groups[c.key], depth+1),
		})
	}
	return nodes
}
