package clicks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"shortn/internal/analytics"
)

// ClickFilters narrows a click listing. Zero values place no restriction,
// except that one of LinkID or CampaignID is required.
type ClickFilters struct {
	LinkID     uint
	CampaignID uint
	From       time.Time
	To         time.Time
}

// ListClicks returns the clicks of a link or campaign in chronological order.
func ListClicks(db *gorm.DB, filters ClickFilters) ([]Click, error) {
	query := db.Model(&Click{})
	switch {
	case filters.LinkID != 0:
		query = query.Where("link_id = ?", filters.LinkID)
	case filters.CampaignID != 0:
		query = query.Where("campaign_id = ?", filters.CampaignID)
	default:
		return nil, fmt.Errorf("link or campaign filter is required")
	}

	if !filters.From.IsZero() {
		query = query.Where("timestamp >= ?", filters.From.UTC())
	}
	if !filters.To.IsZero() {
		query = query.Where("timestamp <= ?", filters.To.UTC())
	}

	var results []Click
	if err := query.Order("timestamp ASC").Order("id ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	return results, nil
}

// Entry converts a stored click into the shape the aggregators consume.
func (c Click) Entry() analytics.ClickEntry {
	return analytics.ClickEntry{
		Timestamp:   c.Timestamp,
		Referrer:    c.Referrer,
		Country:     c.Country,
		Region:      c.Region,
		City:        c.City,
		DeviceType:  c.DeviceType,
		QueryParams: c.Params(),
	}
}

// Params decodes the stored query parameters, falling back to the UTM columns
// for rows without a JSON payload.
func (c Click) Params() map[string]string {
	params := make(map[string]string)
	if c.QueryParams != "" {
		if err := json.Unmarshal([]byte(c.QueryParams), &params); err == nil {
			return params
		}
	}

	for key, value := range map[string]string{
		analytics.UTMSource:   c.UTMSource,
		analytics.UTMMedium:   c.UTMMedium,
		analytics.UTMCampaign: c.UTMCampaign,
		analytics.UTMTerm:     c.UTMTerm,
		analytics.UTMContent:  c.UTMContent,
	} {
		if value != "" {
			params[key] = value
		}
	}
	return params
}

// Entries converts clicks for aggregation, preserving order.
func Entries(clicks []Click) []analytics.ClickEntry {
	return lo.Map(clicks, func(c Click, _ int) analytics.ClickEntry {
		return c.Entry()
	})
}

// UniqueVisitors counts distinct visitor hashes.
func UniqueVisitors(clicks []Click) int {
	hashes := lo.FilterMap(clicks, func(c Click, _ int) (string, bool) {
		return c.VisitorHash, c.VisitorHash != ""
	})
	return len(lo.Uniq(hashes))
}

// AssignCampaign attributes the link's existing clicks to a campaign.
func AssignCampaign(tx *gorm.DB, linkID, campaignID uint) error {
	if err := tx.Model(&Click{}).Where("link_id = ?", linkID).Update("campaign_id", campaignID).Error; err != nil {
		return fmt.Errorf("failed to assign clicks to campaign: %w", err)
	}
	return nil
}

// DeleteProcessedBefore removes up to limit processed ingested clicks created
// before cutoff and reports how many rows went away.
func DeleteProcessedBefore(db *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	sub := db.Model(&IngestedClick{}).
		Select("id").
		Where("processed = 1 AND created_at < ?", cutoff).
		Limit(limit)

	result := db.Where("id IN (?)", sub).Delete(&IngestedClick{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete ingested clicks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountPending returns how many ingested clicks await processing.
func CountPending(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&IngestedClick{}).Where("processed = 0").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pending clicks: %w", err)
	}
	return count, nil
}
