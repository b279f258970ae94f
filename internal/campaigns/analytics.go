package campaigns

import (
	"context"

	"gorm.io/gorm"

	"shortn/internal/analytics"
	"shortn/internal/clicks"
	"shortn/internal/stats"
	"shortn/internal/timeframe"
)

// GetCampaignStats computes the stats bundle over every link of the campaign.
func GetCampaignStats(ctx context.Context, db *gorm.DB, ownerID string, campaignID uint, params stats.Params) (*stats.Stats, error) {
	campaign, err := GetOwnedCampaign(db, ownerID, campaignID)
	if err != nil {
		return nil, err
	}

	var linkCount int64
	if err := db.Table("links").Where("campaign_id = ?", campaign.ID).Count(&linkCount).Error; err != nil {
		return nil, err
	}

	list, err := campaignClicks(ctx, db, campaign.ID, params.TimeFrame)
	if err != nil {
		return nil, err
	}

	return stats.Compute(ctx, list, int(linkCount), params)
}

// GetUTMTreeData returns one drill-down level of the campaign's UTM tree.
func GetUTMTreeData(ctx context.Context, db *gorm.DB, ownerID string, campaignID uint, path []string, tf *timeframe.TimeFrame) (analytics.UTMTreeLevel, error) {
	campaign, err := GetOwnedCampaign(db, ownerID, campaignID)
	if err != nil {
		return analytics.UTMTreeLevel{}, err
	}

	list, err := campaignClicks(ctx, db, campaign.ID, tf)
	if err != nil {
		return analytics.UTMTreeLevel{}, err
	}

	return analytics.DrillUTM(clicks.Entries(list), path), nil
}

// GetUTMTree returns the campaign's full UTM hierarchy.
func GetUTMTree(ctx context.Context, db *gorm.DB, ownerID string, campaignID uint, tf *timeframe.TimeFrame) ([]*analytics.UTMTreeNode, error) {
	campaign, err := GetOwnedCampaign(db, ownerID, campaignID)
	if err != nil {
		return nil, err
	}

	list, err := campaignClicks(ctx, db, campaign.ID, tf)
	if err != nil {
		return nil, err
	}

	return analytics.BuildUTMTree(clicks.Entries(list)), nil
}

func campaignClicks(ctx context.Context, db *gorm.DB, campaignID uint, tf *timeframe.TimeFrame) ([]clicks.Click, error) {
	filters := clicks.ClickFilters{CampaignID: campaignID}
	if tf != nil {
		filters.From = tf.From
		filters.To = tf.To
	}
	return clicks.ListClicks(db.WithContext(ctx), filters)
}
