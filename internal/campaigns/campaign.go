// Package campaigns groups links under a named campaign and serves the
// campaign-wide analytics: stats, the UTM drill-down and CSV exports.
package campaigns

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"shortn/internal/clicks"
	"shortn/internal/links"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrAlreadyInCampaign = errors.New("link already in campaign")
	ErrDuplicateName     = errors.New("campaign name already in use")
	ErrInvalidCampaign   = errors.New("invalid campaign")
)

// Campaign is a named group of an owner's links.
type Campaign struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     string    `gorm:"uniqueIndex:idx_campaign_owner_name;not null" json:"owner_id"`
	Name        string    `gorm:"uniqueIndex:idx_campaign_owner_name;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is a campaign with the number of links attached to it.
type Summary struct {
	Campaign
	LinkCount int64 `json:"link_count"`
}

type CreateCampaignInput struct {
	OwnerID     string
	Name        string
	Description string
}

func (in CreateCampaignInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.OwnerID, validation.Required),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Description, validation.Length(0, 500)),
	)
}

// CreateCampaign stores a new campaign. Names are unique per owner.
func CreateCampaign(dbManager cartridge.DBManager, logger *slog.Logger, input CreateCampaignInput) (*Campaign, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCampaign, err)
	}

	campaign := &Campaign{
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Description: input.Description,
	}

	err := sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Campaign{}).
			Where("owner_id = ? AND name = ?", input.OwnerID, input.Name).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check campaign name: %w", err)
		}
		if count > 0 {
			return ErrDuplicateName
		}
		return tx.Create(campaign).Error
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateName) {
			logger.Error("Failed to create campaign", slog.String("owner", input.OwnerID), slog.Any("error", err))
		}
		return nil, err
	}

	logger.Info("Campaign created", slog.Uint64("id", uint64(campaign.ID)), slog.String("owner", campaign.OwnerID))
	return campaign, nil
}

// ListCampaigns returns the owner's campaigns, newest first, with link counts.
func ListCampaigns(db *gorm.DB, ownerID string) ([]Summary, error) {
	var results []Summary
	err := db.Model(&Campaign{}).
		Select("campaigns.*, (SELECT COUNT(*) FROM links WHERE links.campaign_id = campaigns.id) AS link_count").
		Where("campaigns.owner_id = ?", ownerID).
		Order("campaigns.created_at DESC").
		Order("campaigns.id DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return results, nil
}

// GetOwnedCampaign returns the campaign when it belongs to the owner.
func GetOwnedCampaign(db *gorm.DB, ownerID string, id uint) (*Campaign, error) {
	var campaign Campaign
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("unexpected error querying campaign: %w", err)
	}
	return &campaign, nil
}

// AddLinkToCampaign attaches one of the owner's links to the campaign and
// attributes the link's earlier clicks to it. A link belongs to at most one
// campaign.
func AddLinkToCampaign(dbManager cartridge.DBManager, logger *slog.Logger, ownerID string, campaignID uint, code string) (*links.Link, error) {
	var link *links.Link

	err := sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
		if _, err := GetOwnedCampaign(tx, ownerID, campaignID); err != nil {
			return err
		}

		found, err := links.GetOwnedLink(tx, ownerID, code)
		if err != nil {
			return err
		}
		if found.CampaignID != nil {
			return ErrAlreadyInCampaign
		}

		if err := tx.Model(found).Update("campaign_id", campaignID).Error; err != nil {
			return fmt.Errorf("failed to attach link: %w", err)
		}
		if err := clicks.AssignCampaign(tx, found.ID, campaignID); err != nil {
			return err
		}

		found.CampaignID = &campaignID
		link = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Link added to campaign",
		slog.String("code", link.Code),
		slog.Uint64("campaign_id", uint64(campaignID)))
	return link, nil
}
