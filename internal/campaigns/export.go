package campaigns

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"shortn/internal/analytics"
	"shortn/internal/clicks"
	"shortn/internal/links"
	"shortn/internal/timeframe"
	"shortn/internal/visitors"
)

// ExportTTL is how long a download URL stays valid.
const ExportTTL = time.Hour

var ErrExportNotFound = errors.New("export not found or expired")

// ExportHeader lists the CSV columns in order.
var ExportHeader = []string{
	"timestamp", "link_code", "original_url", "referrer",
	"country", "region", "city", "device", "source",
	analytics.UTMSource, analytics.UTMMedium, analytics.UTMCampaign, analytics.UTMTerm, analytics.UTMContent,
	"visitor",
}

// ExportToken authorizes one download of a filtered campaign export.
type ExportToken struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Token      string    `gorm:"uniqueIndex;size:36;not null"`
	OwnerID    string    `gorm:"index;not null"`
	CampaignID uint      `gorm:"index;not null"`
	Filter     string    `gorm:"type:text"`
	ExpiresAt  time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// ExportFilter decodes the stored filter.
func (t *ExportToken) ExportFilter() (analytics.ExportFilter, error) {
	var filter analytics.ExportFilter
	if t.Filter == "" {
		return filter, nil
	}
	if err := json.Unmarshal([]byte(t.Filter), &filter); err != nil {
		return filter, fmt.Errorf("failed to decode export filter: %w", err)
	}
	return filter, nil
}

// DownloadURL is where the CSV for this token is served under baseURL.
func (t *ExportToken) DownloadURL(baseURL string) string {
	return fmt.Sprintf("%s/api/v1/campaigns/%d/export.csv?token=%s",
		strings.TrimRight(baseURL, "/"), t.CampaignID, url.QueryEscape(t.Token))
}

// ExportCampaignData validates ownership, stores the filter behind a fresh
// token and returns the token the download URL is built from.
func ExportCampaignData(dbManager cartridge.DBManager, logger *slog.Logger, ownerID string, campaignID uint, filter analytics.ExportFilter) (*ExportToken, error) {
	encoded, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export filter: %w", err)
	}

	now := time.Now().UTC()
	token := &ExportToken{
		Token:      uuid.NewString(),
		OwnerID:    ownerID,
		CampaignID: campaignID,
		Filter:     string(encoded),
		ExpiresAt:  now.Add(ExportTTL),
		CreatedAt:  now,
	}

	err = sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
		if _, err := GetOwnedCampaign(tx, ownerID, campaignID); err != nil {
			return err
		}
		if err := tx.Where("expires_at < ?", now).Delete(&ExportToken{}).Error; err != nil {
			return fmt.Errorf("failed to purge expired exports: %w", err)
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Campaign export prepared",
		slog.Uint64("campaign_id", uint64(campaignID)),
		slog.String("owner", ownerID))
	return token, nil
}

// FindExport returns the unexpired token issued for the campaign.
func FindExport(db *gorm.DB, campaignID uint, token string, now time.Time) (*ExportToken, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrExportNotFound
	}

	var export ExportToken
	err := db.Where("token = ? AND campaign_id = ? AND expires_at > ?", token, campaignID, now.UTC()).
		First(&export).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExportNotFound
		}
		return nil, fmt.Errorf("unexpected error querying export: %w", err)
	}
	return &export, nil
}

// ExportRow is one CSV line: a click with the link it was made on.
type ExportRow struct {
	Click clicks.Click
	Link  links.Link
}

// Record renders the row in ExportHeader order.
func (r ExportRow) Record() []string {
	params := r.Click.Params()
	visitor := ""
	if r.Click.VisitorHash != "" {
		visitor = visitors.Alias(r.Click.VisitorHash)
	}

	return lo.Map([]string{
		r.Click.Timestamp.UTC().Format(time.RFC3339),
		r.Link.Code,
		r.Link.OriginalURL,
		r.Click.Referrer,
		r.Click.Country,
		r.Click.Region,
		r.Click.City,
		r.Click.DeviceType,
		string(r.Click.Source),
		params[analytics.UTMSource],
		params[analytics.UTMMedium],
		params[analytics.UTMCampaign],
		params[analytics.UTMTerm],
		params[analytics.UTMContent],
		visitor,
	}, func(cell string, _ int) string { return escapeFormula(cell) })
}

// escapeFormula quotes cells spreadsheets would evaluate as formulas.
// Referrers and query values come straight from visitors.
func escapeFormula(cell string) string {
	if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}

// ExportRows loads the campaign's clicks matching the filter, oldest first.
func ExportRows(ctx context.Context, db *gorm.DB, campaignID uint, filter analytics.ExportFilter) ([]ExportRow, error) {
	var tf *timeframe.TimeFrame
	if !filter.From.IsZero() && !filter.To.IsZero() {
		parsed, err := timeframe.NewTimeFrame(filter.From, filter.To, time.UTC)
		if err != nil {
			return nil, err
		}
		tf = parsed
	}

	list, err := campaignClicks(ctx, db, campaignID, tf)
	if err != nil {
		return nil, err
	}
	list = lo.Filter(list, func(c clicks.Click, _ int) bool {
		return filter.Matches(c.Entry())
	})

	campaignLinks, err := links.ListCampaignLinks(db.WithContext(ctx), campaignID)
	if err != nil {
		return nil, err
	}
	linksByID := lo.KeyBy(campaignLinks, func(l links.Link) uint { return l.ID })

	return lo.Map(list, func(c clicks.Click, _ int) ExportRow {
		return ExportRow{Click: c, Link: linksByID[c.LinkID]}
	}), nil
}

// WriteExportCSV writes the header and one line per row.
func WriteExportCSV(w io.Writer, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
