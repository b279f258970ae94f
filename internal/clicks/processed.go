package clicks

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"shortn/internal/analytics"
	"shortn/internal/links"
	"shortn/internal/pkg/countries"
	ua "shortn/internal/pkg/user_agent"
)

// ProcessingResult holds the clicks written by one processing run.
type ProcessingResult struct {
	Processed   []*Click
	SkippedBots int
}

// ProcessUnprocessedClicks enriches pending ingested clicks in batches. Bots are
// marked processed without producing a Click. A failing batch is logged and
// left pending for the next run.
func ProcessUnprocessedClicks(dbManager cartridge.DBManager, logger *slog.Logger, batchSize int) (*ProcessingResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	db := dbManager.GetConnection()
	result := &ProcessingResult{Processed: make([]*Click, 0)}

	var pending []IngestedClick
	if err := db.Where("processed = 0").Order("created_at ASC").Order("id ASC").Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed clicks: %w", err)
	}

	if len(pending) == 0 {
		logger.Debug("No unprocessed clicks found")
		return result, nil
	}

	logger.Info("Processing unprocessed clicks", slog.Int("total", len(pending)))

	for _, batch := range lo.Chunk(pending, batchSize) {
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			written, bots, err := processClickBatch(tx, logger, batch)
			if err != nil {
				return err
			}
			result.Processed = append(result.Processed, written...)
			result.SkippedBots += bots
			return nil
		})
		if err != nil {
			logger.Error("Failed to process click batch",
				slog.Uint64("first_id", uint64(batch[0].ID)),
				slog.Int("size", len(batch)),
				slog.Any("error", err))
			continue
		}
	}

	logger.Info("Processed clicks",
		slog.Int("processed", len(result.Processed)),
		slog.Int("bots", result.SkippedBots),
		slog.Int("total", len(pending)))
	return result, nil
}

func processClickBatch(tx *gorm.DB, logger *slog.Logger, batch []IngestedClick) ([]*Click, int, error) {
	linkIDs := lo.Uniq(lo.Map(batch, func(c IngestedClick, _ int) uint { return c.LinkID }))

	var batchLinks []links.Link
	if err := tx.Where("id IN ?", linkIDs).Find(&batchLinks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load links: %w", err)
	}
	linksByID := lo.KeyBy(batchLinks, func(l links.Link) uint { return l.ID })

	var written []*Click
	bots := 0
	for _, ingested := range batch {
		parsedUA := ua.ParseUserAgent(ingested.UserAgent)
		if parsedUA.Bot {
			logger.Debug("Skipping bot click",
				slog.Uint64("ingested_click_id", uint64(ingested.ID)),
				slog.String("bot", parsedUA.BotName))
			bots++
			continue
		}

		link, ok := linksByID[ingested.LinkID]
		if !ok {
			logger.Warn("Dropping click for deleted link",
				slog.Uint64("ingested_click_id", uint64(ingested.ID)),
				slog.String("code", ingested.Code))
			continue
		}

		click, err := buildClick(ingested, link, parsedUA)
		if err != nil {
			return nil, 0, err
		}
		if err := tx.Create(click).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to create click: %w", err)
		}
		written = append(written, click)
	}

	ids := lo.Map(batch, func(c IngestedClick, _ int) uint { return c.ID })
	if err := tx.Model(&IngestedClick{}).Where("id IN ?", ids).Update("processed", 1).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to mark clicks as processed: %w", err)
	}

	return written, bots, nil
}

func buildClick(ingested IngestedClick, link links.Link, parsedUA ua.UserAgent) (*Click, error) {
	params := MergeQueryParams(ingested.RawQuery, link.UTM)

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query params: %w", err)
	}

	country := ""
	if ingested.CountryCode != "" {
		country = countries.DisplayName(ingested.CountryCode)
	}

	return &Click{
		LinkID:      link.ID,
		CampaignID:  link.CampaignID,
		OwnerID:     link.OwnerID,
		Timestamp:   ingested.Timestamp,
		Referrer:    ingested.Referrer,
		Country:     country,
		Region:      ingested.Region,
		City:        ingested.City,
		DeviceType:  analytics.NormalizeDevice(parsedUA.Device),
		Source:      ingested.Source,
		UTMSource:   params[analytics.UTMSource],
		UTMMedium:   params[analytics.UTMMedium],
		UTMCampaign: params[analytics.UTMCampaign],
		UTMTerm:     params[analytics.UTMTerm],
		UTMContent:  params[analytics.UTMContent],
		QueryParams: string(encoded),
		VisitorHash: ingested.VisitorHash,
	}, nil
}

// MergeQueryParams collects the first non-empty value of every request query
// parameter, then fills UTM keys the request did not carry from the link's tags.
// The QR scan marker is not a query parameter of the click.
func MergeQueryParams(rawQuery string, tags links.UTMTags) map[string]string {
	params := make(map[string]string)

	if values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?")); err == nil {
		for key, vals := range values {
			if key == scanMarker {
				continue
			}
			for _, v := range vals {
				if v = strings.TrimSpace(v); v != "" {
					params[key] = v
					break
				}
			}
		}
	}

	for key, value := range tags.Values() {
		if _, ok := params[key]; !ok {
			params[key] = value
		}
	}
	return params
}
