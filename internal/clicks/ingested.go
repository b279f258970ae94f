package clicks

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"shortn/internal/config"
	"shortn/internal/links"
	"shortn/internal/pkg/geoip"
	"shortn/internal/visitors"
)

// CollectClickInput defines the request data recorded for one redirect.
type CollectClickInput struct {
	Link      *links.Link
	IPAddress string
	UserAgent string
	Referrer  string
	RawQuery  string
	Timestamp time.Time
}

// CollectClick stores a redirect hit in the IngestedClick table. The IP address
// is only used for the geo lookup and the visitor hash.
func CollectClick(dbManager cartridge.DBManager, logger *slog.Logger, input *CollectClickInput) error {
	if input.Link == nil {
		return fmt.Errorf("click without link")
	}
	if input.UserAgent == "" {
		input.UserAgent = "Unknown User Agent"
	}
	if input.Timestamp.IsZero() {
		input.Timestamp = time.Now().UTC()
	}

	cfg := config.GetConfig()
	location := geoip.LookupIP(input.IPAddress)

	ingested := &IngestedClick{
		LinkID:      input.Link.ID,
		OwnerID:     input.Link.OwnerID,
		Code:        input.Link.Code,
		RawQuery:    strings.TrimPrefix(input.RawQuery, "?"),
		Referrer:    strings.TrimSpace(input.Referrer),
		UserAgent:   input.UserAgent,
		VisitorHash: visitors.BuildVisitorHash(input.Link.OwnerID, input.IPAddress, input.UserAgent, cfg.PrivateKey, input.Timestamp),
		CountryCode: location.CountryCode,
		Region:      location.Region,
		City:        location.City,
		Source:      sourceOf(input.RawQuery),
		Timestamp:   input.Timestamp.UTC(),
		CreatedAt:   time.Now().UTC(),
	}

	err := sqlite.PerformWrite(logger, dbManager.GetConnection(), func(tx *gorm.DB) error {
		return tx.Create(ingested).Error
	})
	if err != nil {
		logger.Error("Failed to store ingested click",
			slog.String("code", input.Link.Code),
			slog.Any("error", err))
		return fmt.Errorf("failed to store ingested click: %w", err)
	}

	return nil
}

func sourceOf(rawQuery string) Source {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err == nil && values.Get(scanMarker) == string(SourceQR) {
		return SourceQR
	}
	return SourceLink
}
