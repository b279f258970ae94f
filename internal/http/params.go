package http

import (
	"fmt"
	"strconv"

	"github.com/karloscodes/cartridge"

	"shortn/internal/analytics"
	"shortn/internal/config"
	"shortn/internal/http/middleware"
	"shortn/internal/stats"
	"shortn/internal/timeframe"
)

// timeFrameParser is swapped in tests to pin "today".
var timeFrameParser = timeframe.NewTimeFrameParser()

func ownerID(ctx *cartridge.Context) string {
	return middleware.OwnerID(ctx.Ctx)
}

// parseTimeFrame reads the from, to and tz query parameters.
func parseTimeFrame(ctx *cartridge.Context) (*timeframe.TimeFrame, error) {
	return timeFrameParser.ParseTimeFrame(timeframe.TimeFrameParserParams{
		FromDate: ctx.Query("from"),
		ToDate:   ctx.Query("to"),
		Tz:       ctx.Query("tz"),
	})
}

// parseStatsParams reads the range plus the level and bucket query parameters.
func parseStatsParams(ctx *cartridge.Context) (stats.Params, error) {
	tf, err := parseTimeFrame(ctx)
	if err != nil {
		return stats.Params{}, err
	}

	bucket := config.GetConfig().DefaultBucketSizeHours
	if raw := ctx.Query("bucket"); raw != "" {
		bucket, err = strconv.Atoi(raw)
		if err != nil || bucket < 1 || bucket > 24 {
			return stats.Params{}, fmt.Errorf("invalid bucket size: %q", raw)
		}
	}

	return stats.Params{
		TimeFrame:       tf,
		LocationLevel:   analytics.ParseLocationLevel(ctx.Query("level")),
		BucketSizeHours: bucket,
	}, nil
}

func parseCampaignID(ctx *cartridge.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid campaign id: %q", ctx.Params("id"))
	}
	return uint(id), nil
}
