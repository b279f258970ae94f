package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"shortn/internal/analytics"
	"shortn/internal/campaigns"
	"shortn/internal/config"
	"shortn/internal/links"
	"shortn/internal/timeframe"
)

type createCampaignParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CampaignsCreateAction creates a campaign for the owner.
func CampaignsCreateAction(ctx *cartridge.Context) error {
	var params createCampaignParams
	if err := ctx.BodyParser(&params); err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	campaign, err := campaigns.CreateCampaign(ctx.DBManager, ctx.Logger, campaigns.CreateCampaignInput{
		OwnerID:     ownerID(ctx),
		Name:        params.Name,
		Description: params.Description,
	})
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusCreated, fiber.Map{"campaign": campaign})
}

// CampaignsIndexAction lists the owner's campaigns.
func CampaignsIndexAction(ctx *cartridge.Context) error {
	results, err := campaigns.ListCampaigns(ctx.DBManager.GetConnection(), ownerID(ctx))
	if err != nil {
		return failWith(ctx, err)
	}
	if results == nil {
		results = []campaigns.Summary{}
	}
	return respond(ctx, fiber.StatusOK, fiber.Map{"campaigns": results})
}

type addLinkParams struct {
	// URL is a short URL or a bare code.
	URL  string `json:"url"`
	Code string `json:"code"`
}

// CampaignAddLinkAction attaches one of the owner's links to a campaign.
// The resolver's cached copy of the link is dropped afterwards.
func CampaignAddLinkAction(resolver links.Resolver) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		campaignID, err := parseCampaignID(ctx)
		if err != nil {
			return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
		}

		var params addLinkParams
		if err := ctx.BodyParser(&params); err != nil {
			return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
		}
		input := params.Code
		if input == "" {
			input = params.URL
		}
		code := links.CodeFromInput(input)
		if links.ValidateCode(code) != nil {
			return fail(ctx, fiber.StatusNotFound, CodeURLNotFound)
		}

		link, err := campaigns.AddLinkToCampaign(ctx.DBManager, ctx.Logger, ownerID(ctx), campaignID, code)
		if err != nil {
			return failWith(ctx, err)
		}
		resolver.Forget(ctx.UserContext(), link.Code)

		return respond(ctx, fiber.StatusOK, fiber.Map{"link": newLinkPayload(*link)})
	}
}

// CampaignStatsAction returns the campaign-wide analytics bundle.
func CampaignStatsAction(ctx *cartridge.Context) error {
	campaignID, err := parseCampaignID(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}
	params, err := parseStatsParams(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	result, err := campaigns.GetCampaignStats(ctx.UserContext(), ctx.DBManager.GetConnection(), ownerID(ctx), campaignID, params)
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusOK, fiber.Map{"stats": result})
}

// CampaignUTMTreeAction returns one level of the UTM drill-down below the
// comma separated path, or the whole tree when full=true.
func CampaignUTMTreeAction(ctx *cartridge.Context) error {
	campaignID, err := parseCampaignID(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}
	tf, err := parseTimeFrame(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	db := ctx.DBManager.GetConnection()
	if ctx.QueryBool("full") {
		tree, err := campaigns.GetUTMTree(ctx.UserContext(), db, ownerID(ctx), campaignID, tf)
		if err != nil {
			return failWith(ctx, err)
		}
		return respond(ctx, fiber.StatusOK, fiber.Map{"tree": tree})
	}

	level, err := campaigns.GetUTMTreeData(ctx.UserContext(), db, ownerID(ctx), campaignID, analytics.ParseUTMPath(ctx.Query("path")), tf)
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusOK, fiber.Map{"data": level})
}

type exportParams struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Tz       string   `json:"tz"`
	Sources  []string `json:"sources"`
	Mediums  []string `json:"mediums"`
	Terms    []string `json:"terms"`
	Contents []string `json:"contents"`
}

func (p exportParams) filter() (analytics.ExportFilter, error) {
	filter := analytics.ExportFilter{
		Sources:  p.Sources,
		Mediums:  p.Mediums,
		Terms:    p.Terms,
		Contents: p.Contents,
	}

	loc := time.UTC
	if p.Tz != "" {
		parsed, err := time.LoadLocation(p.Tz)
		if err != nil {
			return filter, fmt.Errorf("invalid timezone: %w", err)
		}
		loc = parsed
	}

	if p.From != "" {
		from, err := time.ParseInLocation(timeframe.DateLayout, p.From, loc)
		if err != nil {
			return filter, fmt.Errorf("invalid 'from' date: %w", err)
		}
		filter.From = timeframe.StartOfDay(from)
	}
	if p.To != "" {
		to, err := time.ParseInLocation(timeframe.DateLayout, p.To, loc)
		if err != nil {
			return filter, fmt.Errorf("invalid 'to' date: %w", err)
		}
		filter.To = timeframe.EndOfDay(to)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return filter, fmt.Errorf("'from' is after 'to'")
	}
	return filter, nil
}

// CampaignExportAction stores the export filter and returns the download URL.
func CampaignExportAction(ctx *cartridge.Context) error {
	campaignID, err := parseCampaignID(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	var params exportParams
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&params); err != nil {
			return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
		}
	}
	filter, err := params.filter()
	if err != nil {
		ctx.Logger.Debug("Invalid export filter", slog.Any("error", err))
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	token, err := campaigns.ExportCampaignData(ctx.DBManager, ctx.Logger, ownerID(ctx), campaignID, filter)
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusOK, fiber.Map{
		"url":        token.DownloadURL(config.GetConfig().BaseURL),
		"expires_at": token.ExpiresAt,
	})
}

// CampaignExportDownloadAction streams the CSV for an export token. The token
// authorizes the download, so the route sits outside the API key check.
func CampaignExportDownloadAction(ctx *cartridge.Context) error {
	campaignID, err := parseCampaignID(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	db := ctx.DBManager.GetConnection()
	export, err := campaigns.FindExport(db, campaignID, ctx.Query("token"), time.Now())
	if err != nil {
		return failWith(ctx, err)
	}
	filter, err := export.ExportFilter()
	if err != nil {
		return failWith(ctx, err)
	}

	rows, err := campaigns.ExportRows(ctx.UserContext(), db, campaignID, filter)
	if err != nil {
		return failWith(ctx, err)
	}

	var buf bytes.Buffer
	if err := campaigns.WriteExportCSV(&buf, rows); err != nil {
		return failWith(ctx, err)
	}

	ctx.Logger.Info("Campaign export downloaded",
		slog.Uint64("campaign_id", uint64(campaignID)),
		slog.Int("rows", len(rows)))

	filename := fmt.Sprintf("campaign-%d-%s.csv", campaignID, time.Now().UTC().Format("20060102"))
	ctx.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	return ctx.Status(fiber.StatusOK).Send(buf.Bytes())
}
