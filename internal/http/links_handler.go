package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/samber/lo"

	"shortn/internal/config"
	"shortn/internal/links"
	"shortn/internal/stats"
)

type createLinkParams struct {
	URL   string        `json:"url"`
	Title string        `json:"title"`
	UTM   links.UTMTags `json:"utm"`
}

// linkPayload is a link as returned by the API.
type linkPayload struct {
	Code        string        `json:"code"`
	ShortURL    string        `json:"short_url"`
	OriginalURL string        `json:"original_url"`
	Title       string        `json:"title"`
	Kind        links.Kind    `json:"kind"`
	CampaignID  *uint         `json:"campaign_id"`
	UTM         links.UTMTags `json:"utm"`
	CreatedAt   time.Time     `json:"created_at"`
}

func newLinkPayload(link links.Link) linkPayload {
	return linkPayload{
		Code:        link.Code,
		ShortURL:    link.ShortURL(config.GetConfig().BaseURL),
		OriginalURL: link.OriginalURL,
		Title:       link.Title,
		Kind:        link.Kind,
		CampaignID:  link.CampaignID,
		UTM:         link.UTM,
		CreatedAt:   link.CreatedAt,
	}
}

func createLink(ctx *cartridge.Context, kind links.Kind) (*links.Link, error) {
	var params createLinkParams
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse link body", slog.Any("error", err))
		return nil, errInvalidBody
	}

	return links.CreateLink(ctx.DBManager, ctx.Logger, links.CreateLinkInput{
		OwnerID: ownerID(ctx),
		URL:     params.URL,
		Title:   params.Title,
		UTM:     params.UTM,
		Kind:    kind,
	}, config.GetConfig().MaxLinksPerOwner)
}

// LinksCreateAction shortens a URL.
func LinksCreateAction(ctx *cartridge.Context) error {
	link, err := createLink(ctx, links.KindLink)
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusCreated, fiber.Map{"link": newLinkPayload(*link)})
}

// QRCodesCreateAction stores a QR code link and returns the URL to encode.
// Rendering the code image is left to the client.
func QRCodesCreateAction(ctx *cartridge.Context) error {
	link, err := createLink(ctx, links.KindQR)
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusCreated, fiber.Map{
		"link":       newLinkPayload(*link),
		"target_url": link.ScanURL(config.GetConfig().BaseURL),
	})
}

// LinksSearchAction lists the owner's links matching q.
func LinksSearchAction(ctx *cartridge.Context) error {
	results, err := links.SearchLinks(ctx.DBManager.GetConnection(), ownerID(ctx), ctx.Query("q"), ctx.QueryInt("limit", 20))
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusOK, fiber.Map{
		"links": lo.Map(results, func(l links.Link, _ int) linkPayload { return newLinkPayload(l) }),
	})
}

// LinkStatsAction returns the analytics bundle of one link.
func LinkStatsAction(ctx *cartridge.Context) error {
	params, err := parseStatsParams(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	result, err := stats.GetLinkStats(ctx.UserContext(), ctx.DBManager.GetConnection(), ownerID(ctx), ctx.Params("code"), params)
	if err != nil {
		return failWith(ctx, err)
	}
	return respond(ctx, fiber.StatusOK, fiber.Map{"stats": result})
}
