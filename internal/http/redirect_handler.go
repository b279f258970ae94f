package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"shortn/internal/clicks"
	"shortn/internal/links"
)

// RedirectAction sends visitors of a short URL to its destination and records
// the click. A failed recording is logged; the visitor is redirected anyway.
func RedirectAction(resolver links.Resolver) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		code := ctx.Params("code")
		if err := links.ValidateCode(code); err != nil {
			return ctx.Status(fiber.StatusNotFound).SendString("Not found")
		}

		link, err := resolver.Resolve(ctx.UserContext(), code)
		if err != nil {
			var notFound *links.LinkNotFoundError
			if errors.As(err, &notFound) {
				return ctx.Status(fiber.StatusNotFound).SendString("Not found")
			}
			ctx.Logger.Error("Failed to resolve short code", slog.String("code", code), slog.Any("error", err))
			return ctx.Status(fiber.StatusInternalServerError).SendString("Internal server error")
		}

		ctx.Set(fiber.HeaderCacheControl, "private, max-age=0, no-cache")

		// Link unfurlers check URLs with HEAD; only real visits count.
		if ctx.Method() == fiber.MethodHead {
			return ctx.Redirect(link.DestinationURL(), fiber.StatusFound)
		}

		userAgent := ctx.Get("User-Agent")
		if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
			userAgent = forwardedUA
		}

		input := &clicks.CollectClickInput{
			Link:      link,
			IPAddress: clientIP(ctx.Ctx),
			UserAgent: userAgent,
			Referrer:  ctx.Get("Referer"),
			RawQuery:  string(ctx.Request().URI().QueryString()),
			Timestamp: time.Now().UTC(),
		}
		if err := clicks.CollectClick(ctx.DBManager, ctx.Logger, input); err != nil {
			ctx.Logger.Warn("Click not recorded", slog.String("code", code), slog.Any("error", err))
		}

		return ctx.Redirect(link.DestinationURL(), fiber.StatusFound)
	}
}
