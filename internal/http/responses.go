package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"shortn/internal/campaigns"
	"shortn/internal/links"
)

// ErrorCode is the machine readable reason of a failed action. Clients switch
// on it to pick a message.
type ErrorCode string

const (
	CodeAlreadyInCampaign ErrorCode = "already-in-campaign"
	CodeURLNotFound       ErrorCode = "url-not-found"
	CodePlanLimit         ErrorCode = "plan-limit"
	CodeInvalidURL        ErrorCode = "invalid-url"
	CodeInvalidRequest    ErrorCode = "invalid-request"
	CodeCampaignNotFound  ErrorCode = "campaign-not-found"
	CodeServerError       ErrorCode = "server-error"
)

var errInvalidBody = errors.New("invalid request body")

// respond writes {"success": true, ...payload}.
func respond(ctx *cartridge.Context, status int, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return ctx.Status(status).JSON(body)
}

// fail writes {"success": false, "message": code}.
func fail(ctx *cartridge.Context, status int, code ErrorCode) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"message": code,
	})
}

// failWith maps a domain error to its code. Unknown errors are logged and
// reported as server-error.
func failWith(ctx *cartridge.Context, err error) error {
	var notFound *links.LinkNotFoundError
	switch {
	case errors.As(err, &notFound):
		return fail(ctx, fiber.StatusNotFound, CodeURLNotFound)
	case errors.Is(err, links.ErrInvalidURL):
		return fail(ctx, fiber.StatusUnprocessableEntity, CodeInvalidURL)
	case errors.Is(err, links.ErrPlanLimit):
		return fail(ctx, fiber.StatusPaymentRequired, CodePlanLimit)
	case errors.Is(err, campaigns.ErrCampaignNotFound):
		return fail(ctx, fiber.StatusNotFound, CodeCampaignNotFound)
	case errors.Is(err, campaigns.ErrAlreadyInCampaign):
		return fail(ctx, fiber.StatusConflict, CodeAlreadyInCampaign)
	case errors.Is(err, errInvalidBody),
		errors.Is(err, campaigns.ErrDuplicateName),
		errors.Is(err, campaigns.ErrInvalidCampaign),
		errors.Is(err, campaigns.ErrExportNotFound):
		return fail(ctx, fiber.StatusBadRequest, CodeInvalidRequest)
	}

	ctx.Logger.Error("Action failed",
		slog.String("path", ctx.Path()),
		slog.Any("error", err))
	return fail(ctx, fiber.StatusInternalServerError, CodeServerError)
}
