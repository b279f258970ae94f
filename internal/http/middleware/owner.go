package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gofiber/fiber/v2"
)

// OwnerHeader carries the account id asserted by the upstream auth layer.
const OwnerHeader = "X-Shortn-Owner"

const ownerLocal = "owner_id"

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_.:@-]{1,128}$`)

// OwnerScope sets the owner id in the request context. Every API query is
// scoped to it, so requests without a valid owner are rejected.
func OwnerScope(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Get(OwnerHeader)
		if !ownerPattern.MatchString(ownerID) {
			logger.Warn("Invalid owner provided",
				slog.String("owner", ownerID),
				slog.String("path", c.Path()))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid-request",
			})
		}

		c.Locals(ownerLocal, ownerID)
		logger.Debug("Applied owner scope", slog.String("owner", ownerID))
		return c.Next()
	}
}

// OwnerID returns the owner set by OwnerScope.
func OwnerID(c *fiber.Ctx) string {
	ownerID, _ := c.Locals(ownerLocal).(string)
	return ownerID
}
