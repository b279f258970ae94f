package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"shortn/internal/config"
	"shortn/internal/http"
	"shortn/internal/http/middleware"
	"shortn/internal/links"
)

// apiCORSConfig lets dashboards on other origins call the API.
var apiCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.OwnerHeader,
}

// MountAppRoutes mounts all routes, resolving short codes straight from the database.
func MountAppRoutes(srv *cartridge.Server) {
	MountAppRoutesWithResolver(srv, links.NewDBResolver(srv.GetDBManager()))
}

// MountAppRoutesWithResolver mounts all routes using resolver for short code lookups.
func MountAppRoutesWithResolver(srv *cartridge.Server, resolver links.Resolver) {
	cfg := config.GetConfig()
	logger := srv.GetLogger()

	// Rate limiting would interfere with development and tests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 120 redirects per minute per IP
	redirectRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	apiRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(300),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// ============================================
	// ROUTE CONFIGURATIONS
	// ============================================

	redirectConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		WriteConcurrency:   false,
		CustomMiddleware:   []fiber.Handler{redirectRateLimiter},
	}

	apiConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         apiCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware: []fiber.Handler{
			apiRateLimiter,
			middleware.APIKeyAuth(cfg.APIKey, logger),
			middleware.OwnerScope(logger),
		},
	}

	// The export token authorizes the download by itself.
	downloadConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{apiRateLimiter},
	}

	preflight := func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}
	preflightConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         apiCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === LINKS ===
	srv.Post("/api/v1/links", http.LinksCreateAction, apiConfig)
	srv.Options("/api/v1/links", preflight, preflightConfig)
	srv.Get("/api/v1/links", http.LinksSearchAction, apiConfig)
	srv.Get("/api/v1/links/:code/stats", http.LinkStatsAction, apiConfig)
	srv.Options("/api/v1/links/:code/stats", preflight, preflightConfig)
	srv.Post("/api/v1/qrcodes", http.QRCodesCreateAction, apiConfig)
	srv.Options("/api/v1/qrcodes", preflight, preflightConfig)

	// === CAMPAIGNS ===
	srv.Post("/api/v1/campaigns", http.CampaignsCreateAction, apiConfig)
	srv.Options("/api/v1/campaigns", preflight, preflightConfig)
	srv.Get("/api/v1/campaigns", http.CampaignsIndexAction, apiConfig)
	srv.Post("/api/v1/campaigns/:id/links", http.CampaignAddLinkAction(resolver), apiConfig)
	srv.Options("/api/v1/campaigns/:id/links", preflight, preflightConfig)
	srv.Get("/api/v1/campaigns/:id/stats", http.CampaignStatsAction, apiConfig)
	srv.Options("/api/v1/campaigns/:id/stats", preflight, preflightConfig)
	srv.Get("/api/v1/campaigns/:id/utm-tree", http.CampaignUTMTreeAction, apiConfig)
	srv.Options("/api/v1/campaigns/:id/utm-tree", preflight, preflightConfig)
	srv.Post("/api/v1/campaigns/:id/export", http.CampaignExportAction, apiConfig)
	srv.Options("/api/v1/campaigns/:id/export", preflight, preflightConfig)
	srv.Get("/api/v1/campaigns/:id/export.csv", http.CampaignExportDownloadAction, downloadConfig)

	// === REDIRECTS ===
	// Registered last: every other single segment route wins over a short code.
	srv.Get("/:code", http.RedirectAction(resolver), redirectConfig)
	srv.Head("/:code", http.RedirectAction(resolver), redirectConfig)
}
