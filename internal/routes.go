package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "sitepulse/api/v1"
	"sitepulse/internal/auth"
	"sitepulse/internal/config"
	"sitepulse/internal/media"
)

// publicCORSConfig returns the standard CORS configuration for public endpoints.
// The tracking snippet and public content API are served cross-origin from the
// marketing site, so these stay permissive.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Media handlers resolve their blob store from package state because
	// cartridge.Context only carries the logger and DB manager.
	if cfg.MediaDirectory != "" {
		store, err := media.NewDiskStore(cfg.MediaDirectory)
		if err != nil {
			srv.GetLogger().Error("Media store unavailable", slog.Any("error", err))
		} else {
			v1.SetMediaStore(store)
		}
	}

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Rate limiter for public ingestion and content reads (70 requests per minute per IP)
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Stricter rate limiter for auth endpoints (10 requests per minute)
	// Prevents brute force login attempts
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Public API config (page view ingestion and published content reads)
	// CORS runs first ensuring error responses carry CORS headers
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	// Admin routes require a valid admin token via cookie or bearer header
	adminConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware: []fiber.Handler{
			auth.RequireAdmin(cfg),
		},
	}

	loginConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{authRateLimiter},
	}

	noContent := func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	// === HEALTH ===
	srv.Get("/_health", v1.HealthHandler)
	srv.Head("/_health", v1.HealthHandler)

	// === PUBLIC TRACKING API ===
	srv.Post("/api/v1/analytics/track", v1.TrackPageViewHandler, publicAPIConfig)
	srv.Options("/api/v1/analytics/track", noContent, publicAPIConfig)

	// === PUBLIC CONTENT API ===
	srv.Get("/api/v1/content/:siteId/:page", v1.GetPageContentHandler, publicAPIConfig)
	srv.Options("/api/v1/content/:siteId/:page", noContent, publicAPIConfig)
	srv.Get("/api/v1/pages/:siteId", v1.ListPublishedPagesHandler, publicAPIConfig)
	srv.Options("/api/v1/pages/:siteId", noContent, publicAPIConfig)

	// === AUTHENTICATION ===
	srv.Post("/api/v1/auth/login", v1.LoginHandler, loginConfig)
	srv.Post("/api/v1/auth/logout", v1.LogoutHandler)
	srv.Get("/api/v1/auth/verify", v1.VerifyHandler)

	// === ADMIN ANALYTICS API ===
	srv.Get("/api/v1/analytics/:siteId/stats", v1.GetStatsHandler, adminConfig)
	srv.Get("/api/v1/analytics/:siteId/realtime", v1.GetRealtimeHandler, adminConfig)
	srv.Get("/api/v1/analytics/:siteId/sources", v1.GetSourcesHandler, adminConfig)
	srv.Get("/api/v1/analytics/:siteId/geography", v1.GetGeographyHandler, adminConfig)

	// === ADMIN CONTENT API ===
	srv.Post("/api/v1/content/blocks", v1.UpsertBlockHandler, adminConfig)
	srv.Delete("/api/v1/content/:siteId/:page/:blockKey", v1.DeleteBlockHandler, adminConfig)
	srv.Post("/api/v1/pages", v1.UpsertPageHandler, adminConfig)
	srv.Get("/api/v1/admin/pages/:siteId", v1.ListPagesHandler, adminConfig)

	// === ADMIN SYSTEM API ===
	srv.Post("/api/v1/system/geoip/reload", v1.ReloadGeoIPHandler, adminConfig)

	// === ADMIN MEDIA API ===
	srv.Post("/api/v1/media", v1.UploadMediaHandler, adminConfig)
	srv.Get("/api/v1/media", v1.ListMediaHandler, adminConfig)
	srv.Delete("/api/v1/media/:key", v1.DeleteMediaHandler, adminConfig)
}
