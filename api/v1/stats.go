package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/config"
)

// GetStatsHandler serves the aggregated dashboard report for one site.
func GetStatsHandler(ctx *cartridge.Context) error {
	siteID := ctx.Ctx.Params("siteId")
	if siteID == "" {
		return badRequest(ctx, "siteId is required")
	}

	tf, err := parseTimeFrame(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	params := analytics.NewSiteScopedQueryParams(tf, siteID)
	report := analytics.GetStatsReport(context.Background(), ctx.DBManager.GetConnection(), ctx.Logger, params)

	return ctx.Status(http.StatusOK).JSON(report)
}

// GetRealtimeHandler serves the live activity view for one site.
func GetRealtimeHandler(ctx *cartridge.Context) error {
	siteID := ctx.Ctx.Params("siteId")
	if siteID == "" {
		return badRequest(ctx, "siteId is required")
	}

	cfg := config.GetConfig()
	report, err := analytics.GetRealtimeReport(
		ctx.DBManager.GetConnection(), siteID, time.Now(), cfg.RealtimeRecentEventsLimit)
	if err != nil {
		ctx.Logger.Error("Failed to build realtime report",
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

// GetSourcesHandler serves the acquisition breakdown for one site.
func GetSourcesHandler(ctx *cartridge.Context) error {
	siteID := ctx.Ctx.Params("siteId")
	if siteID == "" {
		return badRequest(ctx, "siteId is required")
	}

	tf, err := parseTimeFrame(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	params := analytics.NewSiteScopedQueryParams(tf, siteID)
	report, err := analytics.GetSourcesReport(ctx.DBManager.GetConnection(), params)
	if err != nil {
		ctx.Logger.Error("Failed to build sources report",
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

// GetGeographyHandler serves the geography breakdown for one site.
func GetGeographyHandler(ctx *cartridge.Context) error {
	siteID := ctx.Ctx.Params("siteId")
	if siteID == "" {
		return badRequest(ctx, "siteId is required")
	}

	tf, err := parseTimeFrame(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	params := analytics.NewSiteScopedQueryParams(tf, siteID)
	report, err := analytics.GetGeographyReport(ctx.DBManager.GetConnection(), params)
	if err != nil {
		ctx.Logger.Error("Failed to build geography report",
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}
