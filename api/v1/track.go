// Package v1 exposes the JSON API: public tracking plus the admin surfaces
// for analytics, content, media and auth.
package v1

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/events"
)

// TrackPageViewParams is the public tracking payload. Timestamps are never
// accepted from the client; events are stamped server-side at ingestion.
type TrackPageViewParams struct {
	SiteID             string `json:"siteId"`
	PageID             string `json:"pageId"`
	VisitorID          string `json:"visitorId"`
	SessionID          string `json:"sessionId"`
	IsNewVisitor       bool   `json:"isNewVisitor"`
	PageURL            string `json:"pageUrl"`
	PageTitle          string `json:"pageTitle"`
	Referrer           string `json:"referrer"`
	TimeOnPageSeconds  *int   `json:"timeOnPageSeconds"`
	ScrollDepthPercent *int   `json:"scrollDepthPercent"`
}

// TrackPageViewHandler ingests one page view from the tracking snippet.
func TrackPageViewHandler(ctx *cartridge.Context) error {
	var params TrackPageViewParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	referrer := params.Referrer
	if referrer == "" {
		referrer = ctx.Get(fiber.HeaderReferer)
	}

	input := &events.CollectPageViewInput{
		SiteID:             params.SiteID,
		PageID:             params.PageID,
		VisitorID:          params.VisitorID,
		SessionID:          params.SessionID,
		IsNewVisitor:       params.IsNewVisitor,
		PageURL:            params.PageURL,
		PageTitle:          params.PageTitle,
		Referrer:           referrer,
		TimeOnPageSeconds:  params.TimeOnPageSeconds,
		ScrollDepthPercent: params.ScrollDepthPercent,
		UserAgent:          userAgent,
		ForwardedFor:       ctx.Get("X-Forwarded-For"),
		RealIP:             ctx.Get("X-Real-IP"),
		RemoteAddr:         remoteHost(ctx),
	}

	if _, err := events.CollectPageView(ctx.DBManager, ctx.Logger, input); err != nil {
		var validationErr *events.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Error(),
			})
		}

		ctx.Logger.Error("Failed to collect page view", slog.Any("error", err))
		if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy") {
			return ctx.Status(599).JSON(fiber.Map{})
		}
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to record page view",
		})
	}

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
		"status": http.StatusAccepted,
	})
}

// remoteHost strips the port from the raw peer address.
func remoteHost(ctx *cartridge.Context) string {
	remoteAddr := ctx.Ctx.Context().RemoteAddr().String()
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
