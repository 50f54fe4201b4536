package v1

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/timeframe"
)

// parseTimeFrame builds the reporting window from the start/end/granularity
// query parameters. Absent range falls back to the default window; a
// malformed value is a client error.
func parseTimeFrame(ctx *cartridge.Context) (*timeframe.TimeFrame, error) {
	startStr := ctx.Ctx.Query("start")
	endStr := ctx.Ctx.Query("end")

	granularity, err := timeframe.ParseGranularity(ctx.Ctx.Query("granularity"))
	if err != nil {
		return nil, err
	}

	if startStr == "" && endStr == "" {
		tf := timeframe.Default(time.Now())
		tf.Granularity = granularity
		return tf, nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return nil, err
	}

	return timeframe.New(start, end, granularity)
}

func badRequest(ctx *cartridge.Context, message string) error {
	return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
