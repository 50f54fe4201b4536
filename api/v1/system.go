package v1

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/pkg/geoip"
)

// ReloadGeoIPHandler reopens the GeoLite2 database from disk. Called after
// the operator drops a refreshed database file in place.
func ReloadGeoIPHandler(ctx *cartridge.Context) error {
	geoip.ReloadGeoDB()

	status := "disabled"
	if geoip.GetGeoDB() != nil {
		status = "ok"
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"geoip": status,
	})
}
