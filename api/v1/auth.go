package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/auth"
	"sitepulse/internal/config"
)

// LoginParams carries the admin credentials.
type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler checks the admin credentials and sets the auth cookie. The
// token is also returned in the body for non-browser clients.
func LoginHandler(ctx *cartridge.Context) error {
	var params LoginParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	cfg := config.GetConfig()
	token, err := auth.Login(cfg, params.Username, params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid credentials",
			})
		}
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	ctx.Ctx.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(cfg.GetTokenTTL()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"token": token,
	})
}

// LogoutHandler clears the auth cookie. Tokens stay valid until expiry;
// logout only forgets them client-side.
func LogoutHandler(ctx *cartridge.Context) error {
	ctx.Ctx.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"status": "logged out",
	})
}

// VerifyHandler reports whether the presented token is valid. The admin UI
// polls this on load to decide between dashboard and login screen.
func VerifyHandler(ctx *cartridge.Context) error {
	cfg := config.GetConfig()

	token := ctx.Ctx.Cookies(auth.CookieName)
	if token == "" {
		token = auth.TokenFromHeader(ctx.Get(fiber.HeaderAuthorization))
	}

	claims, err := auth.Verify(cfg, token)
	if err != nil {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"valid": false,
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"valid":     true,
		"expiresAt": claims.ExpiresAt.Time,
	})
}
