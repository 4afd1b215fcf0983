package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/larder-app/larder/internal/auth"
	"github.com/larder-app/larder/internal/auth/token"
	"github.com/larder-app/larder/internal/web/handler/login"
	"github.com/larder-app/larder/internal/web/handler/profile"
)

// AuthRedirectMiddleware sends anonymous browsers to the login page and
// signed-in ones away from it. The route guards still enforce access; this
// only shapes navigation.
func AuthRedirectMiddleware(tokens *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		originalURL := strings.ToLower(c.OriginalURL())

		if strings.HasPrefix(originalURL, "/static") ||
			strings.HasPrefix(originalURL, "/auth/oidc") ||
			strings.HasPrefix(originalURL, CheckAlivePath) {
			return c.Next()
		}

		isLoginPage := IsLoginPage(c)

		raw := c.Cookies(auth.TokenCookie)
		if raw == "" && !isLoginPage {
			return c.Redirect(login.Path)
		}

		var sessionValid bool
		if raw != "" {
			if _, err := tokens.Parse(raw); err == nil {
				sessionValid = true
			}
		}

		if sessionValid && isLoginPage {
			return c.Redirect(profile.Path)
		}

		return c.Next()
	}
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, login.Path)
}
