package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/larder-app/larder/internal/auth/token"
)

const (
	// TokenCookie is the cookie carrying the issued access token.
	TokenCookie = "access_token"

	// ClaimsLocal is the fiber.Locals key under which the validated token
	// claims are stored for downstream handlers.
	ClaimsLocal = "user_claims"
)

// tokenFromRequest extracts the raw access token from the cookie or the
// Authorization header.
func tokenFromRequest(c *fiber.Ctx) string {
	if raw := c.Cookies(TokenCookie); raw != "" {
		return raw
	}

	const bearerPrefix = "Bearer "

	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimPrefix(h, bearerPrefix)
	}

	return ""
}

// RequireUser creates Fiber middleware that requires a valid access token.
// The validated claims are stored in fiber.Locals for downstream handlers.
func RequireUser(tokens *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			log.Debug().Msg("rejected request with invalid access token")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		c.Locals(ClaimsLocal, claims)

		return c.Next()
	}
}

// RequireAdmin creates Fiber middleware that requires a valid access token
// of an administrator.
func RequireAdmin(tokens *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			log.Debug().Msg("rejected request with invalid access token")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		if !claims.Admin {
			log.Warn().Str("username", claims.Username).Msg("non-admin user denied admin resource")
			return c.Status(fiber.StatusForbidden).SendString("Forbidden")
		}

		c.Locals(ClaimsLocal, claims)

		return c.Next()
	}
}

// ClaimsFromContext returns the validated token claims stored by the
// middleware, or nil when the request is unauthenticated.
func ClaimsFromContext(c *fiber.Ctx) *token.UserClaims {
	claims, _ := c.Locals(ClaimsLocal).(*token.UserClaims)
	return claims
}
