package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larder-app/larder/internal/db/models"
)

func newMiddlewareTestApp(t *testing.T) (*fiber.App, string, string) {
	t.Helper()

	tokens := newTestTokenIssuer(t)

	userToken, _, err := tokens.Issue(&models.User{ID: 1, Username: "alice"}, false)
	require.NoError(t, err)

	adminToken, _, err := tokens.Issue(&models.User{ID: 2, Username: "root", Admin: true}, false)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", RequireUser(tokens), func(c *fiber.Ctx) error {
		return c.SendString(ClaimsFromContext(c).Username)
	})
	app.Get("/admin", RequireAdmin(tokens), func(c *fiber.Ctx) error {
		return c.SendString(ClaimsFromContext(c).Username)
	})

	return app, userToken, adminToken
}

func TestRequireUser(t *testing.T) {
	app, userToken, _ := newMiddlewareTestApp(t)

	testCases := []struct {
		name           string
		setup          func(r *http.Request)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no token",
			setup:          func(_ *http.Request) {},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name: "garbage token",
			setup: func(r *http.Request) {
				r.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
			},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name: "token from cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: userToken})
			},
			expectedStatus: fiber.StatusOK,
			expectedBody:   "alice",
		},
		{
			name: "token from bearer header",
			setup: func(r *http.Request) {
				r.Header.Set(fiber.HeaderAuthorization, "Bearer "+userToken)
			},
			expectedStatus: fiber.StatusOK,
			expectedBody:   "alice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			if tc.expectedBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tc.expectedBody, string(body))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	app, userToken, adminToken := newMiddlewareTestApp(t)

	testCases := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "no token", token: "", expectedStatus: fiber.StatusUnauthorized},
		{name: "regular user", token: userToken, expectedStatus: fiber.StatusForbidden},
		{name: "admin", token: adminToken, expectedStatus: fiber.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tc.token})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
		})
	}
}
