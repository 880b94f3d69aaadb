package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusconnect/internal/auth"
	"campusconnect/internal/logging"
	"campusconnect/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(tokens *auth.TokenService) *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(tokens, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserID(c))
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenService("test_secret")
	app := newApp(tokens)

	token, err := tokens.Issue("user-7")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid", "Bearer " + token, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "user-7", string(body))
			}
		})
	}
}
