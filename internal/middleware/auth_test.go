package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purse/internal/models"
	"purse/internal/utils"
)

const testSecret = "test-secret"

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(testSecret).Handler, func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user_id": claims.UserID})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := utils.GenerateAccessToken(testSecret, &models.UserClaims{UserID: 7, Email: "ada@example.com"}, time.Minute)
	require.NoError(t, err)
	expired, err := utils.GenerateAccessToken(testSecret, &models.UserClaims{UserID: 7}, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.GenerateAccessToken("other-secret", &models.UserClaims{UserID: 7}, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"expired token", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong signature", "Bearer " + foreign, fiber.StatusUnauthorized},
	}

	app := newTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
