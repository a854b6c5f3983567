package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "purse/internal/errors"
	"purse/internal/services/webhook"
)

func setupWebhookApp(svc webhook.Service) *fiber.App {
	app := fiber.New()
	app.Post("/webhook/listen", NewWebhookHandler(svc).Listen)
	return app
}

func TestWebhookHandler_Listen(t *testing.T) {
	svc := new(MockWebhookService)
	svc.On("ProcessPaymentWebhook", mock.Anything, mock.MatchedBy(func(n webhook.Notification) bool {
		return n.TxRef == "fund-42-1700000000000" && n.Status == "successful" && n.Amount.String() == "500"
	}), "s3cret").Return(webhook.OutcomeFunded, nil)
	app := setupWebhookApp(svc)

	body := `{"event":"charge.completed","data":{"tx_ref":"fund-42-1700000000000","status":"successful","amount":500}}`
	code, out := doJSON(t, app, "POST", "/webhook/listen", body, map[string]string{SignatureHeader: "s3cret"})

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Webhook processed", out["message"])
	assert.Equal(t, string(webhook.OutcomeFunded), out["outcome"])
	svc.AssertExpectations(t)
}

func TestWebhookHandler_Listen_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"bad signature", apperrors.ErrInvalidSignature, fiber.StatusBadRequest},
		{"bad txRef", apperrors.ErrInvalidTransactionDetails, fiber.StatusBadRequest},
		{"verification error", apperrors.ErrFailedToVerifyPayment, fiber.StatusBadGateway},
		{"store down", apperrors.ErrStoreUnavailable, fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWebhookService)
			svc.On("ProcessPaymentWebhook", mock.Anything, mock.Anything, "").Return(webhook.Outcome(""), tt.err)
			app := setupWebhookApp(svc)

			code, out := doJSON(t, app, "POST", "/webhook/listen", `{"txRef":"fund-1-1","status":"successful","amount":1}`, nil)

			assert.Equal(t, tt.wantCode, code)
			de, ok := apperrors.As(tt.err)
			require.True(t, ok)
			assert.Equal(t, de.Code, out["code"])
		})
	}
}

func TestWebhookHandler_Listen_MalformedBody(t *testing.T) {
	svc := new(MockWebhookService)
	app := setupWebhookApp(svc)

	code, out := doJSON(t, app, "POST", "/webhook/listen", `not json`, nil)

	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, apperrors.ErrInvalidWebhookData.Code, out["code"])
	svc.AssertNotCalled(t, "ProcessPaymentWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]Check
		want   int
		status string
	}{
		{"all up", map[string]Check{"database": ok, "redis": ok}, fiber.StatusOK, "ok"},
		{"redis down", map[string]Check{"database": ok, "redis": down}, fiber.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler(tt.checks, nil).HealthCheck)

			resp, err := app.Test(httptest.NewRequest("GET", "/health", strings.NewReader("")))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHealthHandler_Stats(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler(
		map[string]Check{"redis": func(context.Context) error { return nil }},
		map[string]Stats{"redis_pool": func() interface{} { return map[string]int{"total_conns": 3} }},
	)
	app.Get("/health", h.HealthCheck)

	code, body := doJSON(t, app, "GET", "/health", "", nil)

	assert.Equal(t, fiber.StatusOK, code)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, 3.0, stats["redis_pool"].(map[string]interface{})["total_conns"])
}
