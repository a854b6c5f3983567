package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"purse/internal/services/webhook"
	"purse/internal/utils"
)

// SignatureHeader carries the shared secret configured on the gateway dashboard.
const SignatureHeader = "verif-hash"

type WebhookHandler struct {
	webhookService webhook.Service
}

func NewWebhookHandler(webhookService webhook.Service) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

func (h *WebhookHandler) Listen(c *fiber.Ctx) error {
	n, err := webhook.DecodeNotification(c.Body())
	if err != nil {
		log.Warn().Err(err).Msg("rejected webhook payload")
		return utils.HandleError(c, err)
	}

	outcome, err := h.webhookService.ProcessPaymentWebhook(c.UserContext(), n, c.Get(SignatureHeader))
	if err != nil {
		return utils.HandleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Webhook processed",
		"outcome": outcome,
	})
}
