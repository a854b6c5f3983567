package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	apperrors "purse/internal/errors"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return Respond(c, fiber.StatusOK, fiber.Map{"message": message, "data": data})
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": message})
}

// StatusFor maps a domain error kind to an HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return fiber.StatusBadRequest
	case apperrors.KindBusiness:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindExternal:
		return fiber.StatusBadGateway
	case apperrors.KindInfrastructure:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleError writes err as a JSON error response. Domain errors keep their
// message and code; anything else is logged and hidden behind a 500.
func HandleError(c *fiber.Ctx, err error) error {
	de, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": "internal server error"})
	}

	status := StatusFor(de.Kind)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("code", de.Code).Msg("request failed")
	}
	return Respond(c, status, fiber.Map{
		"error":     de.Message,
		"code":      de.Code,
		"retryable": de.Retryable,
	})
}
