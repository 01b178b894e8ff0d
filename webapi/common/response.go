// Package common holds the response and request-binding helpers shared by
// the route packages. All error bodies follow the `{message}` convention of
// the API contract.
package common

import (
	"errors"

	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MessageJSON writes a `{message}` body with the given status.
func MessageJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// ErrorToStatusCode maps domain errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrSenderNotFound),
		errors.Is(err, domain.ErrRecipientNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidCardNumber),
		errors.Is(err, domain.ErrCannotTransferToSameAccount),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidPIN):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body into T and validates it with
// go-playground/validator. On failure it writes a `{message}` response with
// failMessage and returns nil.
func BindAndValidate[T any](c *fiber.Ctx, failMessage string) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, MessageJSON(c, fiber.StatusBadRequest, failMessage)
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return nil, MessageJSON(c, fiber.StatusBadRequest, failMessage)
	}
	return &input, nil
}
