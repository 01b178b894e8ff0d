// Package auth exposes the login endpoint.
package auth

import (
	"errors"

	"github.com/amsaleh/atmsim/pkg/domain"
	authsvc "github.com/amsaleh/atmsim/pkg/service/auth"
	"github.com/amsaleh/atmsim/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the authentication endpoints.
func Routes(app *fiber.App, authSvc *authsvc.Service) {
	app.Post("/api/auth/login", Login(authSvc))
}

// Login authenticates a card number and PIN and returns a bearer token.
// A card that has never logged in before gets a fresh account with the
// configured starting balance.
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginRequest](c, "Card number and PIN are required")
		if input == nil {
			return err
		}
		token, err := authSvc.Login(c.Context(), input.CardNumber, input.Pin)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidPIN) {
				return common.MessageJSON(c, fiber.StatusBadRequest, "Invalid PIN for existing card")
			}
			log.Errorf("Login error: %v", err)
			return common.MessageJSON(c, fiber.StatusInternalServerError,
				"An error occurred during login. Please try again.")
		}
		return c.JSON(fiber.Map{"token": token})
	}
}
