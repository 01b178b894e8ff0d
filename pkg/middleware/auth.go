// Package middleware provides HTTP middleware shared by the route packages.
package middleware

import (
	"errors"

	"github.com/amsaleh/atmsim/config"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtProtected guards a route with bearer-token authentication. The parsed
// token is stored in c.Locals("user") for the handler to resolve into a
// principal.
func JwtProtected(cfg config.JwtConfig) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"message": "Access denied. No token provided."})
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"message": "Token has expired. Please login again."})
	}
	return c.Status(fiber.StatusBadRequest).
		JSON(fiber.Map{"message": "Invalid token."})
}
