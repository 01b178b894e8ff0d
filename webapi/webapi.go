// Package webapi wires the HTTP surface of the ATM backend. It is organized
// into sub-packages per area:
//   - auth: login endpoint
//   - account: balance, deposit, withdraw, transactions, transfer
//   - common: response and binding helpers
package webapi

import (
	"strings"

	"github.com/amsaleh/atmsim/config"
	"github.com/amsaleh/atmsim/infra"
	authsvc "github.com/amsaleh/atmsim/pkg/service/auth"
	"github.com/amsaleh/atmsim/pkg/service/ledger"
	accountweb "github.com/amsaleh/atmsim/webapi/account"
	authweb "github.com/amsaleh/atmsim/webapi/auth"
	"github.com/amsaleh/atmsim/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// SetupApp builds the Fiber application with middleware and all routes.
// db may be nil in tests; the health endpoint then reports the store as
// disconnected.
func SetupApp(cfg *config.AppConfig, db *gorm.DB, ledgerSvc *ledger.Service, authSvc *authsvc.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Default to 500 if status code cannot be determined
			status := fiber.StatusInternalServerError
			message := "Something went wrong!"
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
				message = e.Message
			}
			return common.MessageJSON(c, status, message)
		},
	})

	// Rate limiting keyed by client IP, honoring proxy headers.
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.MessageJSON(c, fiber.StatusTooManyRequests, "Too many requests")
		},
	}))
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/api/health", func(c *fiber.Ctx) error {
		dbState := "disconnected"
		if db != nil && infra.Ping(db) == nil {
			dbState = "connected"
		}
		return c.JSON(fiber.Map{"status": "ok", "db": dbState})
	})

	authweb.Routes(app, authSvc)
	accountweb.Routes(app, ledgerSvc, authSvc, cfg)
	return app
}
