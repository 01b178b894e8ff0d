// Package testutils provides shared helpers for webapi tests: an app wired
// to the in-memory fixture store, and a thin request helper.
package testutils

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/amsaleh/atmsim/config"
	"github.com/amsaleh/atmsim/internal/fixtures"
	authsvc "github.com/amsaleh/atmsim/pkg/service/auth"
	"github.com/amsaleh/atmsim/pkg/service/ledger"
	"github.com/amsaleh/atmsim/webapi"
	"github.com/gofiber/fiber/v2"
)

// TestConfig returns an AppConfig suitable for handler tests.
func TestConfig() *config.AppConfig {
	return &config.AppConfig{
		Env:       "test",
		Jwt:       config.JwtConfig{Secret: "test-secret", Expiry: time.Hour},
		Account:   config.AccountConfig{InitialBalance: 1000},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, Window: time.Minute},
	}
}

// SetupTestApp builds a Fiber app over a fresh in-memory store and returns
// the app, the store, and the auth service for seeding and token minting.
func SetupTestApp() (*fiber.App, *fixtures.Store, *authsvc.Service) {
	cfg := TestConfig()
	store := fixtures.NewStore()
	logger := slog.Default()
	ledgerSvc := ledger.New(store.UoW(), logger)
	authSvc := authsvc.New(store.UoW(), cfg.Jwt, cfg.Account, logger)
	app := webapi.SetupApp(cfg, nil, ledgerSvc, authSvc)
	return app, store, authSvc
}

// MakeRequest performs a JSON request against the app, attaching the bearer
// token when given.
func MakeRequest(app *fiber.App, method, path, body, token string) *http.Response {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}
