package main

import (
	"fmt"
	"log/slog"

	"github.com/amsaleh/atmsim/config"
	"github.com/amsaleh/atmsim/infra"
	infrarepo "github.com/amsaleh/atmsim/infra/repository"
	authsvc "github.com/amsaleh/atmsim/pkg/service/auth"
	"github.com/amsaleh/atmsim/pkg/service/ledger"
	"github.com/amsaleh/atmsim/webapi"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger := slog.Default()
	cfg, err := config.Load(logger, ".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := infra.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	uow := infrarepo.NewUoW(db)
	ledgerSvc := ledger.New(uow, logger)
	authSvc := authsvc.New(uow, cfg.Jwt, cfg.Account, logger)

	app := webapi.SetupApp(cfg, db, ledgerSvc, authSvc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server", "env", cfg.Env, "address", addr)
	return app.Listen(addr)
}
