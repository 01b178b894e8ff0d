// Command seed provisions well-known ATM accounts for local development and
// demos. Without flags it upserts a fixed set of cards; with -card it
// creates a single account, prompting for the PIN on the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/amsaleh/atmsim/config"
	"github.com/amsaleh/atmsim/infra"
	infrarepo "github.com/amsaleh/atmsim/infra/repository"
	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/amsaleh/atmsim/pkg/repository"
	authsvc "github.com/amsaleh/atmsim/pkg/service/auth"
	log "github.com/charmbracelet/log"
	"github.com/fatih/color"
	"golang.org/x/term"
)

type seedAccount struct {
	cardNumber string
	pin        string
	balance    float64
}

// defaultAccounts mirrors the long-standing demo data set.
var defaultAccounts = []seedAccount{
	{cardNumber: "1234567890", pin: "1234", balance: 1000},
	{cardNumber: "9876543210", pin: "1111", balance: 500},
	{cardNumber: "1111222233", pin: "2222", balance: 800},
	{cardNumber: "5555666677", pin: "3333", balance: 300},
}

func main() {
	card := flag.String("card", "", "card number for a single custom account")
	balance := flag.Float64("balance", 1000, "starting balance for the custom account")
	flag.Parse()

	if err := run(*card, *balance); err != nil {
		log.Fatal(err)
	}
}

func run(card string, balance float64) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
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

	if card != "" {
		return seedCustom(uow, card, balance)
	}

	for _, acc := range defaultAccounts {
		created, err := upsert(uow, acc)
		if err != nil {
			return fmt.Errorf("failed to seed card %s: %w", acc.cardNumber, err)
		}
		if created {
			color.Green("Seeded card %s (PIN %s, balance %.2f)", acc.cardNumber, acc.pin, acc.balance)
		} else {
			color.Yellow("Card %s already exists, skipped", acc.cardNumber)
		}
	}
	color.Green("Seeding complete.")
	return nil
}

func seedCustom(uow repository.UnitOfWork, card string, balance float64) error {
	if !domain.ValidCardNumber(card) {
		return fmt.Errorf("card number %q is not valid (10-19 digits)", card)
	}

	fmt.Fprint(os.Stderr, "PIN: ")
	pinBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read PIN: %w", err)
	}
	if len(pinBytes) == 0 {
		return errors.New("PIN must not be empty")
	}

	created, err := upsert(uow, seedAccount{cardNumber: card, pin: string(pinBytes), balance: balance})
	if err != nil {
		return err
	}
	if !created {
		color.Yellow("Card %s already exists, nothing to do", card)
		return nil
	}
	color.Green("Account created.")
	color.Green("Card Number: %s", card)
	color.Green("Initial Balance: %.2f", balance)
	return nil
}

// upsert creates the account unless the card already exists. Reports whether
// a new account was created.
func upsert(uow repository.UnitOfWork, acc seedAccount) (bool, error) {
	ctx := context.Background()
	created := false
	err := uow.Do(ctx, func(uow repository.UnitOfWork) error {
		_, err := uow.Accounts().GetByCardNumber(ctx, acc.cardNumber)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}
		pinHash, err := authsvc.HashPIN(acc.pin)
		if err != nil {
			return err
		}
		created = true
		return uow.Accounts().Create(ctx, domain.NewAccount(acc.cardNumber, pinHash, acc.balance))
	})
	return created, err
}
