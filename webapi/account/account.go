// Package account exposes the ledger operations over HTTP: balance,
// deposit, withdraw, transaction history, and transfer.
package account

import (
	"errors"

	"github.com/amsaleh/atmsim/config"
	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/amsaleh/atmsim/pkg/middleware"
	authsvc "github.com/amsaleh/atmsim/pkg/service/auth"
	"github.com/amsaleh/atmsim/pkg/service/ledger"
	"github.com/amsaleh/atmsim/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

// Routes registers the account endpoints. All of them require a valid
// bearer token; the identity in the token picks the account, so no account
// id appears in any path.
//
//   - GET  /api/account/balance      : current balance
//   - POST /api/account/deposit      : credit funds
//   - POST /api/account/withdraw     : debit funds
//   - GET  /api/account/transactions : full transaction history
//   - POST /api/account/transfer     : move funds to another card
func Routes(app *fiber.App, ledgerSvc *ledger.Service, authSvc *authsvc.Service, cfg *config.AppConfig) {
	g := app.Group("/api/account", middleware.JwtProtected(cfg.Jwt))
	g.Get("/balance", GetBalance(ledgerSvc, authSvc))
	g.Post("/deposit", Deposit(ledgerSvc, authSvc))
	g.Post("/withdraw", Withdraw(ledgerSvc, authSvc))
	g.Get("/transactions", GetTransactions(ledgerSvc, authSvc))
	g.Post("/transfer", Transfer(ledgerSvc, authSvc))
}

// currentPrincipal resolves the request's principal from the parsed token.
// On failure it writes the error response and returns false.
func currentPrincipal(c *fiber.Ctx, authSvc *authsvc.Service) (authsvc.Principal, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		_ = common.MessageJSON(c, fiber.StatusUnauthorized, "Access denied. No token provided.")
		return authsvc.Principal{}, false
	}
	p, err := authSvc.CurrentPrincipal(token)
	if err != nil {
		log.Errorf("Failed to resolve principal: %v", err)
		_ = common.MessageJSON(c, fiber.StatusBadRequest, "Invalid token.")
		return authsvc.Principal{}, false
	}
	return p, true
}

// GetBalance returns a handler serving the current balance of the
// authenticated account.
func GetBalance(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := currentPrincipal(c, authSvc)
		if !ok {
			return nil
		}
		balance, err := ledgerSvc.GetBalance(c.Context(), p.AccountID)
		if err != nil {
			log.Errorf("Error fetching balance: %v", err)
			return common.MessageJSON(c, common.ErrorToStatusCode(err),
				failureMessage(err, "Failed to fetch balance. Please try again."))
		}
		return c.JSON(fiber.Map{"balance": balance})
	}
}

// Deposit returns a handler crediting funds to the authenticated account.
func Deposit(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := currentPrincipal(c, authSvc)
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[DepositRequest](c, "Invalid amount")
		if input == nil {
			return err
		}
		balance, err := ledgerSvc.Deposit(c.Context(), p.AccountID, input.Amount)
		if err != nil {
			log.Errorf("Error processing deposit: %v", err)
			return common.MessageJSON(c, common.ErrorToStatusCode(err),
				failureMessage(err, "Failed to process deposit. Please try again."))
		}
		return c.JSON(fiber.Map{"balance": balance})
	}
}

// Withdraw returns a handler debiting funds from the authenticated account.
func Withdraw(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := currentPrincipal(c, authSvc)
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[WithdrawRequest](c, "Invalid amount")
		if input == nil {
			return err
		}
		balance, err := ledgerSvc.Withdraw(c.Context(), p.AccountID, input.Amount)
		if err != nil {
			log.Errorf("Error processing withdrawal: %v", err)
			return common.MessageJSON(c, common.ErrorToStatusCode(err),
				failureMessage(err, "Failed to process withdrawal. Please try again."))
		}
		return c.JSON(fiber.Map{"balance": balance})
	}
}

// GetTransactions returns a handler listing the authenticated account's
// transaction history in chronological order.
func GetTransactions(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := currentPrincipal(c, authSvc)
		if !ok {
			return nil
		}
		txs, err := ledgerSvc.ListTransactions(c.Context(), p.AccountID)
		if err != nil {
			log.Errorf("Error fetching transactions: %v", err)
			return common.MessageJSON(c, common.ErrorToStatusCode(err),
				failureMessage(err, "Failed to fetch transactions. Please try again."))
		}
		if txs == nil {
			txs = []*domain.Transaction{}
		}
		return c.JSON(fiber.Map{"transactions": txs})
	}
}

// Transfer returns a handler moving funds from the authenticated account to
// another card.
func Transfer(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := currentPrincipal(c, authSvc)
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[TransferRequest](c, "Invalid request")
		if input == nil {
			return err
		}
		if err := ledgerSvc.Transfer(c.Context(), p.CardNumber, input.ToCardNumber, input.Amount); err != nil {
			log.Errorf("Error processing transfer: %v", err)
			return common.MessageJSON(c, common.ErrorToStatusCode(err),
				failureMessage(err, "Transfer failed. Please try again."))
		}
		return c.JSON(fiber.Map{"message": "Transfer successful"})
	}
}

// failureMessage maps a domain error to its user-visible message, falling
// back to the route's generic message for unexpected failures.
func failureMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Invalid amount"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "Invalid request"
	case errors.Is(err, domain.ErrInvalidCardNumber):
		return "Invalid destination card number"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient balance"
	case errors.Is(err, domain.ErrCannotTransferToSameAccount):
		return "Cannot transfer to your own card"
	case errors.Is(err, domain.ErrSenderNotFound):
		return "Sender account not found"
	case errors.Is(err, domain.ErrRecipientNotFound):
		return "Recipient card number not found"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "Account not found"
	default:
		return fallback
	}
}
