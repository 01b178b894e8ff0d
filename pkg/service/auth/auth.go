// Package auth verifies card-and-PIN credentials and issues the JWT
// principals the ledger trusts. Unknown cards are provisioned on first
// login with the configured starting balance, matching classic ATM-simulator
// behavior.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amsaleh/atmsim/config"
	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/amsaleh/atmsim/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned when a presented token cannot be resolved to a
// principal.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the verified identity attached to an authenticated request.
type Principal struct {
	AccountID  uuid.UUID
	CardNumber string
}

// Service implements PIN login and token handling.
type Service struct {
	uow    repository.UnitOfWork
	jwtCfg config.JwtConfig
	accCfg config.AccountConfig
	logger *slog.Logger
}

// New creates an auth service.
func New(uow repository.UnitOfWork, jwtCfg config.JwtConfig, accCfg config.AccountConfig, logger *slog.Logger) *Service {
	return &Service{uow: uow, jwtCfg: jwtCfg, accCfg: accCfg, logger: logger}
}

// HashPIN hashes a PIN with bcrypt.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPIN reports whether pin matches the stored hash.
func CheckPIN(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// Login authenticates a card number and PIN and returns a signed token.
// A card that has never been seen gets a new account with the configured
// initial balance; an existing card must present the matching PIN.
func (s *Service) Login(ctx context.Context, cardNumber, pin string) (string, error) {
	logger := s.logger.With("cardNumber", cardNumber)

	var account *domain.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		a, err := uow.Accounts().GetByCardNumber(ctx, cardNumber)
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			pinHash, err := HashPIN(pin)
			if err != nil {
				return err
			}
			a = domain.NewAccount(cardNumber, pinHash, s.accCfg.InitialBalance)
			if err := uow.Accounts().Create(ctx, a); err != nil {
				return err
			}
			logger.Info("Account created on first login", "accountID", a.ID, "balance", a.Balance)
		case err != nil:
			return err
		default:
			if !CheckPIN(pin, a.PINHash) {
				return domain.ErrInvalidPIN
			}
		}
		account = a
		return nil
	})
	if err != nil {
		logger.Error("Login failed", "error", err)
		return "", err
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		logger.Error("GenerateToken failed", "error", err)
		return "", err
	}
	logger.Info("Login successful", "accountID", account.ID)
	return token, nil
}

// GenerateToken signs a token carrying the account id and card number.
func (s *Service) GenerateToken(a *domain.Account) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["account_id"] = a.ID.String()
	claims["card_number"] = a.CardNumber
	claims["exp"] = time.Now().Add(s.jwtCfg.Expiry).Unix()
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

// CurrentPrincipal extracts the verified principal from a parsed token.
func (s *Service) CurrentPrincipal(token *jwt.Token) (Principal, error) {
	if token == nil {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	rawID, ok := claims["account_id"].(string)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	accountID, err := uuid.Parse(rawID)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	cardNumber, ok := claims["card_number"].(string)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	return Principal{AccountID: accountID, CardNumber: cardNumber}, nil
}
