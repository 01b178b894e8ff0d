// Package repository defines the data-access interfaces consumed by the
// service layer. Implementations live under infra; tests use the in-memory
// fake from internal/fixtures.
package repository

import (
	"context"

	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	// Get retrieves an account by its id.
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetForUpdate retrieves an account by id, holding a row lock until the
	// surrounding unit of work commits. Outside a unit of work it behaves
	// like Get.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetByCardNumber retrieves an account by its card number.
	GetByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error)

	// GetByCardNumberForUpdate is GetByCardNumber with a row lock.
	GetByCardNumberForUpdate(ctx context.Context, cardNumber string) (*domain.Account, error)

	// Create inserts a new account.
	Create(ctx context.Context, a *domain.Account) error

	// UpdateBalance persists an account's new balance.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance float64) error
}

// TransactionRepository defines the interface for transaction-log access.
// Records are append-only; there is no update or delete.
type TransactionRepository interface {
	// Create appends a transaction record.
	Create(ctx context.Context, tx *domain.Transaction) error

	// ListByAccount returns the full log for an account in insertion order.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error)
}

// UnitOfWork provides a transaction boundary and repository access in one
// abstraction. Repositories obtained inside Do share the same database
// transaction, so mutations spanning several records commit or roll back
// together.
type UnitOfWork interface {
	// Do runs fn inside a transaction boundary. Any error returned by fn
	// rolls the whole unit back and is returned to the caller.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// Accounts returns the account repository bound to the current session.
	Accounts() AccountRepository

	// Transactions returns the transaction repository bound to the current
	// session.
	Transactions() TransactionRepository
}
