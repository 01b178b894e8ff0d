package repository

import (
	"context"

	"github.com/amsaleh/atmsim/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides a transaction boundary and repository access in one
// abstraction. Repositories obtained from a UoW inside Do share the database
// transaction, so a transfer's two account updates and two log appends
// commit or roll back together.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// Do runs fn in a transaction boundary, handing it a UoW whose repositories
// are bound to that transaction. Returning an error rolls everything back.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// Accounts returns the account repository bound to the current session.
func (u *UoW) Accounts() repository.AccountRepository {
	return NewAccountRepository(u.session())
}

// Transactions returns the transaction repository bound to the current
// session.
func (u *UoW) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(u.session())
}
