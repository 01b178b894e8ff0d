// Package repository contains the GORM implementations of the data-access
// interfaces in pkg/repository.
package repository

import (
	"context"
	"errors"

	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/amsaleh/atmsim/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns an AccountRepository backed by db. When db is
// a transaction session, locking reads hold their row locks until commit.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func toDomainAccount(m *Account) *domain.Account {
	return &domain.Account{
		ID:         m.ID,
		CardNumber: m.CardNumber,
		PINHash:    m.PINHash,
		Balance:    m.Balance,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *accountRepository) get(ctx context.Context, lock bool, query string, args ...any) (*domain.Account, error) {
	tx := r.db.WithContext(ctx)
	if lock {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m Account
	result := tx.Where(query, args...).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, result.Error
	}
	return toDomainAccount(&m), nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.get(ctx, false, "id = ?", id)
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.get(ctx, true, "id = ?", id)
}

func (r *accountRepository) GetByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error) {
	return r.get(ctx, false, "card_number = ?", cardNumber)
}

func (r *accountRepository) GetByCardNumberForUpdate(ctx context.Context, cardNumber string) (*domain.Account, error) {
	return r.get(ctx, true, "card_number = ?", cardNumber)
}

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	m := Account{
		ID:         a.ID,
		CardNumber: a.CardNumber,
		PINHash:    a.PINHash,
		Balance:    a.Balance,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *accountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance float64) error {
	result := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository returns a TransactionRepository backed by db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	m := Transaction{
		ID:             tx.ID,
		AccountID:      tx.AccountID,
		Kind:           string(tx.Kind),
		Amount:         tx.Amount,
		ToCardNumber:   tx.ToCardNumber,
		FromCardNumber: tx.FromCardNumber,
		CreatedAt:      tx.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	var models []Transaction
	result := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	txs := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		m := &models[i]
		txs = append(txs, &domain.Transaction{
			ID:             m.ID,
			AccountID:      m.AccountID,
			Kind:           domain.TransactionKind(m.Kind),
			Amount:         m.Amount,
			ToCardNumber:   m.ToCardNumber,
			FromCardNumber: m.FromCardNumber,
			CreatedAt:      m.CreatedAt,
		})
	}
	return txs, nil
}
