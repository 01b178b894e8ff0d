// Package fixtures provides an in-memory account store implementing the
// repository interfaces, for service and webapi tests. Its unit of work
// mirrors the store contract the ledger relies on: units of work are
// serialized, and a failed unit leaves no trace.
package fixtures

import (
	"context"
	"sync"

	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/amsaleh/atmsim/pkg/repository"
	"github.com/google/uuid"
)

// Store is an in-memory account store.
type Store struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.Account
	transactions []*domain.Transaction

	// FailTransactionCreate, when set, makes every transaction append fail
	// with this error. Used to exercise rollback paths.
	FailTransactionCreate error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{accounts: make(map[uuid.UUID]*domain.Account)}
}

// Seed adds an account to the store and returns it.
func (s *Store) Seed(cardNumber, pinHash string, balance float64) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := domain.NewAccount(cardNumber, pinHash, balance)
	s.accounts[a.ID] = a
	return copyAccount(a)
}

// Account returns a snapshot of the stored account.
func (s *Store) Account(id uuid.UUID) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return copyAccount(a)
	}
	return nil
}

// TransactionsFor returns snapshots of the account's log in insertion order.
func (s *Store) TransactionsFor(id uuid.UUID) []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == id {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out
}

// UoW returns a unit of work over the store.
func (s *Store) UoW() repository.UnitOfWork {
	return &uow{store: s}
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	return &cp
}

func (s *Store) snapshot() (map[uuid.UUID]*domain.Account, []*domain.Transaction) {
	accounts := make(map[uuid.UUID]*domain.Account, len(s.accounts))
	for id, a := range s.accounts {
		accounts[id] = copyAccount(a)
	}
	transactions := make([]*domain.Transaction, len(s.transactions))
	copy(transactions, s.transactions)
	return accounts, transactions
}

type uow struct {
	store *Store
	inTx  bool
}

// Do serializes units of work with the store mutex and restores the
// pre-transaction state when fn fails, so callers observe all-or-nothing
// semantics.
func (u *uow) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	accounts, transactions := u.store.snapshot()
	if err := fn(&uow{store: u.store, inTx: true}); err != nil {
		u.store.accounts = accounts
		u.store.transactions = transactions
		return err
	}
	return nil
}

func (u *uow) Accounts() repository.AccountRepository {
	return &accountRepo{store: u.store, inTx: u.inTx}
}

func (u *uow) Transactions() repository.TransactionRepository {
	return &transactionRepo{store: u.store, inTx: u.inTx}
}

type accountRepo struct {
	store *Store
	inTx  bool
}

func (r *accountRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *accountRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	defer r.lock()()
	if a, ok := r.store.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *accountRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.Get(ctx, id)
}

func (r *accountRepo) GetByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error) {
	defer r.lock()()
	for _, a := range r.store.accounts {
		if a.CardNumber == cardNumber {
			return copyAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *accountRepo) GetByCardNumberForUpdate(ctx context.Context, cardNumber string) (*domain.Account, error) {
	return r.GetByCardNumber(ctx, cardNumber)
}

func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	defer r.lock()()
	r.store.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *accountRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance float64) error {
	defer r.lock()()
	a, ok := r.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = balance
	return nil
}

type transactionRepo struct {
	store *Store
	inTx  bool
}

func (r *transactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	if r.store.FailTransactionCreate != nil {
		return r.store.FailTransactionCreate
	}
	cp := *tx
	r.store.transactions = append(r.store.transactions, &cp)
	return nil
}

func (r *transactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	var out []*domain.Transaction
	for _, tx := range r.store.transactions {
		if tx.AccountID == accountID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}
