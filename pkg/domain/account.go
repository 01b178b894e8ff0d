// Package domain holds the account aggregate and transaction record for the
// ATM ledger, together with the error taxonomy shared by the service and web
// layers.
//
// Invariants:
//   - An account balance is never negative after a committed operation.
//   - Transactions are append-only; once created they are never mutated.
//   - A transfer debits the sender and credits the recipient by the same
//     amount, so the total balance across both accounts is conserved.
package domain

import (
	"errors"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidAmount is returned when an operation amount is missing, zero,
	// negative, or not a finite number. No state is touched.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRequest is returned when a transfer request is missing its
	// destination card or a usable amount.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCardNumber is returned when a destination card number does not
	// have a valid card-number shape.
	ErrInvalidCardNumber = errors.New("invalid card number")

	// ErrInsufficientFunds is returned when a withdrawal or transfer would
	// drive the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound is returned when an account id does not resolve to an
	// existing account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrSenderNotFound is returned by transfer when the authenticated
	// sender's account no longer exists.
	ErrSenderNotFound = errors.New("sender account not found")

	// ErrRecipientNotFound is returned by transfer when the destination card
	// number does not resolve to an account.
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrCannotTransferToSameAccount is returned when a transfer names the
	// sender's own card as the destination.
	ErrCannotTransferToSameAccount = errors.New("cannot transfer to same account")

	// ErrNilAccount is returned when a nil account is handed to a transfer.
	ErrNilAccount = errors.New("nil account")

	// ErrInvalidPIN is returned when the PIN does not match an existing card.
	ErrInvalidPIN = errors.New("invalid PIN for existing card")
)

// cardNumberRe matches the accepted card-number shape: digits only, at least
// ten of them.
var cardNumberRe = regexp.MustCompile(`^[0-9]{10,19}$`)

// ValidCardNumber reports whether s has a valid card-number shape.
func ValidCardNumber(s string) bool {
	return cardNumberRe.MatchString(s)
}

// TransactionKind classifies a balance-affecting event.
type TransactionKind string

const (
	KindDeposit  TransactionKind = "deposit"
	KindWithdraw TransactionKind = "withdraw"
	KindTransfer TransactionKind = "transfer"
)

// Transaction is an immutable, timestamped record of one balance-affecting
// event. Transfer records carry exactly one counterparty card: ToCardNumber
// on the sender's record, FromCardNumber on the recipient's.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"-"`
	Kind           TransactionKind `json:"type"`
	Amount         float64         `json:"amount"`
	ToCardNumber   string          `json:"toCardNumber,omitempty"`
	FromCardNumber string          `json:"fromCardNumber,omitempty"`
	CreatedAt      time.Time       `json:"date"`
}

// Account is a card-identified balance plus an append-only transaction log.
// The PIN hash is owned by the auth layer and opaque to the ledger.
type Account struct {
	ID         uuid.UUID
	CardNumber string
	PINHash    string
	Balance    float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAccount creates an account for the given card with a starting balance.
func NewAccount(cardNumber, pinHash string, initialBalance float64) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:         uuid.New(),
		CardNumber: cardNumber,
		PINHash:    pinHash,
		Balance:    initialBalance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ValidateAmount checks that amount is a finite positive number.
func ValidateAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

func (a *Account) newTransaction(kind TransactionKind, amount float64) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		AccountID: a.ID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// Deposit credits the account and returns the deposit transaction record.
func (a *Account) Deposit(amount float64) (*Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	a.Balance += amount
	a.UpdatedAt = time.Now().UTC()
	return a.newTransaction(KindDeposit, amount), nil
}

// Withdraw debits the account and returns the withdraw transaction record.
// The balance is never allowed to go negative.
func (a *Account) Withdraw(amount float64) (*Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if amount > a.Balance {
		return nil, ErrInsufficientFunds
	}
	a.Balance -= amount
	a.UpdatedAt = time.Now().UTC()
	return a.newTransaction(KindWithdraw, amount), nil
}

// TransferTo moves amount from a to dest and returns the pair of transfer
// records: the sender's outgoing record naming the destination card and the
// recipient's incoming record naming the source card. Both accounts are
// mutated, or neither; persisting the pair atomically is the caller's job.
func (a *Account) TransferTo(dest *Account, amount float64) (out, in *Transaction, err error) {
	if a == nil || dest == nil {
		return nil, nil, ErrNilAccount
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	if a.CardNumber == dest.CardNumber {
		return nil, nil, ErrCannotTransferToSameAccount
	}
	if amount > a.Balance {
		return nil, nil, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	a.Balance -= amount
	a.UpdatedAt = now
	dest.Balance += amount
	dest.UpdatedAt = now

	out = a.newTransaction(KindTransfer, amount)
	out.ToCardNumber = dest.CardNumber
	in = dest.newTransaction(KindTransfer, amount)
	in.FromCardNumber = a.CardNumber
	return out, in, nil
}
