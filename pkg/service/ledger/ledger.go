// Package ledger provides the account-ledger transaction engine: deposits,
// withdrawals, balance and history reads, and the two-account transfer.
//
// All balance mutations run inside a unit of work with the affected account
// rows locked, so concurrent operations on one account serialize and a
// transfer's debit and credit commit or roll back together. The engine holds
// no mutable state of its own and never retries; retries are the caller's
// responsibility.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/amsaleh/atmsim/pkg/repository"
	"github.com/google/uuid"
)

// Service applies balance-affecting operations against the account store.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a ledger service using the given unit of work.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// GetBalance returns the current balance of the account.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (float64, error) {
	a, err := s.uow.Accounts().Get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// ListTransactions returns the account's full transaction log in
// chronological order.
func (s *Service) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	if _, err := s.uow.Accounts().Get(ctx, accountID); err != nil {
		return nil, err
	}
	return s.uow.Transactions().ListByAccount(ctx, accountID)
}

// Deposit credits amount to the account and appends a deposit record.
// Returns the new balance.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount float64) (float64, error) {
	logger := s.logger.With("accountID", accountID, "amount", amount)
	if err := domain.ValidateAmount(amount); err != nil {
		return 0, err
	}

	var newBalance float64
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		a, err := uow.Accounts().GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		tx, err := a.Deposit(amount)
		if err != nil {
			return err
		}
		if err := uow.Accounts().UpdateBalance(ctx, a.ID, a.Balance); err != nil {
			return err
		}
		if err := uow.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		newBalance = a.Balance
		return nil
	})
	if err != nil {
		logger.Error("Deposit failed", "error", err)
		return 0, err
	}
	logger.Info("Deposit successful", "balance", newBalance)
	return newBalance, nil
}

// Withdraw debits amount from the account and appends a withdraw record.
// Returns the new balance.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, amount float64) (float64, error) {
	logger := s.logger.With("accountID", accountID, "amount", amount)
	if err := domain.ValidateAmount(amount); err != nil {
		return 0, err
	}

	var newBalance float64
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		a, err := uow.Accounts().GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		tx, err := a.Withdraw(amount)
		if err != nil {
			return err
		}
		if err := uow.Accounts().UpdateBalance(ctx, a.ID, a.Balance); err != nil {
			return err
		}
		if err := uow.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		newBalance = a.Balance
		return nil
	})
	if err != nil {
		logger.Error("Withdraw failed", "error", err)
		return 0, err
	}
	logger.Info("Withdraw successful", "balance", newBalance)
	return newBalance, nil
}

// Transfer moves amount from the sender's account to the account holding
// destCard. The debit, credit, and both transfer records commit as one unit
// or not at all.
//
// Preconditions are checked in a fixed order, each with its own error:
// missing input, destination card shape, sender existence, self transfer,
// recipient existence, then sufficient funds.
func (s *Service) Transfer(ctx context.Context, senderCard, destCard string, amount float64) error {
	logger := s.logger.With("senderCard", senderCard, "destCard", destCard, "amount", amount)

	if destCard == "" || domain.ValidateAmount(amount) != nil {
		return domain.ErrInvalidRequest
	}
	if !domain.ValidCardNumber(destCard) {
		return domain.ErrInvalidCardNumber
	}

	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts := uow.Accounts()

		// Self transfer needs only the sender's row.
		if senderCard == destCard {
			if _, err := accounts.GetByCardNumberForUpdate(ctx, senderCard); err != nil {
				return senderErr(err)
			}
			return domain.ErrCannotTransferToSameAccount
		}

		// Lock both rows in card-number order so concurrent opposite
		// transfers cannot deadlock.
		sender, recipient, err := lockPair(ctx, accounts, senderCard, destCard)
		if err != nil {
			return err
		}

		out, in, err := sender.TransferTo(recipient, amount)
		if err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, sender.ID, sender.Balance); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, recipient.ID, recipient.Balance); err != nil {
			return err
		}
		if err := uow.Transactions().Create(ctx, out); err != nil {
			return err
		}
		return uow.Transactions().Create(ctx, in)
	})
	if err != nil {
		logger.Error("Transfer failed", "error", err)
		return err
	}
	logger.Info("Transfer successful")
	return nil
}

// lockPair fetches and locks the sender and recipient rows in card-number
// order, then reports missing accounts in the contract's order: sender
// first, recipient second.
func lockPair(ctx context.Context, accounts repository.AccountRepository, senderCard, destCard string) (sender, recipient *domain.Account, err error) {
	first, second := senderCard, destCard
	if destCard < senderCard {
		first, second = destCard, senderCard
	}

	var firstErr, secondErr error
	firstAcc, firstErr := accounts.GetByCardNumberForUpdate(ctx, first)
	secondAcc, secondErr := accounts.GetByCardNumberForUpdate(ctx, second)

	if first == senderCard {
		sender, recipient = firstAcc, secondAcc
		err = orderedErr(firstErr, secondErr)
	} else {
		sender, recipient = secondAcc, firstAcc
		err = orderedErr(secondErr, firstErr)
	}
	return sender, recipient, err
}

// orderedErr reduces the two lookup results to a single error, sender side
// taking precedence.
func orderedErr(senderLookup, recipientLookup error) error {
	if senderLookup != nil {
		return senderErr(senderLookup)
	}
	if recipientLookup != nil {
		return recipientErr(recipientLookup)
	}
	return nil
}

func senderErr(err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrSenderNotFound
	}
	return fmt.Errorf("sender lookup: %w", err)
}

func recipientErr(err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrRecipientNotFound
	}
	return fmt.Errorf("recipient lookup: %w", err)
}
