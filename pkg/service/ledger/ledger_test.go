package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/amsaleh/atmsim/internal/fixtures"
	"github.com/amsaleh/atmsim/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(store *fixtures.Store) *Service {
	return New(store.UoW(), slog.Default())
}

func TestGetBalance(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	svc := newService(store)

	balance, err := svc.GetBalance(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)

	_, err = svc.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDeposit(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	svc := newService(store)
	ctx := context.Background()

	balance, err := svc.Deposit(ctx, a.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, balance)
	assert.Equal(t, 1500.0, store.Account(a.ID).Balance)

	txs := store.TransactionsFor(a.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.KindDeposit, txs[0].Kind)
	assert.Equal(t, 500.0, txs[0].Amount)

	_, err = svc.Deposit(ctx, a.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = svc.Deposit(ctx, a.ID, -10)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = svc.Deposit(ctx, uuid.New(), 100)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	assert.Equal(t, 1500.0, store.Account(a.ID).Balance, "failed deposits must not mutate")
	assert.Len(t, store.TransactionsFor(a.ID), 1)
}

func TestWithdraw(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	svc := newService(store)
	ctx := context.Background()

	balance, err := svc.Withdraw(ctx, a.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, 800.0, balance)

	txs := store.TransactionsFor(a.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.KindWithdraw, txs[0].Kind)

	_, err = svc.Withdraw(ctx, a.ID, 5000)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 800.0, store.Account(a.ID).Balance, "overdraft attempt must not mutate")
	assert.Len(t, store.TransactionsFor(a.ID), 1)
}

func TestWithdrawRollsBackWhenLogAppendFails(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	svc := newService(store)

	store.FailTransactionCreate = errors.New("store unreachable")
	_, err := svc.Withdraw(context.Background(), a.ID, 200)
	require.Error(t, err)

	assert.Equal(t, 1000.0, store.Account(a.ID).Balance, "balance update must roll back with the log append")
	assert.Empty(t, store.TransactionsFor(a.ID))
}

func TestListTransactions(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, a.ID, 100)
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, a.ID, 50)
	require.NoError(t, err)

	txs, err := svc.ListTransactions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.KindDeposit, txs[0].Kind, "log is in insertion order")
	assert.Equal(t, domain.KindWithdraw, txs[1].Kind)

	_, err = svc.ListTransactions(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransfer(t *testing.T) {
	store := fixtures.NewStore()
	sender := store.Seed("1234567890", "hash", 1000)
	recipient := store.Seed("9876543210", "hash", 500)
	svc := newService(store)

	err := svc.Transfer(context.Background(), sender.CardNumber, recipient.CardNumber, 300)
	require.NoError(t, err)

	assert.Equal(t, 700.0, store.Account(sender.ID).Balance)
	assert.Equal(t, 800.0, store.Account(recipient.ID).Balance)

	senderTxs := store.TransactionsFor(sender.ID)
	require.Len(t, senderTxs, 1)
	assert.Equal(t, domain.KindTransfer, senderTxs[0].Kind)
	assert.Equal(t, recipient.CardNumber, senderTxs[0].ToCardNumber)

	recipientTxs := store.TransactionsFor(recipient.ID)
	require.Len(t, recipientTxs, 1)
	assert.Equal(t, domain.KindTransfer, recipientTxs[0].Kind)
	assert.Equal(t, sender.CardNumber, recipientTxs[0].FromCardNumber)
}

func TestTransferFailureModes(t *testing.T) {
	store := fixtures.NewStore()
	sender := store.Seed("1234567890", "hash", 1000)
	store.Seed("9876543210", "hash", 500)
	svc := newService(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		sender   string
		destCard string
		amount   float64
		wantErr  error
	}{
		{"missing destination", sender.CardNumber, "", 100, domain.ErrInvalidRequest},
		{"zero amount", sender.CardNumber, "9876543210", 0, domain.ErrInvalidRequest},
		{"negative amount", sender.CardNumber, "9876543210", -5, domain.ErrInvalidRequest},
		{"malformed card", sender.CardNumber, "12ab", 100, domain.ErrInvalidCardNumber},
		{"sender vanished", "9999999999", "9876543210", 100, domain.ErrSenderNotFound},
		{"self transfer", sender.CardNumber, sender.CardNumber, 100, domain.ErrCannotTransferToSameAccount},
		{"unknown recipient", sender.CardNumber, "0000000000", 100, domain.ErrRecipientNotFound},
		{"insufficient funds", sender.CardNumber, "9876543210", 5000, domain.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Transfer(ctx, tt.sender, tt.destCard, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// None of the failed attempts may have touched any account or log.
	assert.Equal(t, 1000.0, store.Account(sender.ID).Balance)
	assert.Empty(t, store.TransactionsFor(sender.ID))
}

func TestTransferRollsBackWhenLogAppendFails(t *testing.T) {
	store := fixtures.NewStore()
	sender := store.Seed("1234567890", "hash", 1000)
	recipient := store.Seed("9876543210", "hash", 500)
	svc := newService(store)

	store.FailTransactionCreate = errors.New("store unreachable")
	err := svc.Transfer(context.Background(), sender.CardNumber, recipient.CardNumber, 300)
	require.Error(t, err)

	assert.Equal(t, 1000.0, store.Account(sender.ID).Balance, "debit must roll back")
	assert.Equal(t, 500.0, store.Account(recipient.ID).Balance, "credit must roll back")
	assert.Empty(t, store.TransactionsFor(sender.ID))
	assert.Empty(t, store.TransactionsFor(recipient.ID))
}

// The scenario from the product contract: deposit, withdraw, then transfer,
// checking balances and both logs at the end.
func TestLedgerScenario(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	b := store.Seed("9876543210", "hash", 500)
	svc := newService(store)
	ctx := context.Background()

	balance, err := svc.Deposit(ctx, a.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, balance)

	balance, err = svc.Withdraw(ctx, a.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, 1300.0, balance)

	require.NoError(t, svc.Transfer(ctx, a.CardNumber, b.CardNumber, 300))

	assert.Equal(t, 1000.0, store.Account(a.ID).Balance)
	assert.Equal(t, 800.0, store.Account(b.ID).Balance)

	aTxs, err := svc.ListTransactions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, aTxs, 3)
	assert.Equal(t, domain.KindDeposit, aTxs[0].Kind)
	assert.Equal(t, 500.0, aTxs[0].Amount)
	assert.Equal(t, domain.KindWithdraw, aTxs[1].Kind)
	assert.Equal(t, 200.0, aTxs[1].Amount)
	assert.Equal(t, domain.KindTransfer, aTxs[2].Kind)
	assert.Equal(t, 300.0, aTxs[2].Amount)
	assert.Equal(t, b.CardNumber, aTxs[2].ToCardNumber)

	bTxs, err := svc.ListTransactions(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bTxs, 1)
	assert.Equal(t, domain.KindTransfer, bTxs[0].Kind)
	assert.Equal(t, 300.0, bTxs[0].Amount)
	assert.Equal(t, a.CardNumber, bTxs[0].FromCardNumber)
}

func TestConcurrentDepositAndWithdraw(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	svc := newService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Deposit(ctx, a.ID, 100)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Withdraw(ctx, a.ID, 100)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Equal(t, 1000.0, store.Account(a.ID).Balance, "no lost update")
	assert.Len(t, store.TransactionsFor(a.ID), 2, "both operations recorded")
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	store := fixtures.NewStore()
	a := store.Seed("1234567890", "hash", 1000)
	b := store.Seed("9876543210", "hash", 1000)
	svc := newService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.Transfer(ctx, a.CardNumber, b.CardNumber, 50)
		}()
		go func() {
			defer wg.Done()
			_ = svc.Transfer(ctx, b.CardNumber, a.CardNumber, 50)
		}()
	}
	wg.Wait()

	balA := store.Account(a.ID).Balance
	balB := store.Account(b.ID).Balance
	assert.Equal(t, 2000.0, balA+balB, "total across both accounts is conserved")
	assert.GreaterOrEqual(t, balA, 0.0)
	assert.GreaterOrEqual(t, balB, 0.0)
}
