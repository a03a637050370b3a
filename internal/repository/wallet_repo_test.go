package repository_test

import (
	"context"
	"errors"
	"testing"

	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"
	"CircuitEngine/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestWalletRepository_AutoProvisionAndLedger(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	bal, err := store.Wallets.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("unexpected starting balance: got=%s want=1000", bal)
	}

	if err := store.Wallets.Debit(ctx, "alice", decimal.RequireFromString("12.50"), model.LedgerKindEntryFee, "circuit:1"); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if err := store.Wallets.Credit(ctx, "alice", decimal.RequireFromString("40.25"), model.LedgerKindPrize, "circuit:1"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	bal, err = store.Wallets.GetBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("1027.75")) {
		t.Fatalf("unexpected balance: got=%s want=1027.75", bal)
	}

	entries, total, err := store.Wallets.ListLedger(ctx, "alice", 1, 20)
	if err != nil {
		t.Fatalf("ListLedger failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("unexpected ledger total: got=%d want=%d", total, 2)
	}
	if !entries[0].BalanceAfter.Equal(decimal.RequireFromString("1027.75")) {
		t.Fatalf("unexpected balance_after on latest entry: got=%s", entries[0].BalanceAfter)
	}
}

func TestWalletRepository_RejectsOverdraftAndDuplicates(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	err := store.Wallets.Debit(ctx, "bob", decimal.RequireFromString("1000.01"), model.LedgerKindEntryFee, "circuit:9")
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("unexpected error: got=%v want=%v", err, repository.ErrInsufficientBalance)
	}

	if err := store.Wallets.Credit(ctx, "bob", decimal.RequireFromString("5"), model.LedgerKindPrize, "circuit:9"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	err = store.Wallets.Credit(ctx, "bob", decimal.RequireFromString("5"), model.LedgerKindPrize, "circuit:9")
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("unexpected error on duplicate credit: got=%v want=%v", err, gorm.ErrDuplicatedKey)
	}
	bal, err := store.Wallets.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("1005")) {
		t.Fatalf("unexpected balance: got=%s want=1005", bal)
	}
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Wallets.Debit(ctx, "carol", decimal.RequireFromString("100"), model.LedgerKindEntryFee, "circuit:1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("unexpected error: got=%v want=%v", err, boom)
	}
	_, total, err := store.Wallets.ListLedger(ctx, "carol", 1, 20)
	if err != nil {
		t.Fatalf("ListLedger failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("ledger must be empty after rollback: got=%d", total)
	}
}
