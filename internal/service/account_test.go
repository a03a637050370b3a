package service

import (
	"errors"
	"testing"

	"CircuitEngine/internal/model"
	"CircuitEngine/internal/testutil"
)

func TestAccountService_WalletAndNotifications(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	id := f.circuit("25.00", nil, ComponentInput{EventID: e1})
	f.join(id, "alice")

	if err := f.store.Notifications.CreateNotification(f.ctx, &model.Notification{UserID: "alice", Kind: model.NotificationInfo, Message: "hello"}); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	svc := NewAccountService(f.store.Wallets, f.store.Notifications, testutil.Logger())
	w, err := svc.GetWallet(f.ctx, "alice", 1, 20)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	assertDecimal(t, "balance", w.Balance, "975")
	if w.Total != 1 || len(w.Ledger) != 1 {
		t.Fatalf("unexpected ledger: total=%d len=%d", w.Total, len(w.Ledger))
	}
	if w.Ledger[0].Kind != model.LedgerKindEntryFee || w.Ledger[0].Reference != circuitRef(id) {
		t.Fatalf("unexpected ledger entry: kind=%q ref=%q", w.Ledger[0].Kind, w.Ledger[0].Reference)
	}
	assertDecimal(t, "ledger amount", w.Ledger[0].Amount, "-25")

	list, err := svc.ListNotifications(f.ctx, "alice", true, 1, 20)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if list.Total != 1 || list.Items[0].Message != "hello" {
		t.Fatalf("unexpected notifications: %+v", list)
	}

	if _, err := svc.GetWallet(f.ctx, "", 1, 20); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("unexpected error for anonymous caller: got=%v want=%v", err, ErrNotAuthorized)
	}
}

func TestEventService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	svc := NewEventService(f.store.Events, testutil.Logger())

	e, err := svc.CreateEvent(f.ctx, &CreateEventRequest{LeagueID: 7, Name: " Final ", Outcomes: []string{"Home", "Away"}})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if e.Name != "Final" || e.BettingType != model.BettingTypeStandard {
		t.Fatalf("unexpected event: name=%q type=%q", e.Name, e.BettingType)
	}
	got, err := svc.GetEvent(f.ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if string(got.MarketData) != `{"outcomes":["Home","Away"]}` {
		t.Fatalf("unexpected market_data: %s", got.MarketData)
	}

	if _, err := svc.CreateEvent(f.ctx, &CreateEventRequest{LeagueID: 7, Name: "x", BettingType: "parlay"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unexpected error for bad betting_type: got=%v want=%v", err, ErrInvalidInput)
	}
	if _, err := svc.GetEvent(f.ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected error for unknown event: got=%v want=%v", err, ErrNotFound)
	}
}
