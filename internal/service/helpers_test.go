package service

import (
	"context"
	"sync"
	"testing"

	"CircuitEngine/internal/interfaces"
	"CircuitEngine/internal/model"
	"CircuitEngine/internal/repository"
	"CircuitEngine/internal/testutil"

	"github.com/shopspring/decimal"
)

const captainID = "captain"

// recordingNotifier 记录所有投递的通知
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*interfaces.NotificationMessage
}

func (r *recordingNotifier) Notify(_ context.Context, msg *interfaces.NotificationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingNotifier) byKind(kind string) []*interfaces.NotificationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*interfaces.NotificationMessage
	for _, m := range r.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *repository.Store
	notifier *recordingNotifier
	svc      *CircuitService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	notifier := &recordingNotifier{}
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		notifier: notifier,
		svc:      NewCircuitService(store, notifier, 2, testutil.Logger()),
	}
}

func (f *fixture) event(name, bettingType string) uint64 {
	f.t.Helper()
	e := &model.Event{LeagueID: 1, Name: name, BettingType: bettingType}
	if err := f.store.Events.CreateEvent(f.ctx, e); err != nil {
		f.t.Fatalf("CreateEvent failed: %v", err)
	}
	return e.ID
}

func (f *fixture) circuit(fee string, tiebreaker *uint64, components ...ComponentInput) uint64 {
	f.t.Helper()
	c, err := f.svc.CreateCircuit(f.ctx, captainID, &CreateCircuitRequest{
		LeagueID:          1,
		Name:              "Week 1",
		EntryFee:          decimal.RequireFromString(fee),
		Components:        components,
		TiebreakerEventID: tiebreaker,
	})
	if err != nil {
		f.t.Fatalf("CreateCircuit failed: %v", err)
	}
	return c.ID
}

func (f *fixture) join(circuitID uint64, users ...string) {
	f.t.Helper()
	for _, u := range users {
		if _, err := f.svc.JoinCircuit(f.ctx, u, circuitID); err != nil {
			f.t.Fatalf("JoinCircuit(%s) failed: %v", u, err)
		}
	}
}

func (f *fixture) bet(circuitID uint64, user string, eventID uint64, choice string) {
	f.t.Helper()
	if _, err := f.svc.PlaceCircuitBet(f.ctx, user, circuitID, &PlaceBetRequest{EventID: eventID, Choice: choice}); err != nil {
		f.t.Fatalf("PlaceCircuitBet(%s, %d) failed: %v", user, eventID, err)
	}
}

func (f *fixture) complete(circuitID, eventID uint64, outcome string) *EventCompletionResult {
	f.t.Helper()
	res, err := f.svc.CompleteComponentEvent(f.ctx, captainID, circuitID, eventID, &CompleteEventRequest{WinningOutcome: outcome})
	if err != nil {
		f.t.Fatalf("CompleteComponentEvent(%d) failed: %v", eventID, err)
	}
	return res
}

func (f *fixture) balance(user string) decimal.Decimal {
	f.t.Helper()
	b, err := f.store.Wallets.GetBalance(f.ctx, user)
	if err != nil {
		f.t.Fatalf("GetBalance(%s) failed: %v", user, err)
	}
	return b
}

func (f *fixture) participant(circuitID uint64, user string) *model.CircuitParticipant {
	f.t.Helper()
	p, err := f.store.Circuits.GetParticipant(f.ctx, circuitID, user)
	if err != nil {
		f.t.Fatalf("GetParticipant(%s) failed: %v", user, err)
	}
	return p
}

func (f *fixture) loadCircuit(id uint64) *model.Circuit {
	f.t.Helper()
	c, err := f.store.Circuits.GetCircuit(f.ctx, id)
	if err != nil {
		f.t.Fatalf("GetCircuit failed: %v", err)
	}
	return c
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("unexpected %s: got=%s want=%s", label, got.String(), want)
	}
}

func ptr[T any](v T) *T { return &v }
