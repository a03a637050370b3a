package service

import (
	"errors"
	"testing"

	"CircuitEngine/internal/model"

	"github.com/shopspring/decimal"
)

func TestCreateCircuit_CreatesBetsPerComponent(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("Lions vs Bears", model.BettingTypeStandard)
	tb := f.event("Total points", model.BettingTypeTiebreakerClosest)
	id := f.circuit("10.00", &tb, ComponentInput{EventID: e1, Weight: 2}, ComponentInput{EventID: tb})

	c := f.loadCircuit(id)
	if c.Status != model.CircuitStatusActive {
		t.Fatalf("unexpected status: got=%q want=%q", c.Status, model.CircuitStatusActive)
	}
	if c.CaptainID != captainID {
		t.Fatalf("unexpected captain: got=%q want=%q", c.CaptainID, captainID)
	}
	bets, err := f.store.Bets.ListBetsByCircuit(f.ctx, id)
	if err != nil {
		t.Fatalf("ListBetsByCircuit failed: %v", err)
	}
	if len(bets) != 2 {
		t.Fatalf("unexpected bet count: got=%d want=%d", len(bets), 2)
	}
	types := map[uint64]string{}
	points := map[uint64]int{}
	for _, b := range bets {
		types[b.EventID] = b.Type
		points[b.EventID] = b.Points
	}
	if types[e1] != model.BetTypeMoneyline || points[e1] != 2 {
		t.Fatalf("unexpected standard bet: type=%q points=%d", types[e1], points[e1])
	}
	if types[tb] != model.BetTypeTiebreaker || points[tb] != 1 {
		t.Fatalf("unexpected tiebreaker bet: type=%q points=%d", types[tb], points[tb])
	}
}

func TestCreateCircuit_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	other := &model.Event{LeagueID: 2, Name: "other league"}
	if err := f.store.Events.CreateEvent(f.ctx, other); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	cases := []struct {
		name string
		req  CreateCircuitRequest
		want error
	}{
		{"no components", CreateCircuitRequest{LeagueID: 1, Name: "x"}, ErrInvalidInput},
		{"negative fee", CreateCircuitRequest{LeagueID: 1, Name: "x", EntryFee: decimal.RequireFromString("-1"), Components: []ComponentInput{{EventID: e1}}}, ErrInvalidInput},
		{"sub-cent fee", CreateCircuitRequest{LeagueID: 1, Name: "x", EntryFee: decimal.RequireFromString("1.005"), Components: []ComponentInput{{EventID: e1}}}, ErrInvalidInput},
		{"duplicate event", CreateCircuitRequest{LeagueID: 1, Name: "x", Components: []ComponentInput{{EventID: e1}, {EventID: e1}}}, ErrInvalidInput},
		{"tiebreaker not a component", CreateCircuitRequest{LeagueID: 1, Name: "x", Components: []ComponentInput{{EventID: e1}}, TiebreakerEventID: ptr(uint64(999))}, ErrInvalidInput},
		{"other league", CreateCircuitRequest{LeagueID: 1, Name: "x", Components: []ComponentInput{{EventID: other.ID}}}, ErrInvalidInput},
		{"unknown event", CreateCircuitRequest{LeagueID: 1, Name: "x", Components: []ComponentInput{{EventID: 999}}}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := f.svc.CreateCircuit(f.ctx, captainID, &req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("unexpected error: got=%v want=%v", err, tc.want)
			}
		})
	}
}

func TestJoinCircuit_DebitsEntryFee(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	id := f.circuit("25.00", nil, ComponentInput{EventID: e1})
	f.join(id, "alice")

	assertDecimal(t, "balance", f.balance("alice"), "975")
	if !f.participant(id, "alice").PaidEntry {
		t.Fatalf("expected paid_entry to be true")
	}

	_, err := f.svc.JoinCircuit(f.ctx, "alice", id)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("unexpected error on second join: got=%v want=%v", err, ErrAlreadyExists)
	}
	assertDecimal(t, "balance after duplicate join", f.balance("alice"), "975")
}

func TestJoinCircuit_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	id := f.circuit("1500.00", nil, ComponentInput{EventID: e1})

	_, err := f.svc.JoinCircuit(f.ctx, "alice", id)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrInsufficientFunds)
	}
	list, err := f.store.Circuits.ListParticipants(f.ctx, id)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("unexpected participant count: got=%d want=%d", len(list), 0)
	}
	assertDecimal(t, "balance", f.balance("alice"), "1000")
}

func TestPlaceCircuitBet_Rules(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	e2 := f.event("C vs D", model.BettingTypeStandard)
	outside := f.event("not in circuit", model.BettingTypeStandard)
	tb := f.event("Total points", model.BettingTypeTiebreakerClosest)
	id := f.circuit("0", &tb, ComponentInput{EventID: e1}, ComponentInput{EventID: e2}, ComponentInput{EventID: tb})
	f.join(id, "alice")

	_, err := f.svc.PlaceCircuitBet(f.ctx, "mallory", id, &PlaceBetRequest{EventID: e1, Choice: "A"})
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("unexpected error for non-member: got=%v want=%v", err, ErrNotAMember)
	}
	_, err = f.svc.PlaceCircuitBet(f.ctx, "alice", id, &PlaceBetRequest{EventID: outside, Choice: "A"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected error for non-component event: got=%v want=%v", err, ErrNotFound)
	}
	_, err = f.svc.PlaceCircuitBet(f.ctx, "alice", id, &PlaceBetRequest{EventID: tb, Choice: "lots"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unexpected error for non-numeric guess: got=%v want=%v", err, ErrInvalidInput)
	}
	_, err = f.svc.PlaceCircuitBet(f.ctx, "alice", id, &PlaceBetRequest{EventID: tb, Choice: "40", NumericChoice: ptr(41.0)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unexpected error for conflicting guess: got=%v want=%v", err, ErrInvalidInput)
	}

	f.bet(id, "alice", e1, "A")
	_, err = f.svc.PlaceCircuitBet(f.ctx, "alice", id, &PlaceBetRequest{EventID: e1, Choice: "B"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("unexpected error for duplicate bet: got=%v want=%v", err, ErrAlreadyExists)
	}

	f.bet(id, "alice", tb, "41")
	if f.participant(id, "alice").TiebreakerBetID == nil {
		t.Fatalf("expected tiebreaker bet to be linked")
	}

	f.complete(id, e2, "C")
	_, err = f.svc.PlaceCircuitBet(f.ctx, "alice", id, &PlaceBetRequest{EventID: e2, Choice: "C"})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("unexpected error for completed event: got=%v want=%v", err, ErrAlreadyCompleted)
	}
}

func TestCompleteComponentEvent_ScoresByWeight(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	id := f.circuit("0", nil, ComponentInput{EventID: e1, Weight: 3})
	f.join(id, "alice", "bob", "carol")
	f.bet(id, "alice", e1, "Home")
	f.bet(id, "bob", e1, "Away")

	res := f.complete(id, e1, " home ")
	if len(res.Updates) != 2 {
		t.Fatalf("unexpected update count: got=%d want=%d", len(res.Updates), 2)
	}
	if !res.AllEventsCompleted {
		t.Fatalf("expected all events completed")
	}
	if got := f.participant(id, "alice").Score; got != 3 {
		t.Fatalf("unexpected alice score: got=%d want=%d", got, 3)
	}
	if got := f.participant(id, "bob").Score; got != 0 {
		t.Fatalf("unexpected bob score: got=%d want=%d", got, 0)
	}
	if got := f.participant(id, "carol").Score; got != 0 {
		t.Fatalf("unexpected carol score: got=%d want=%d", got, 0)
	}

	bets, err := f.svc.ListCircuitBets(f.ctx, "bob", id, true)
	if err != nil {
		t.Fatalf("ListCircuitBets failed: %v", err)
	}
	if len(bets) != 1 || bets[0].Result != model.BetResultLost {
		t.Fatalf("unexpected bob bets: %+v", bets)
	}
	if got := len(f.notifier.byKind(model.NotificationCircuitScore)); got != 1 {
		t.Fatalf("unexpected score notifications: got=%d want=%d", got, 1)
	}
}

func TestCompleteComponentEvent_SecondCallChangesNothing(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	id := f.circuit("0", nil, ComponentInput{EventID: e1, Weight: 2})
	f.join(id, "alice")
	f.bet(id, "alice", e1, "A")
	f.complete(id, e1, "A")

	_, err := f.svc.CompleteComponentEvent(f.ctx, captainID, id, e1, &CompleteEventRequest{WinningOutcome: "A"})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrAlreadyCompleted)
	}
	if got := f.participant(id, "alice").Score; got != 2 {
		t.Fatalf("unexpected score after repeat: got=%d want=%d", got, 2)
	}
}

func TestCompleteComponentEvent_OnlyCaptain(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	id := f.circuit("0", nil, ComponentInput{EventID: e1})
	f.join(id, "alice")
	f.bet(id, "alice", e1, "A")

	_, err := f.svc.CompleteComponentEvent(f.ctx, "alice", id, e1, &CompleteEventRequest{WinningOutcome: "A"})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrNotAuthorized)
	}
	ev, err := f.store.Events.GetEvent(f.ctx, e1)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if ev.Completed {
		t.Fatalf("event must stay open after rejected completion")
	}
	if got := f.participant(id, "alice").Score; got != 0 {
		t.Fatalf("unexpected score: got=%d want=%d", got, 0)
	}
}

func TestCompleteComponentEvent_NotAComponent(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	outside := f.event("outside", model.BettingTypeStandard)
	id := f.circuit("0", nil, ComponentInput{EventID: e1})

	_, err := f.svc.CompleteComponentEvent(f.ctx, captainID, id, outside, &CompleteEventRequest{WinningOutcome: "A"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrNotFound)
	}
}

func TestCompleteComponentEvent_TiebreakerHoldsBets(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	tb := f.event("Total points", model.BettingTypeTiebreakerClosest)
	id := f.circuit("0", &tb, ComponentInput{EventID: e1}, ComponentInput{EventID: tb})
	f.join(id, "alice")
	f.bet(id, "alice", tb, "40")

	res, err := f.svc.CompleteComponentEvent(f.ctx, captainID, id, tb, &CompleteEventRequest{NumericValue: ptr(42.0)})
	if err != nil {
		t.Fatalf("CompleteComponentEvent failed: %v", err)
	}
	if !res.Tiebreaker || res.WinningOutcome != "42" {
		t.Fatalf("unexpected result: tiebreaker=%v outcome=%q", res.Tiebreaker, res.WinningOutcome)
	}
	if res.AllEventsCompleted {
		t.Fatalf("standard event still pending, all_events_completed must be false")
	}
	if got := f.participant(id, "alice").Score; got != 0 {
		t.Fatalf("tiebreaker must not score: got=%d", got)
	}
	bets, err := f.svc.ListCircuitBets(f.ctx, "alice", id, false)
	if err != nil {
		t.Fatalf("ListCircuitBets failed: %v", err)
	}
	if len(bets) != 1 || bets[0].Result != model.BetResultPendingTiebreaker {
		t.Fatalf("unexpected bets: %+v", bets)
	}
}

func TestGetCircuitStatus(t *testing.T) {
	f := newFixture(t)
	e1 := f.event("A vs B", model.BettingTypeStandard)
	e2 := f.event("C vs D", model.BettingTypeStandard)
	id := f.circuit("5.00", nil, ComponentInput{EventID: e1}, ComponentInput{EventID: e2})
	f.join(id, "alice", "bob")
	f.bet(id, "alice", e1, "A")
	f.complete(id, e1, "A")

	if _, err := f.svc.GetCircuitStatus(f.ctx, "mallory", id); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("unexpected error for outsider: got=%v want=%v", err, ErrNotAMember)
	}
	st, err := f.svc.GetCircuitStatus(f.ctx, "bob", id)
	if err != nil {
		t.Fatalf("GetCircuitStatus failed: %v", err)
	}
	if st.CompletedEvents != 1 || st.TotalEvents != 2 {
		t.Fatalf("unexpected progress: %d/%d", st.CompletedEvents, st.TotalEvents)
	}
	if st.ProgressPercentage != 50 {
		t.Fatalf("unexpected progress percentage: got=%v want=%v", st.ProgressPercentage, 50)
	}
	if st.AllEventsCompleted || st.HasTie {
		t.Fatalf("unexpected flags: all=%v tie=%v", st.AllEventsCompleted, st.HasTie)
	}
	assertDecimal(t, "prize pool", st.PrizePool, "10")
	if len(st.Leaders) != 1 || st.Leaders[0] != "alice" {
		t.Fatalf("unexpected leaders: %v", st.Leaders)
	}
	if st.Participants[0].UserID != "alice" || !st.Participants[0].IsLeader {
		t.Fatalf("unexpected first standing: %+v", st.Participants[0])
	}
}
