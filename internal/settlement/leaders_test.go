package settlement

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func standings(scores ...int) []Standing {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Standing, len(scores))
	for i, s := range scores {
		out[i] = Standing{
			UserID:   string(rune('A' + i)),
			Score:    s,
			JoinedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestDetermineLeaders(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   []string
		top    int
		tied   bool
	}{
		{name: "two way tie", scores: []int{5, 5, 3}, want: []string{"A", "B"}, top: 5, tied: true},
		{name: "single winner", scores: []int{7, 5, 3}, want: []string{"A"}, top: 7},
		{name: "leader last", scores: []int{1, 2, 9}, want: []string{"C"}, top: 9},
		{name: "everyone zero", scores: []int{0, 0, 0}, want: []string{"A", "B", "C"}, top: 0, tied: true},
		{name: "lone participant", scores: []int{0}, want: []string{"A"}, top: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetermineLeaders(standings(tt.scores...))
			if err != nil {
				t.Fatalf("DetermineLeaders failed: %v", err)
			}
			if !reflect.DeepEqual(got.UserIDs(), tt.want) {
				t.Fatalf("unexpected leaders: got=%v want=%v", got.UserIDs(), tt.want)
			}
			if got.TopScore != tt.top {
				t.Fatalf("unexpected top score: got=%d want=%d", got.TopScore, tt.top)
			}
			if got.Tied() != tt.tied {
				t.Fatalf("unexpected tied flag: got=%v want=%v", got.Tied(), tt.tied)
			}
		})
	}
}

func TestDetermineLeadersNoParticipants(t *testing.T) {
	_, err := DetermineLeaders(nil)
	if !errors.Is(err, ErrNoParticipants) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrNoParticipants)
	}
}

func TestSortStandingsFallsBackToUserID(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := []Standing{
		{UserID: "zed", JoinedAt: at},
		{UserID: "amy", JoinedAt: at},
		{UserID: "bob", JoinedAt: at.Add(-time.Second)},
	}
	SortStandings(s)
	got := []string{s[0].UserID, s[1].UserID, s[2].UserID}
	want := []string{"bob", "amy", "zed"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: got=%v want=%v", got, want)
	}
}
