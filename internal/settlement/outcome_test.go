package settlement

import "testing"

func TestChoiceMatches(t *testing.T) {
	tests := []struct {
		choice  string
		winning string
		want    bool
	}{
		{"Lakers", "Lakers", true},
		{"  lakers ", "LAKERS", true},
		{"Lakers", "Celtics", false},
		{"", "Lakers", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		if got := ChoiceMatches(tt.choice, tt.winning); got != tt.want {
			t.Fatalf("ChoiceMatches(%q, %q): got=%v want=%v", tt.choice, tt.winning, got, tt.want)
		}
	}
}

func TestScoreEventSkipsMissingBets(t *testing.T) {
	picks := []Pick{
		{UserID: "a", Choice: "Lakers", HasBet: true},
		{UserID: "b", Choice: "Celtics", HasBet: true},
		{UserID: "c"},
		{UserID: "d", Choice: "", HasBet: true},
	}
	got := ScoreEvent(picks, " lakers", 2)
	if len(got) != 3 {
		t.Fatalf("unexpected scored count: got=%d want=3", len(got))
	}
	total := 0
	for _, s := range got {
		total += s.Points
		if s.UserID == "a" && (!s.Won || s.Points != 2) {
			t.Fatalf("unexpected score for a: got=%+v", s)
		}
		if s.UserID != "a" && (s.Won || s.Points != 0) {
			t.Fatalf("unexpected score for %s: got=%+v", s.UserID, s)
		}
	}
	if total != 2 {
		t.Fatalf("unexpected points awarded: got=%d want=2", total)
	}
}
