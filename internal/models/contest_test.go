package models

import (
	"testing"
	"time"
)

func TestContestPhaseAt(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	contest := &Contest{ID: 1, StartTime: start, EndTime: end}

	cases := []struct {
		name string
		now  time.Time
		want ContestPhase
	}{
		{"before start", start.Add(-time.Minute), PhaseUpcoming},
		{"at start", start, PhaseLive},
		{"during window", start.Add(time.Hour), PhaseLive},
		{"at end", end, PhaseLive},
		{"after end", end.Add(time.Second), PhasePast},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := contest.PhaseAt(tc.now); got != tc.want {
				t.Fatalf("PhaseAt(%v) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestContestProblemPoints(t *testing.T) {
	contest := &Contest{
		ID: 1,
		Problems: []ContestProblem{
			{ProblemID: 10, Points: 100},
			{ProblemID: 20, Points: 250},
		},
	}

	points, ok := contest.ProblemPoints(20)
	if !ok {
		t.Fatalf("expected problem 20 to be registered")
	}
	if points != 250 {
		t.Fatalf("unexpected points: %d", points)
	}

	if _, ok := contest.ProblemPoints(99); ok {
		t.Fatalf("expected problem 99 to be missing")
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	cases := []struct {
		name    string
		request ContestSubmitRequest
		wantErr bool
	}{
		{"valid", ContestSubmitRequest{ProblemID: 1, LanguageID: 2, SourceCode: "print(42)"}, false},
		{"missing problem", ContestSubmitRequest{LanguageID: 2, SourceCode: "x"}, true},
		{"missing language", ContestSubmitRequest{ProblemID: 1, SourceCode: "x"}, true},
		{"blank source", ContestSubmitRequest{ProblemID: 1, LanguageID: 2, SourceCode: "   "}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.request.ValidateRequest()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
