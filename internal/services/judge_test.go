package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"codearena/internal/logger"
	"codearena/internal/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// scriptedOracle returns a fixed outcome per call, in order, and counts
// how many calls were issued.
type scriptedOracle struct {
	outcomes []CaseOutcome
	failAt   int // 1-based call index that returns a transport error; 0 disables
	calls    int
}

func (o *scriptedOracle) RunTestCase(_ context.Context, _ string, _ int, _, _ string) (CaseOutcome, error) {
	o.calls++
	if o.failAt > 0 && o.calls == o.failAt {
		return CaseWrongAnswer, fmt.Errorf("%w: connection refused", ErrOracleUnavailable)
	}
	return o.outcomes[o.calls-1], nil
}

func threeCases() []TestCase {
	return []TestCase{
		{ID: 1, Input: "1 2", Expected: "3"},
		{ID: 2, Input: "4 5", Expected: "9"},
		{ID: 3, Input: "6 7", Expected: "13"},
	}
}

func TestJudgeAllCasesPass(t *testing.T) {
	oracle := &scriptedOracle{outcomes: []CaseOutcome{CasePassed, CasePassed, CasePassed}}
	judge := NewJudgeService(oracle)

	verdict, err := judge.Judge(context.Background(), threeCases(), "code", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != models.VerdictAccepted {
		t.Fatalf("unexpected verdict: %s", verdict)
	}
	if oracle.calls != 3 {
		t.Fatalf("expected 3 oracle calls, got %d", oracle.calls)
	}
}

func TestJudgeEmptyTestCaseSetIsNeverAccepted(t *testing.T) {
	oracle := &scriptedOracle{}
	judge := NewJudgeService(oracle)

	verdict, err := judge.Judge(context.Background(), nil, "code", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != models.VerdictWrongAnswer {
		t.Fatalf("expected wrong answer on empty test case set, got %s", verdict)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle calls, got %d", oracle.calls)
	}
}

func TestJudgeShortCircuitsOnFirstFailure(t *testing.T) {
	oracle := &scriptedOracle{outcomes: []CaseOutcome{CasePassed, CaseWrongAnswer, CasePassed}}
	judge := NewJudgeService(oracle)

	verdict, err := judge.Judge(context.Background(), threeCases(), "code", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != models.VerdictWrongAnswer {
		t.Fatalf("unexpected verdict: %s", verdict)
	}
	if oracle.calls != 2 {
		t.Fatalf("expected judging to stop after the failing case, got %d calls", oracle.calls)
	}
}

func TestJudgeMapsTimeLimitOutcome(t *testing.T) {
	oracle := &scriptedOracle{outcomes: []CaseOutcome{CasePassed, CaseTimeLimit, CasePassed}}
	judge := NewJudgeService(oracle)

	verdict, err := judge.Judge(context.Background(), threeCases(), "code", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != models.VerdictTimeLimit {
		t.Fatalf("unexpected verdict: %s", verdict)
	}
}

func TestJudgePropagatesTransportFailure(t *testing.T) {
	oracle := &scriptedOracle{outcomes: []CaseOutcome{CasePassed, CasePassed, CasePassed}, failAt: 2}
	judge := NewJudgeService(oracle)

	verdict, err := judge.Judge(context.Background(), threeCases(), "code", 1)
	if err == nil {
		t.Fatalf("expected transport failure to propagate")
	}
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if verdict != "" {
		t.Fatalf("transport failure must not produce a verdict, got %q", verdict)
	}
}
