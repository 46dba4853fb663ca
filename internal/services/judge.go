package services

import (
	"context"
	"fmt"

	"codearena/internal/logger"
	"codearena/internal/models"

	"go.uber.org/zap"
)

type TestCase struct {
	ID       int
	Input    string
	Expected string
}

// JudgeService reduces a submission to a single verdict by running the
// problem's hidden test cases through the verdict oracle one at a time, in
// order, stopping at the first non-accepted case. It holds no state and
// never touches contest records.
type JudgeService struct {
	oracle OracleRunner
}

func NewJudgeService(oracle OracleRunner) *JudgeService {
	return &JudgeService{oracle: oracle}
}

// Judge returns one of models.VerdictAccepted, VerdictWrongAnswer or
// VerdictTimeLimit. An oracle transport failure is returned as an error
// and must not be interpreted as a verdict. A problem with no hidden test
// cases is never accepted.
func (s *JudgeService) Judge(ctx context.Context, testCases []TestCase, sourceCode string, languageID int) (string, error) {
	if len(testCases) == 0 {
		logger.Log.Warn("Judging against empty test case set, rejecting")
		return models.VerdictWrongAnswer, nil
	}

	for _, tc := range testCases {
		outcome, err := s.oracle.RunTestCase(ctx, sourceCode, languageID, tc.Input, tc.Expected)
		if err != nil {
			return "", fmt.Errorf("failed to judge test case %d: %w", tc.ID, err)
		}

		logger.Log.Debug("Judged test case",
			zap.Int("testcase_id", tc.ID),
			zap.Int("outcome", int(outcome)))

		switch outcome {
		case CaseTimeLimit:
			return models.VerdictTimeLimit, nil
		case CaseWrongAnswer:
			return models.VerdictWrongAnswer, nil
		}
	}

	return models.VerdictAccepted, nil
}
