package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"codearena/internal/logger"
	"codearena/internal/models"

	"go.uber.org/zap"
)

// ContestStore is the persistence contract for contest scoring state. All
// scoring mutations are fine-grained conditional updates against a single
// participant's single problem-stat row; implementations must guarantee
// that two concurrent updates can never both apply their effect.
type ContestStore interface {
	GetContest(ctx context.Context, contestID int) (*models.Contest, error)
	// EnsureParticipant creates the participant row with zero totals if it
	// does not exist. Safe to race with an identical ensure: at most one
	// row per (contest, user) ever exists.
	EnsureParticipant(ctx context.Context, contestID, userID int) error
	// EnsureProblemStat creates the stat row with status unsolved if it
	// does not exist. Same idempotency guarantee as EnsureParticipant.
	EnsureProblemStat(ctx context.Context, contestID, userID, problemID int) error
	GetProblemStat(ctx context.Context, contestID, userID, problemID int) (*models.ProblemStat, error)
	// AwardSolve flips the stat row to solved and credits score and penalty
	// to the participant, conditioned on the row not being solved yet. The
	// penalty is computed from wrong_attempts as read under the same lock
	// that guards the status flip. Returns awarded=false when a concurrent
	// accepted submission won the race, with no effect applied.
	AwardSolve(ctx context.Context, contestID, userID, problemID, solvedAtMinutes, points int) (awarded bool, newScore int, err error)
	// RecordWrongAttempt marks the row attempted and increments
	// wrong_attempts by one in a single atomic statement, conditioned on
	// the row not being solved. Returns recorded=false when the problem
	// was solved concurrently.
	RecordWrongAttempt(ctx context.Context, contestID, userID, problemID int) (recorded bool, err error)
	ListParticipants(ctx context.Context, contestID int) ([]models.ParticipantRow, error)
}

// SubmissionStore is the append-only audit log of judged attempts.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, submission *models.ContestSubmission) error
	ListByUserAndProblem(ctx context.Context, contestID, userID, problemID int) ([]models.SubmissionListItem, error)
}

// TestCaseStore supplies a problem's hidden test cases. Read-only from the
// contest core's perspective.
type TestCaseStore interface {
	GetTestCases(ctx context.Context, problemID int) ([]TestCase, error)
}

type UpdateOutcome string

const (
	OutcomeAccepted      UpdateOutcome = "ACCEPTED"
	OutcomeAlreadySolved UpdateOutcome = "ALREADY_SOLVED"
	OutcomeWrongAttempt  UpdateOutcome = "WRONG_ATTEMPT_RECORDED"
	OutcomeNoChange      UpdateOutcome = "NO_CHANGE"
)

// SubmitResult is the outcome of one judged submission. The audit
// submission record is present for every outcome.
type SubmitResult struct {
	Outcome          UpdateOutcome             `json:"outcome"`
	Verdict          string                    `json:"verdict"`
	Submission       *models.ContestSubmission `json:"submission"`
	NewScore         int                       `json:"new_score,omitempty"`
	SolvedAtDuration int                       `json:"solved_at_duration,omitempty"`
}

type ContestService struct {
	contests    ContestStore
	submissions SubmissionStore
	problems    TestCaseStore
	judge       *JudgeService

	now func() time.Time
}

func NewContestService(contests ContestStore, submissions SubmissionStore, problems TestCaseStore, judge *JudgeService) *ContestService {
	return &ContestService{
		contests:    contests,
		submissions: submissions,
		problems:    problems,
		judge:       judge,
		now:         time.Now,
	}
}

// Submit judges one submission against a live contest and applies the
// verdict to the participant's scoring record. Phase and membership checks
// happen before any oracle call or persistence write; an oracle transport
// failure aborts before anything is persisted.
func (s *ContestService) Submit(ctx context.Context, contestID, userID int, req *models.ContestSubmitRequest) (*SubmitResult, error) {
	contest, err := s.contests.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now()
	if phase := contest.PhaseAt(submittedAt); phase != models.PhaseLive {
		return nil, fmt.Errorf("%w: contest %d is %s", ErrContestNotLive, contest.ID, phase)
	}

	points, ok := contest.ProblemPoints(req.ProblemID)
	if !ok {
		return nil, fmt.Errorf("%w: problem %d in contest %d", ErrProblemNotInContest, req.ProblemID, contest.ID)
	}

	testCases, err := s.problems.GetTestCases(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	verdict, err := s.judge.Judge(ctx, testCases, req.SourceCode, req.LanguageID)
	if err != nil {
		return nil, err
	}

	return s.applyVerdict(ctx, contest, userID, req, verdict, submittedAt, points)
}

func (s *ContestService) applyVerdict(ctx context.Context, contest *models.Contest, userID int, req *models.ContestSubmitRequest, verdict string, submittedAt time.Time, points int) (*SubmitResult, error) {
	if err := s.ensureScoringRows(ctx, contest.ID, userID, req.ProblemID); err != nil {
		return nil, err
	}

	stat, err := s.contests.GetProblemStat(ctx, contest.ID, userID, req.ProblemID)
	if err != nil {
		return nil, err
	}

	// The audit record is appended for every judged attempt, including
	// resubmissions on an already-solved problem.
	submission := &models.ContestSubmission{
		ContestID:   contest.ID,
		UserID:      userID,
		ProblemID:   req.ProblemID,
		LanguageID:  req.LanguageID,
		SourceCode:  req.SourceCode,
		Status:      verdict,
		SubmittedAt: submittedAt,
	}
	if err := s.submissions.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	result := &SubmitResult{Verdict: verdict, Submission: submission}

	if stat.Status == models.StatSolved {
		result.Outcome = OutcomeAlreadySolved
		return result, nil
	}

	if verdict == models.VerdictAccepted {
		solvedAt := int(submittedAt.Sub(contest.StartTime) / time.Minute)
		awarded, newScore, err := s.contests.AwardSolve(ctx, contest.ID, userID, req.ProblemID, solvedAt, points)
		if err != nil {
			return nil, err
		}
		if !awarded {
			// A concurrent accepted submission flipped the row first.
			// Not an error, and never retried: a retry would risk a
			// double award.
			logger.Log.Info("Solve race lost, treating as already solved",
				zap.Int("contest_id", contest.ID),
				zap.Int("user_id", userID),
				zap.Int("problem_id", req.ProblemID))
			result.Outcome = OutcomeAlreadySolved
			return result, nil
		}
		result.Outcome = OutcomeAccepted
		result.NewScore = newScore
		result.SolvedAtDuration = solvedAt
		return result, nil
	}

	recorded, err := s.contests.RecordWrongAttempt(ctx, contest.ID, userID, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if !recorded {
		result.Outcome = OutcomeNoChange
		return result, nil
	}

	result.Outcome = OutcomeWrongAttempt
	return result, nil
}

// ensureScoringRows lazily creates the participant and problem-stat rows.
// Both creations are idempotent, so a flaky write gets exactly one retry.
func (s *ContestService) ensureScoringRows(ctx context.Context, contestID, userID, problemID int) error {
	if err := s.contests.EnsureParticipant(ctx, contestID, userID); err != nil {
		if err = s.contests.EnsureParticipant(ctx, contestID, userID); err != nil {
			return fmt.Errorf("failed to ensure participant record: %w", err)
		}
	}
	if err := s.contests.EnsureProblemStat(ctx, contestID, userID, problemID); err != nil {
		if err = s.contests.EnsureProblemStat(ctx, contestID, userID, problemID); err != nil {
			return fmt.Errorf("failed to ensure problem stat: %w", err)
		}
	}
	return nil
}

// Leaderboard projects the contest's participant rows sorted by score
// descending, ties broken by lower total penalty time. It is recomputed
// from the current rows on every call; nothing is cached.
func (s *ContestService) Leaderboard(ctx context.Context, contestID int) (models.ContestPhase, []models.ParticipantRow, error) {
	contest, err := s.contests.GetContest(ctx, contestID)
	if err != nil {
		return "", nil, err
	}

	rows, err := s.contests.ListParticipants(ctx, contestID)
	if err != nil {
		return "", nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].TotalPenaltyTime < rows[j].TotalPenaltyTime
	})

	return contest.PhaseAt(s.now()), rows, nil
}
