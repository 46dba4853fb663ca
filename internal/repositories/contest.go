package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"codearena/internal/models"
	"codearena/internal/services"

	"github.com/jmoiron/sqlx"
)

type ContestRepository interface {
	services.ContestStore
	ListContests(ctx context.Context) ([]models.ContestListItem, error)
}

type contestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) GetContest(ctx context.Context, contestID int) (*models.Contest, error) {
	query := `SELECT id, title, start_time, end_time FROM contests WHERE id = ?`

	var contest models.Contest
	if err := r.db.GetContext(ctx, &contest, query, contestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %d", services.ErrContestNotFound, contestID)
		}
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}

	problemsQuery := `SELECT cp.problem_id, p.title, cp.points
                      FROM contest_problems cp
                      JOIN problems p ON p.id = cp.problem_id
                      WHERE cp.contest_id = ?
                      ORDER BY cp.problem_id`

	if err := r.db.SelectContext(ctx, &contest.Problems, problemsQuery, contestID); err != nil {
		return nil, fmt.Errorf("failed to get contest problems: %w", err)
	}

	return &contest, nil
}

func (r *contestRepository) ListContests(ctx context.Context) ([]models.ContestListItem, error) {
	query := `SELECT id, title, start_time, end_time FROM contests ORDER BY start_time DESC`

	var contests []models.ContestListItem
	if err := r.db.SelectContext(ctx, &contests, query); err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}

	return contests, nil
}

// EnsureParticipant lazily creates the participant row with zero totals.
// INSERT IGNORE against the (contest_id, user_id) primary key makes a
// duplicate-insert race a no-op rather than a second row.
func (r *contestRepository) EnsureParticipant(ctx context.Context, contestID, userID int) error {
	query := `INSERT IGNORE INTO contest_participants (contest_id, user_id, total_score, total_penalty_time)
              VALUES (?, ?, 0, 0)`

	if _, err := r.db.ExecContext(ctx, query, contestID, userID); err != nil {
		return fmt.Errorf("failed to ensure participant: %w", err)
	}
	return nil
}

func (r *contestRepository) EnsureProblemStat(ctx context.Context, contestID, userID, problemID int) error {
	query := `INSERT IGNORE INTO contest_problem_stats (contest_id, user_id, problem_id, status, wrong_attempts)
              VALUES (?, ?, ?, 'unsolved', 0)`

	if _, err := r.db.ExecContext(ctx, query, contestID, userID, problemID); err != nil {
		return fmt.Errorf("failed to ensure problem stat: %w", err)
	}
	return nil
}

func (r *contestRepository) GetProblemStat(ctx context.Context, contestID, userID, problemID int) (*models.ProblemStat, error) {
	query := `SELECT contest_id, user_id, problem_id, status, solved_at_minutes, wrong_attempts
              FROM contest_problem_stats
              WHERE contest_id = ? AND user_id = ? AND problem_id = ?`

	var stat models.ProblemStat
	if err := r.db.GetContext(ctx, &stat, query, contestID, userID, problemID); err != nil {
		return nil, fmt.Errorf("failed to get problem stat: %w", err)
	}

	return &stat, nil
}

// AwardSolve performs the solved transition inside a row-level transaction.
// The stat row is locked with SELECT ... FOR UPDATE, the solved check is
// re-evaluated under the lock, and the penalty is computed from the locked
// wrong_attempts value, so two racing accepted submissions can never both
// score and a concurrent wrong attempt can never produce a stale penalty.
func (r *contestRepository) AwardSolve(ctx context.Context, contestID, userID, problemID, solvedAtMinutes, points int) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `SELECT status, wrong_attempts
                  FROM contest_problem_stats
                  WHERE contest_id = ? AND user_id = ? AND problem_id = ?
                  FOR UPDATE`

	var row struct {
		Status        string `db:"status"`
		WrongAttempts int    `db:"wrong_attempts"`
	}
	if err := tx.GetContext(ctx, &row, lockQuery, contestID, userID, problemID); err != nil {
		return false, 0, fmt.Errorf("failed to lock problem stat: %w", err)
	}

	if row.Status == models.StatSolved {
		return false, 0, nil
	}

	solveQuery := `UPDATE contest_problem_stats
                   SET status = 'solved', solved_at_minutes = ?
                   WHERE contest_id = ? AND user_id = ? AND problem_id = ?`

	if _, err := tx.ExecContext(ctx, solveQuery, solvedAtMinutes, contestID, userID, problemID); err != nil {
		return false, 0, fmt.Errorf("failed to mark problem solved: %w", err)
	}

	penalty := solvedAtMinutes + row.WrongAttempts*models.WrongAttemptPenaltyMinutes

	creditQuery := `UPDATE contest_participants
                    SET total_score = total_score + ?, total_penalty_time = total_penalty_time + ?
                    WHERE contest_id = ? AND user_id = ?`

	if _, err := tx.ExecContext(ctx, creditQuery, points, penalty, contestID, userID); err != nil {
		return false, 0, fmt.Errorf("failed to credit participant: %w", err)
	}

	var newScore int
	scoreQuery := `SELECT total_score FROM contest_participants WHERE contest_id = ? AND user_id = ?`
	if err := tx.GetContext(ctx, &newScore, scoreQuery, contestID, userID); err != nil {
		return false, 0, fmt.Errorf("failed to read new score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("failed to commit solve: %w", err)
	}

	return true, newScore, nil
}

// RecordWrongAttempt is a single atomic conditional update: the increment
// and the solved guard are one statement, so there is no read-then-write
// window for a lost update.
func (r *contestRepository) RecordWrongAttempt(ctx context.Context, contestID, userID, problemID int) (bool, error) {
	query := `UPDATE contest_problem_stats
              SET status = 'attempted', wrong_attempts = wrong_attempts + 1
              WHERE contest_id = ? AND user_id = ? AND problem_id = ? AND status <> 'solved'`

	result, err := r.db.ExecContext(ctx, query, contestID, userID, problemID)
	if err != nil {
		return false, fmt.Errorf("failed to record wrong attempt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *contestRepository) ListParticipants(ctx context.Context, contestID int) ([]models.ParticipantRow, error) {
	query := `SELECT cp.user_id, u.username, cp.total_score, cp.total_penalty_time
              FROM contest_participants cp
              JOIN users u ON u.id = cp.user_id
              WHERE cp.contest_id = ?`

	var rows []models.ParticipantRow
	if err := r.db.SelectContext(ctx, &rows, query, contestID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return rows, nil
}
