package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codearena/internal/logger"
	"codearena/internal/services"

	"github.com/jmoiron/sqlx"
)

type ProblemRepository interface {
	services.TestCaseStore
	GetProblemTitle(ctx context.Context, problemID int) (string, error)
}

type problemRepository struct {
	db    *sqlx.DB
	cache services.Cache
}

func NewProblemRepository(db *sqlx.DB, cache services.Cache) ProblemRepository {
	return &problemRepository{db: db, cache: cache}
}

// GetTestCases returns a problem's hidden test cases in insertion order.
// Test cases are immutable during a contest, so they are cached for an
// hour to keep the judging hot path off the database.
func (r *problemRepository) GetTestCases(ctx context.Context, problemID int) ([]services.TestCase, error) {
	cacheKey := fmt.Sprintf("problem:%d:testcases", problemID)

	var testCases []services.TestCase
	if err := r.cache.Get(ctx, cacheKey, &testCases); err == nil {
		return testCases, nil // Cache hit
	}
	logger.Log.Debug("Test cases not in cache, retrieving from DB")

	query := `SELECT id, input, expected_output FROM test_cases WHERE problem_id = ? ORDER BY id`

	var dbTestCases []struct {
		ID       int    `db:"id"`
		Input    string `db:"input"`
		Expected string `db:"expected_output"`
	}

	if err := r.db.SelectContext(ctx, &dbTestCases, query, problemID); err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}

	result := make([]services.TestCase, len(dbTestCases))
	for i, tc := range dbTestCases {
		result[i] = services.TestCase{
			ID:       tc.ID,
			Input:    tc.Input,
			Expected: tc.Expected,
		}
	}

	_ = r.cache.Set(ctx, cacheKey, result, 1*time.Hour)

	return result, nil
}

func (r *problemRepository) GetProblemTitle(ctx context.Context, problemID int) (string, error) {
	query := `SELECT title FROM problems WHERE id = ?`

	var title string
	if err := r.db.GetContext(ctx, &title, query, problemID); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%w: %d", services.ErrProblemNotFound, problemID)
		}
		return "", fmt.Errorf("failed to get problem: %w", err)
	}

	return title, nil
}
