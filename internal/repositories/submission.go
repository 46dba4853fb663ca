package repositories

import (
	"context"
	"fmt"

	"codearena/internal/models"

	"github.com/jmoiron/sqlx"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *models.ContestSubmission) error
	ListByUserAndProblem(ctx context.Context, contestID, userID, problemID int) ([]models.SubmissionListItem, error)
}

type submissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// CreateSubmission appends one audit row. Rows are never updated or
// deleted afterwards.
func (r *submissionRepository) CreateSubmission(ctx context.Context, submission *models.ContestSubmission) error {
	query := `INSERT INTO contest_submissions (contest_id, user_id, problem_id, language_id, source_code, status, submitted_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		submission.ContestID,
		submission.UserID,
		submission.ProblemID,
		submission.LanguageID,
		submission.SourceCode,
		submission.Status,
		submission.SubmittedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	submission.ID = int(id)
	return nil
}

func (r *submissionRepository) ListByUserAndProblem(ctx context.Context, contestID, userID, problemID int) ([]models.SubmissionListItem, error) {
	query := `SELECT id, problem_id, language_id, status, submitted_at
              FROM contest_submissions
              WHERE contest_id = ? AND user_id = ? AND problem_id = ?
              ORDER BY submitted_at DESC`

	var submissions []models.SubmissionListItem
	if err := r.db.SelectContext(ctx, &submissions, query, contestID, userID, problemID); err != nil {
		return nil, fmt.Errorf("failed to get user submissions: %w", err)
	}

	return submissions, nil
}
