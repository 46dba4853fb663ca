package models

import (
	"errors"
	"strings"
	"time"
)

const (
	VerdictAccepted    = "ACCEPTED"
	VerdictWrongAnswer = "WRONG_ANSWER"
	VerdictTimeLimit   = "TIME_LIMIT_EXCEEDED"
)

// ContestSubmission is an append-only audit record. One row is written for
// every judged attempt, including resubmissions on already-solved problems;
// rows are never mutated after creation.
type ContestSubmission struct {
	ID          int       `db:"id" json:"id"`
	ContestID   int       `db:"contest_id" json:"contest_id"`
	UserID      int       `db:"user_id" json:"user_id"`
	ProblemID   int       `db:"problem_id" json:"problem_id"`
	LanguageID  int       `db:"language_id" json:"language_id"`
	SourceCode  string    `db:"source_code" json:"source_code"`
	Status      string    `db:"status" json:"status"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

type ContestSubmitRequest struct {
	ProblemID  int    `json:"problem_id" binding:"required"`
	LanguageID int    `json:"language_id" binding:"required"`
	SourceCode string `json:"source_code" binding:"required"`
}

func (r *ContestSubmitRequest) ValidateRequest() error {
	if r.ProblemID <= 0 {
		return errors.New("problem ID must be a positive integer")
	}

	if r.LanguageID <= 0 {
		return errors.New("language ID must be a positive integer")
	}

	if strings.TrimSpace(r.SourceCode) == "" {
		return errors.New("source code cannot be empty")
	}

	return nil
}

type SubmissionListItem struct {
	ID          int       `db:"id" json:"id"`
	ProblemID   int       `db:"problem_id" json:"problem_id"`
	LanguageID  int       `db:"language_id" json:"language_id"`
	Status      string    `db:"status" json:"status"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	// Derived field filled in by the handler
	FormattedTime string `db:"-" json:"submitted_time"`
}
