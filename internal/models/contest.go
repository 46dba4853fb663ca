package models

import "time"

type ContestPhase string

const (
	PhaseUpcoming ContestPhase = "UPCOMING"
	PhaseLive     ContestPhase = "LIVE"
	PhasePast     ContestPhase = "PAST"
)

// Participant problem-stat statuses. Solved is terminal: once a stat row
// reaches it, no further scoring mutation may touch that row.
const (
	StatUnsolved  = "unsolved"
	StatAttempted = "attempted"
	StatSolved    = "solved"
)

// Penalty charged per wrong attempt on a problem that is eventually solved,
// in minutes.
const WrongAttemptPenaltyMinutes = 20

type Contest struct {
	ID        int              `db:"id" json:"id"`
	Title     string           `db:"title" json:"title"`
	StartTime time.Time        `db:"start_time" json:"start_time"`
	EndTime   time.Time        `db:"end_time" json:"end_time"`
	Problems  []ContestProblem `json:"problems,omitempty"`
}

type ContestProblem struct {
	ProblemID int    `db:"problem_id" json:"problem_id"`
	Title     string `db:"title" json:"title"`
	Points    int    `db:"points" json:"points"`
}

// PhaseAt reports the contest phase at the given instant. Every mutating
// contest operation must compute this first and fail closed unless the
// result is PhaseLive.
func (c *Contest) PhaseAt(now time.Time) ContestPhase {
	if now.Before(c.StartTime) {
		return PhaseUpcoming
	}
	if now.After(c.EndTime) {
		return PhasePast
	}
	return PhaseLive
}

// ProblemPoints returns the point value of a problem registered in the
// contest, or false when the problem is not part of it.
func (c *Contest) ProblemPoints(problemID int) (int, bool) {
	for _, p := range c.Problems {
		if p.ProblemID == problemID {
			return p.Points, true
		}
	}
	return 0, false
}

type ContestListItem struct {
	ID        int          `db:"id" json:"id"`
	Title     string       `db:"title" json:"title"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	EndTime   time.Time    `db:"end_time" json:"end_time"`
	Phase     ContestPhase `db:"-" json:"phase"`
}

// ProblemStat is one participant's state on one contest problem. Created
// lazily on first submission, at most one row per (contest, user, problem).
type ProblemStat struct {
	ContestID       int    `db:"contest_id"`
	UserID          int    `db:"user_id"`
	ProblemID       int    `db:"problem_id"`
	Status          string `db:"status"`
	SolvedAtMinutes *int   `db:"solved_at_minutes"`
	WrongAttempts   int    `db:"wrong_attempts"`
}

type ParticipantRow struct {
	UserID           int    `db:"user_id" json:"user_id"`
	Username         string `db:"username" json:"username"`
	TotalScore       int    `db:"total_score" json:"total_score"`
	TotalPenaltyTime int    `db:"total_penalty_time" json:"total_penalty_time"`
}
