package services

import "errors"

// Domain error sentinels. Handlers map these to HTTP statuses with
// errors.Is; repositories wrap them with contextual detail.
var (
	ErrContestNotFound     = errors.New("contest not found")
	ErrProblemNotFound     = errors.New("problem not found")
	ErrContestNotLive      = errors.New("contest is not live")
	ErrProblemNotInContest = errors.New("problem is not part of this contest")
)
