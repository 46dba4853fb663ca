package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"codearena/internal/logger"
	"codearena/internal/middlewares"
	"codearena/internal/models"
	"codearena/internal/repositories"
	"codearena/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ContestHandler struct {
	contestService *services.ContestService
	contestRepo    repositories.ContestRepository
	submissionRepo repositories.SubmissionRepository
	redis          *redis.Client
	stream         string
}

func NewContestHandler(contestService *services.ContestService, contestRepo repositories.ContestRepository,
	submissionRepo repositories.SubmissionRepository, rdb *redis.Client, stream string) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
		contestRepo:    contestRepo,
		submissionRepo: submissionRepo,
		redis:          rdb,
		stream:         stream,
	}
}

// Submit judges a contest submission synchronously and returns the scoring
// outcome. The judged event is also published to the stats stream; that
// feed is advisory and never affects scoring.
func (h *ContestHandler) Submit(c *gin.Context) {
	contestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	userID := c.GetInt(middlewares.UserContextKey)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	var req models.ContestSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.ValidateRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.contestService.Submit(context.Background(), contestID, userID, &req)
	if err != nil {
		h.writeSubmitError(c, contestID, userID, err)
		return
	}

	h.publishSubmissionEvent(contestID, req.ProblemID, result.Verdict)

	response := gin.H{
		"status":     result.Outcome,
		"verdict":    result.Verdict,
		"submission": result.Submission,
	}
	if result.Outcome == services.OutcomeAccepted {
		response["new_score"] = result.NewScore
		response["solved_at_duration"] = result.SolvedAtDuration
	}

	c.JSON(http.StatusOK, response)
}

func (h *ContestHandler) writeSubmitError(c *gin.Context, contestID, userID int, err error) {
	switch {
	case errors.Is(err, services.ErrContestNotFound), errors.Is(err, services.ErrProblemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest or problem not found"})
	case errors.Is(err, services.ErrContestNotLive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contest is not live"})
	case errors.Is(err, services.ErrProblemNotInContest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Problem is not part of this contest"})
	case errors.Is(err, services.ErrOracleUnavailable):
		logger.Log.Error("Judging service unavailable",
			zap.Int("contest_id", contestID),
			zap.Int("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Judging service unavailable, please resubmit"})
	default:
		logger.Log.Error("Failed to process contest submission",
			zap.Int("contest_id", contestID),
			zap.Int("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process submission"})
	}
}

func (h *ContestHandler) publishSubmissionEvent(contestID, problemID int, verdict string) {
	err := h.redis.XAdd(context.Background(), &redis.XAddArgs{
		Stream: h.stream,
		ID:     "*", // Auto-generate ID
		Values: map[string]interface{}{
			"contest_id": strconv.Itoa(contestID),
			"problem_id": strconv.Itoa(problemID),
			"status":     verdict,
		},
	}).Err()

	if err != nil {
		logger.Log.Error("Failed to publish submission event",
			zap.Int("contest_id", contestID),
			zap.Int("problem_id", problemID),
			zap.Error(err))
	}
}

// Leaderboard returns participants sorted by score descending, penalty
// ascending, recomputed from the current participant rows on every call.
func (h *ContestHandler) Leaderboard(c *gin.Context) {
	contestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	phase, rows, err := h.contestService.Leaderboard(context.Background(), contestID)
	if err != nil {
		if errors.Is(err, services.ErrContestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
			return
		}
		logger.Log.Error("Failed to build leaderboard",
			zap.Int("contest_id", contestID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"phase": phase,
		"data":  rows,
	})
}

func (h *ContestHandler) GetContests(c *gin.Context) {
	contests, err := h.contestRepo.ListContests(context.Background())
	if err != nil {
		logger.Log.Error("Failed to list contests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve contests"})
		return
	}

	now := time.Now()
	for i := range contests {
		contest := models.Contest{StartTime: contests[i].StartTime, EndTime: contests[i].EndTime}
		contests[i].Phase = contest.PhaseAt(now)
	}

	c.JSON(http.StatusOK, gin.H{"contests": contests})
}

// GetContest returns the contest definition with per-problem submission
// counters maintained by the stats workers.
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	contest, err := h.contestRepo.GetContest(context.Background(), contestID)
	if err != nil {
		if errors.Is(err, services.ErrContestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
			return
		}
		logger.Log.Error("Failed to get contest",
			zap.Int("contest_id", contestID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve contest"})
		return
	}

	problems := make([]gin.H, 0, len(contest.Problems))
	for _, p := range contest.Problems {
		entry := gin.H{
			"problem_id": p.ProblemID,
			"title":      p.Title,
			"points":     p.Points,
		}

		statsKey := fmt.Sprintf("contest:%d:problem:%d:stats", contestID, p.ProblemID)
		stats, err := h.redis.HGetAll(context.Background(), statsKey).Result()
		if err == nil && len(stats) > 0 {
			total, _ := strconv.Atoi(stats["total"])
			accepted, _ := strconv.Atoi(stats["accepted"])
			entry["total_submissions"] = total
			entry["accepted_submissions"] = accepted
			if total > 0 {
				entry["acceptance_rate"] = (float64(accepted) / float64(total)) * 100
			}
		}

		problems = append(problems, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         contest.ID,
		"title":      contest.Title,
		"start_time": contest.StartTime,
		"end_time":   contest.EndTime,
		"phase":      contest.PhaseAt(time.Now()),
		"problems":   problems,
	})
}

// GetUserSubmissions lists the authenticated user's judged attempts on one
// contest problem, newest first.
func (h *ContestHandler) GetUserSubmissions(c *gin.Context) {
	contestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	userID := c.GetInt(middlewares.UserContextKey)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	problemID, err := strconv.Atoi(c.Query("problem_id"))
	if err != nil || problemID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem ID"})
		return
	}

	submissions, err := h.submissionRepo.ListByUserAndProblem(context.Background(), contestID, userID, problemID)
	if err != nil {
		logger.Log.Error("Failed to get user submissions",
			zap.Int("contest_id", contestID),
			zap.Int("user_id", userID),
			zap.Int("problem_id", problemID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submission history"})
		return
	}

	for i := range submissions {
		submissions[i].FormattedTime = submissions[i].SubmittedAt.Format("Jan 2, 2006 at 3:04 PM")
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"count":       len(submissions),
	})
}

func (h *ContestHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	contestGroup := router.Group("/contests")
	{
		contestGroup.GET("", h.GetContests)
		contestGroup.GET("/:id", h.GetContest)
		contestGroup.GET("/:id/leaderboard", h.Leaderboard)
		contestGroup.POST("/:id/submit", auth, h.Submit)
		contestGroup.GET("/:id/submissions", auth, h.GetUserSubmissions)
	}
}
