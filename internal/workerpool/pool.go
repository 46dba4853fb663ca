package workerpool

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/logger"
	"codearena/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatsWorker consumes judged-submission events from a Redis stream and
// maintains per-problem submission counters. The counters are advisory
// (acceptance rates on the contest detail view); scoring and leaderboard
// state never read them.
type StatsWorker struct {
	id     string
	quit   chan bool
	rdb    *redis.Client
	stream string
	group  string
}

func NewStatsWorker(id string, rdb *redis.Client, stream, group string) *StatsWorker {
	return &StatsWorker{
		id:     id,
		quit:   make(chan bool),
		rdb:    rdb,
		stream: stream,
		group:  group,
	}
}

// Start begins consuming events from the stream
func (w *StatsWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			default:
				entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    w.group,
					Consumer: w.id,
					Streams:  []string{w.stream, ">"},
					Count:    1,
					Block:    5 * time.Second,
				}).Result()

				if err != nil {
					if err != redis.Nil {
						logger.Log.Error("Redis operation failed",
							zap.String("worker_id", w.id),
							zap.Error(err))
					}
					continue
				}

				for _, stream := range entries {
					for _, msg := range stream.Messages {
						w.processEvent(ctx, msg)
					}
				}
			}
		}
	}()
}

func (w *StatsWorker) Stop() {
	logger.Log.Info("Closing stats worker",
		zap.String("worker_id", w.id))
	w.quit <- true
	close(w.quit)
}

func (w *StatsWorker) processEvent(ctx context.Context, msg redis.XMessage) {
	if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
		logger.Log.Error("Failed to acknowledge event",
			zap.String("worker_id", w.id),
			zap.Error(err))
	}

	contestID, okContest := msg.Values["contest_id"].(string)
	problemID, okProblem := msg.Values["problem_id"].(string)
	status, okStatus := msg.Values["status"].(string)
	if !okContest || !okProblem || !okStatus {
		logger.Log.Error("Invalid submission event",
			zap.String("worker_id", w.id),
			zap.Any("values", msg.Values))
		return
	}

	statsKey := fmt.Sprintf("contest:%s:problem:%s:stats", contestID, problemID)

	if err := w.rdb.HIncrBy(ctx, statsKey, "total", 1).Err(); err != nil {
		logger.Log.Error("Failed to increment submission counter",
			zap.String("worker_id", w.id),
			zap.String("key", statsKey),
			zap.Error(err))
		return
	}

	if status == models.VerdictAccepted {
		if err := w.rdb.HIncrBy(ctx, statsKey, "accepted", 1).Err(); err != nil {
			logger.Log.Error("Failed to increment accepted counter",
				zap.String("worker_id", w.id),
				zap.String("key", statsKey),
				zap.Error(err))
			return
		}
	}

	logger.Log.Debug("Processed submission event",
		zap.String("worker_id", w.id),
		zap.String("event_id", msg.ID),
		zap.String("status", status))
}

type StatsWorkerPool struct {
	workers    []*StatsWorker
	numWorkers int
	rdb        *redis.Client
	stream     string
	group      string
}

func NewStatsWorkerPool(numWorkers int, rdb *redis.Client, stream, group string) *StatsWorkerPool {
	return &StatsWorkerPool{
		workers:    make([]*StatsWorker, numWorkers),
		numWorkers: numWorkers,
		rdb:        rdb,
		stream:     stream,
		group:      group,
	}
}

func (p *StatsWorkerPool) Start(ctx context.Context) error {
	// Create consumer group if it doesn't exist
	_, err := p.rdb.XGroupCreateMkStream(ctx, p.stream, p.group, "$").Result()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for i := 0; i < p.numWorkers; i++ {
		worker := NewStatsWorker(
			fmt.Sprintf("StatsWorker-%d", i+1),
			p.rdb,
			p.stream,
			p.group,
		)

		worker.Start(ctx)
		p.workers[i] = worker

		logger.Log.Info("Starting stats worker",
			zap.String("worker_id", worker.id))
	}

	logger.Log.Info("Stats worker pool started",
		zap.Int("num_workers", p.numWorkers))

	return nil
}

// Stop terminates all workers in the pool
func (p *StatsWorkerPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
}
