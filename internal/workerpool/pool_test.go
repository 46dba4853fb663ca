package workerpool

import (
	"context"
	"os"
	"testing"
	"time"

	"codearena/internal/logger"
	"codearena/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitForStats(t *testing.T, rdb *redis.Client, key string, wantTotal, wantAccepted string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := rdb.HGetAll(context.Background(), key).Result()
		if err == nil && stats["total"] == wantTotal && stats["accepted"] == wantAccepted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	stats, _ := rdb.HGetAll(context.Background(), key).Result()
	t.Fatalf("stats never converged: got %v, want total=%s accepted=%s", stats, wantTotal, wantAccepted)
}

func TestStatsWorkerPoolCountsSubmissions(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewStatsWorkerPool(2, rdb, "test_submissions", "test-group")
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	defer pool.Stop()

	events := []map[string]interface{}{
		{"contest_id": "1", "problem_id": "10", "status": models.VerdictAccepted},
		{"contest_id": "1", "problem_id": "10", "status": models.VerdictWrongAnswer},
		{"contest_id": "1", "problem_id": "10", "status": models.VerdictAccepted},
	}
	for _, values := range events {
		if err := rdb.XAdd(ctx, &redis.XAddArgs{Stream: "test_submissions", Values: values}).Err(); err != nil {
			t.Fatalf("failed to add event: %v", err)
		}
	}

	waitForStats(t, rdb, "contest:1:problem:10:stats", "3", "2")
}

func TestStatsWorkerPoolIgnoresMalformedEvents(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewStatsWorkerPool(1, rdb, "test_submissions", "test-group")
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	defer pool.Stop()

	// Missing status field; must be acked and skipped without counting
	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: "test_submissions",
		Values: map[string]interface{}{"contest_id": "1", "problem_id": "10"},
	}).Err(); err != nil {
		t.Fatalf("failed to add event: %v", err)
	}
	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: "test_submissions",
		Values: map[string]interface{}{"contest_id": "1", "problem_id": "10", "status": models.VerdictWrongAnswer},
	}).Err(); err != nil {
		t.Fatalf("failed to add event: %v", err)
	}

	waitForStats(t, rdb, "contest:1:problem:10:stats", "1", "")
}

func TestStatsWorkerPoolStartIsIdempotent(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := NewStatsWorkerPool(1, rdb, "test_submissions", "test-group")
	if err := first.Start(ctx); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	defer first.Stop()

	// A second pool on the same group must tolerate BUSYGROUP
	second := NewStatsWorkerPool(1, rdb, "test_submissions", "test-group")
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected existing consumer group to be tolerated: %v", err)
	}
	second.Stop()
}
