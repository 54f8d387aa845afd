package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"medsim/models"
)

// StatsAggregator maintains per-scenario rollups: attempt count, running
// average score and last-attempt time. RecordAttempt must be atomic per
// scenario key; two concurrent attempts must never both read the same
// prior attempt count.
type StatsAggregator interface {
	RecordAttempt(ctx context.Context, scenarioID string, score float64, at time.Time) (*models.ScenarioStats, error)
	Get(ctx context.Context, scenarioID string) (*models.ScenarioStats, error)
}

func statsKey(scenarioID string) string {
	return "scenario:" + scenarioID + ":stats"
}

// recordAttemptScript folds one attempt into the stats hash server-side, so
// the read-modify-write of the running average is a single step per key.
var recordAttemptScript = redis.NewScript(`
local attempts = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0')
local avg = tonumber(redis.call('HGET', KEYS[1], 'avgScore') or '0')
local score = tonumber(ARGV[1])
local newAvg = (avg * attempts + score) / (attempts + 1)
redis.call('HSET', KEYS[1], 'attempts', attempts + 1, 'avgScore', tostring(newAvg), 'lastAttempt', ARGV[2])
return {attempts + 1, tostring(newAvg)}
`)

// RedisStats keeps stats in a Redis hash per scenario.
type RedisStats struct {
	client *redis.Client
}

func NewRedisStats(client *redis.Client) *RedisStats {
	return &RedisStats{client: client}
}

func (s *RedisStats) RecordAttempt(ctx context.Context, scenarioID string, score float64, at time.Time) (*models.ScenarioStats, error) {
	res, err := recordAttemptScript.Run(ctx, s.client,
		[]string{statsKey(scenarioID)},
		score, at.UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: record attempt stats: %v", models.ErrPersistence, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected stats reply", models.ErrPersistence)
	}

	attempts, ok := res[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected attempts reply", models.ErrPersistence)
	}
	avgStr, ok := res[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected avgScore reply", models.ErrPersistence)
	}
	avg, err := strconv.ParseFloat(avgStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse avgScore: %v", models.ErrPersistence, err)
	}

	return &models.ScenarioStats{Attempts: attempts, AvgScore: avg, LastAttempt: at}, nil
}

func (s *RedisStats) Get(ctx context.Context, scenarioID string) (*models.ScenarioStats, error) {
	fields, err := s.client.HGetAll(ctx, statsKey(scenarioID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read stats: %v", models.ErrPersistence, err)
	}
	stats := &models.ScenarioStats{}
	if len(fields) == 0 {
		return stats, nil
	}
	stats.Attempts, _ = strconv.ParseInt(fields["attempts"], 10, 64)
	stats.AvgScore, _ = strconv.ParseFloat(fields["avgScore"], 64)
	if ts := fields["lastAttempt"]; ts != "" {
		stats.LastAttempt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return stats, nil
}

// MemoryStats serializes all updates under one mutex. It backs tests.
type MemoryStats struct {
	mu    sync.Mutex
	stats map[string]*models.ScenarioStats
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{stats: make(map[string]*models.ScenarioStats)}
}

func (s *MemoryStats) RecordAttempt(_ context.Context, scenarioID string, score float64, at time.Time) (*models.ScenarioStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.stats[scenarioID]
	if !ok {
		cur = &models.ScenarioStats{}
		s.stats[scenarioID] = cur
	}
	cur.AvgScore = (cur.AvgScore*float64(cur.Attempts) + score) / float64(cur.Attempts+1)
	cur.Attempts++
	cur.LastAttempt = at
	out := *cur
	return &out, nil
}

func (s *MemoryStats) Get(_ context.Context, scenarioID string) (*models.ScenarioStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.stats[scenarioID]; ok {
		out := *cur
		return &out, nil
	}
	return &models.ScenarioStats{}, nil
}
