package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medsim/models"
)

// ProgressStore owns the append-only progress collection.
type ProgressStore interface {
	Insert(ctx context.Context, record *models.ProgressRecord) error
	Delete(ctx context.Context, recordID string) error
	ListByUser(ctx context.Context, userID string) ([]models.ProgressRecord, error)
	RecentByUser(ctx context.Context, userID string, limit int64) ([]models.ProgressRecord, error)
}

type MongoProgressStore struct {
	coll *mongo.Collection
}

func NewMongoProgressStore(db *mongo.Database) *MongoProgressStore {
	return &MongoProgressStore{coll: db.Collection("progress")}
}

func (s *MongoProgressStore) Insert(ctx context.Context, record *models.ProgressRecord) error {
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("%w: insert progress record: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *MongoProgressStore) Delete(ctx context.Context, recordID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"record_id": recordID}); err != nil {
		return fmt.Errorf("%w: delete progress record: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *MongoProgressStore) ListByUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	return s.findByUser(ctx, userID, 0)
}

func (s *MongoProgressStore) RecentByUser(ctx context.Context, userID string, limit int64) ([]models.ProgressRecord, error) {
	return s.findByUser(ctx, userID, limit)
}

func (s *MongoProgressStore) findByUser(ctx context.Context, userID string, limit int64) ([]models.ProgressRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completed_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find progress records: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var out []models.ProgressRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode progress records: %v", models.ErrPersistence, err)
	}
	return out, nil
}

// ProgressService orchestrates attempt recording: evaluation through the
// reasoning engine, the append-only progress record, and the per-scenario
// stats rollup.
type ProgressService struct {
	store     ProgressStore
	scenarios ScenarioStore
	engine    *ClinicalReasoningEngine
	stats     StatsAggregator
}

func NewProgressService(store ProgressStore, scenarios ScenarioStore, engine *ClinicalReasoningEngine, stats StatsAggregator) *ProgressService {
	return &ProgressService{store: store, scenarios: scenarios, engine: engine, stats: stats}
}

// RecordAttempt evaluates the decisions, persists the record, then folds the
// score into the scenario stats. The record insert and the stats update
// commit together: a failed stats update rolls the insert back so the rollup
// never diverges from the stored records.
func (s *ProgressService) RecordAttempt(ctx context.Context, userID, scenarioID string, score float64, decisions []string) (string, *models.ScenarioStats, error) {
	scenario, err := s.scenarios.GetByID(ctx, scenarioID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: %s", models.ErrScenarioNotFound, scenarioID)
		}
		return "", nil, err
	}

	analysis, err := s.engine.AnalyzeDecisionPath(ctx, userID, scenarioID, decisions, scenario.CorrectPath)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	record := &models.ProgressRecord{
		RecordID:   uuid.NewString(),
		UserID:     userID,
		ScenarioID: scenarioID,
		Score:      score,
		Decisions:  decisions,
		Feedback: models.AttemptFeedback{
			CategoryScores:  analysis.Scores.AsMap(),
			Recommendations: analysis.Recommendations,
		},
		CompletedAt: now,
	}

	if err := s.store.Insert(ctx, record); err != nil {
		return "", nil, err
	}

	stats, err := s.stats.RecordAttempt(ctx, scenarioID, score, now)
	if err != nil {
		// Compensate so stored records and the rollup stay consistent.
		if delErr := s.store.Delete(ctx, record.RecordID); delErr != nil {
			slog.Error("failed to roll back progress record after stats failure",
				"record_id", record.RecordID, "error", delErr)
		}
		return "", nil, err
	}

	if err := s.scenarios.UpdateDerived(ctx, scenarioID, stats.Attempts, stats.AvgScore); err != nil {
		// The scenario document's rollup is advisory; the stats hash is the
		// source of truth, so a failed write-back is logged, not fatal.
		slog.Warn("failed to update scenario rollup", "scenario_id", scenarioID, "error", err)
	}

	return record.RecordID, stats, nil
}

// History returns all progress records for a user, newest first.
func (s *ProgressService) History(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	return s.store.ListByUser(ctx, userID)
}
