package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medsim/models"
)

// ScenarioStore owns the scenarios collection. Attempts and completionRate
// are derived fields; only attempt recording writes them back.
type ScenarioStore interface {
	GetByID(ctx context.Context, scenarioID string) (*models.Scenario, error)
	List(ctx context.Context, difficulty, category string) ([]models.Scenario, error)
	Insert(ctx context.Context, scenario *models.Scenario) error
	UpdateDerived(ctx context.Context, scenarioID string, attempts int64, completionRate float64) error
}

type MongoScenarioStore struct {
	coll *mongo.Collection
}

func NewMongoScenarioStore(db *mongo.Database) *MongoScenarioStore {
	return &MongoScenarioStore{coll: db.Collection("scenarios")}
}

func (s *MongoScenarioStore) GetByID(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	var scenario models.Scenario
	err := s.coll.FindOne(ctx, bson.M{"scenario_id": scenarioID}).Decode(&scenario)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, scenarioID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find scenario: %v", models.ErrPersistence, err)
	}
	return &scenario, nil
}

func (s *MongoScenarioStore) List(ctx context.Context, difficulty, category string) ([]models.Scenario, error) {
	filter := bson.M{}
	if difficulty != "" {
		filter["difficulty"] = difficulty
	}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list scenarios: %v", models.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var out []models.Scenario
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode scenarios: %v", models.ErrPersistence, err)
	}
	return out, nil
}

func (s *MongoScenarioStore) Insert(ctx context.Context, scenario *models.Scenario) error {
	if scenario.ScenarioID == "" {
		scenario.ScenarioID = uuid.NewString()
	}
	scenario.CreatedAt = time.Now()
	if _, err := s.coll.InsertOne(ctx, scenario); err != nil {
		return fmt.Errorf("%w: insert scenario: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *MongoScenarioStore) UpdateDerived(ctx context.Context, scenarioID string, attempts int64, completionRate float64) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "attempts", Value: attempts},
		{Key: "completion_rate", Value: completionRate},
	}}}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"scenario_id": scenarioID}, update); err != nil {
		return fmt.Errorf("%w: update scenario rollup: %v", models.ErrPersistence, err)
	}
	return nil
}
