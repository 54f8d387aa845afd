package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressRecord is append-only; never mutated after creation.
type ProgressRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RecordID    string             `bson:"record_id" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	ScenarioID  string             `bson:"scenario_id" json:"scenario_id"`
	Score       float64            `bson:"score" json:"score"`
	Decisions   []string           `bson:"decisions" json:"decisions"`
	Feedback    AttemptFeedback    `bson:"feedback" json:"feedback"`
	CompletedAt time.Time          `bson:"completed_at" json:"completed_at"`
}

type AttemptFeedback struct {
	CategoryScores  map[string]float64 `bson:"category_scores" json:"category_scores"`
	Recommendations string             `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
}
