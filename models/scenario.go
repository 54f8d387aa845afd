package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Scenario struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ScenarioID  string             `bson:"scenario_id" json:"id"`
	Title       string             `bson:"title" json:"title" validate:"required,min=3,max=200"`
	Difficulty  string             `bson:"difficulty" json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Category    string             `bson:"category" json:"category" validate:"required"`
	Duration    int                `bson:"duration" json:"duration"` // minutes
	Description string             `bson:"description" json:"description"`
	// CorrectPath is the reference decision sequence attempts are graded against.
	CorrectPath []string `bson:"correct_path" json:"correct_path" validate:"required,min=1"`
	// Derived fields, written back only by attempt recording.
	CompletionRate float64   `bson:"completion_rate" json:"completion_rate"`
	Attempts       int64     `bson:"attempts" json:"attempts"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// ScenarioStats is the cache-resident rollup for one scenario. It must equal
// the true average over all stored progress records for that scenario.
type ScenarioStats struct {
	Attempts    int64     `json:"attempts"`
	AvgScore    float64   `json:"avg_score"`
	LastAttempt time.Time `json:"last_attempt"`
}
