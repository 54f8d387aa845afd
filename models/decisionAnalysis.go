package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DecisionScores are category scores derived from a decision-path analysis.
// Every field stays in [0, 100].
type DecisionScores struct {
	ClinicalReasoning  float64 `bson:"clinical_reasoning" json:"clinical_reasoning"`
	DiagnosticAccuracy float64 `bson:"diagnostic_accuracy" json:"diagnostic_accuracy"`
	TreatmentPlanning  float64 `bson:"treatment_planning" json:"treatment_planning"`
	RiskAssessment     float64 `bson:"risk_assessment" json:"risk_assessment"`
}

// AsMap returns the scores keyed by category name, for feedback payloads.
func (s DecisionScores) AsMap() map[string]float64 {
	return map[string]float64{
		"clinicalReasoning":  s.ClinicalReasoning,
		"diagnosticAccuracy": s.DiagnosticAccuracy,
		"treatmentPlanning":  s.TreatmentPlanning,
		"riskAssessment":     s.RiskAssessment,
	}
}

// DecisionAnalysis is produced once per attempt and stored immutably,
// independent of whether a progress record is persisted afterwards.
type DecisionAnalysis struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID          string             `bson:"user_id" json:"user_id"`
	ScenarioID      string             `bson:"scenario_id" json:"scenario_id"`
	Decisions       []string           `bson:"decisions" json:"decisions"`
	Analysis        string             `bson:"analysis" json:"analysis"`
	Scores          DecisionScores     `bson:"scores" json:"scores"`
	Recommendations string             `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
