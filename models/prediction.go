package models

import "time"

// PerformanceTrend is a pure projection of one past attempt.
type PerformanceTrend struct {
	Date           time.Time          `json:"date"`
	Score          float64            `json:"score"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// PerformanceForecast is the predictor's output for one user/scenario pair.
type PerformanceForecast struct {
	Prediction             string             `json:"prediction"`
	Confidence             float64            `json:"confidence"`
	RecommendedPreparation string             `json:"recommended_preparation"`
	Trends                 []PerformanceTrend `json:"trends"`
}
