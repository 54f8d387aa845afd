package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"medsim/models"
)

// confidenceHalfSample controls how fast confidence grows with history size:
// n/(n+confidenceHalfSample) reaches 0.5 at n = confidenceHalfSample.
const confidenceHalfSample = 3.0

// PerformancePredictor forecasts a user's performance on a target scenario
// from their recent attempt history.
type PerformancePredictor struct {
	progress  ProgressStore
	scenarios ScenarioStore
	model     ModelClient
	window    int64
}

func NewPerformancePredictor(progress ProgressStore, scenarios ScenarioStore, model ModelClient, window int) *PerformancePredictor {
	return &PerformancePredictor{progress: progress, scenarios: scenarios, model: model, window: int64(window)}
}

func (p *PerformancePredictor) PredictPerformance(ctx context.Context, userID, scenarioID string) (*models.PerformanceForecast, error) {
	scenario, err := p.scenarios.GetByID(ctx, scenarioID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrScenarioNotFound, scenarioID)
		}
		return nil, err
	}

	records, err := p.progress.RecentByUser(ctx, userID, p.window)
	if err != nil {
		return nil, err
	}

	trends := CalculatePerformanceTrends(records)

	analysis, err := p.analyzeStrengthsWeaknesses(ctx, trends)
	if err != nil {
		return nil, err
	}

	prediction, err := p.generatePrediction(ctx, scenario, trends, analysis)
	if err != nil {
		return nil, err
	}

	preparation, err := p.generatePreparationRecommendations(ctx, prediction)
	if err != nil {
		return nil, err
	}

	return &models.PerformanceForecast{
		Prediction:             prediction,
		Confidence:             CalculatePredictionConfidence(records),
		RecommendedPreparation: preparation,
		Trends:                 trends,
	}, nil
}

// CalculatePerformanceTrends projects records onto their trend view. Pure;
// no external calls.
func CalculatePerformanceTrends(records []models.ProgressRecord) []models.PerformanceTrend {
	trends := make([]models.PerformanceTrend, 0, len(records))
	for _, r := range records {
		trends = append(trends, models.PerformanceTrend{
			Date:           r.CompletedAt,
			Score:          r.Score,
			CategoryScores: r.Feedback.CategoryScores,
		})
	}
	return trends
}

// CalculatePredictionConfidence is deterministic in the history: it grows
// with sample size and shrinks with score spread. With scores bounded to
// [0, 100] the standard deviation tops out at 50, which normalizes the
// spread term. Result is clamped to [0, 100].
func CalculatePredictionConfidence(records []models.ProgressRecord) float64 {
	n := len(records)
	if n == 0 {
		return 0
	}

	scores := make([]float64, n)
	for i, r := range records {
		scores[i] = r.Score
	}
	sd, err := stats.StandardDeviation(scores)
	if err != nil {
		return 0
	}

	sampleWeight := float64(n) / (float64(n) + confidenceHalfSample)
	spreadWeight := 1 - sd/50
	return clamp100(100 * sampleWeight * spreadWeight)
}

func (p *PerformancePredictor) analyzeStrengthsWeaknesses(ctx context.Context, trends []models.PerformanceTrend) (string, error) {
	return p.model.Chat(ctx, []ModelMessage{
		{Role: "system", Content: strengthsPrompt},
		{Role: "user", Content: formatTrends(trends)},
	})
}

func (p *PerformancePredictor) generatePrediction(ctx context.Context, scenario *models.Scenario, trends []models.PerformanceTrend, analysis string) (string, error) {
	prompt := fmt.Sprintf(
		"Target scenario: %s (difficulty %s, category %s, ~%d min)\n%s\n\nRecent attempts:\n%s\nStrengths/weaknesses analysis:\n%s",
		scenario.Title, scenario.Difficulty, scenario.Category, scenario.Duration,
		scenario.Description, formatTrends(trends), analysis,
	)
	return p.model.Chat(ctx, []ModelMessage{
		{Role: "system", Content: predictionPrompt},
		{Role: "user", Content: prompt},
	})
}

func (p *PerformancePredictor) generatePreparationRecommendations(ctx context.Context, prediction string) (string, error) {
	return p.model.Chat(ctx, []ModelMessage{
		{Role: "system", Content: preparationPrompt},
		{Role: "user", Content: prediction},
	})
}

func formatTrends(trends []models.PerformanceTrend) string {
	if len(trends) == 0 {
		return "(no prior attempts)\n"
	}
	var b strings.Builder
	for _, t := range trends {
		fmt.Fprintf(&b, "- %s: score %.1f", t.Date.Format("2006-01-02"), t.Score)
		for category, score := range t.CategoryScores {
			fmt.Fprintf(&b, ", %s %.1f", category, score)
		}
		b.WriteString("\n")
	}
	return b.String()
}

const strengthsPrompt = `You are a clinical education advisor. From the trainee's recent attempt history below, summarize their strengths and weaknesses in two short paragraphs.`

const predictionPrompt = `Forecast how the trainee is likely to perform on the target scenario, given their history and the analysis. Answer in one short paragraph.`

const preparationPrompt = `Given the performance forecast below, list the three most useful preparation steps for the trainee before attempting the scenario.`
