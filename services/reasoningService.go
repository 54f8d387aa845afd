package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"medsim/models"
)

var (
	weightOrderFidelity = 0.6
	weightAccuracy      = 0.4
	riskPenalty         = 20.0
)

// DecisionStore persists immutable decision-analysis records.
type DecisionStore interface {
	InsertAnalysis(ctx context.Context, analysis *models.DecisionAnalysis) error
}

// MongoDecisionStore writes analyses to the decisions collection.
type MongoDecisionStore struct {
	coll *mongo.Collection
}

func NewMongoDecisionStore(db *mongo.Database) *MongoDecisionStore {
	return &MongoDecisionStore{coll: db.Collection("decisions")}
}

func (s *MongoDecisionStore) InsertAnalysis(ctx context.Context, analysis *models.DecisionAnalysis) error {
	if _, err := s.coll.InsertOne(ctx, analysis); err != nil {
		return fmt.Errorf("%w: insert decision analysis: %v", models.ErrPersistence, err)
	}
	return nil
}

// ClinicalReasoningEngine grades a trainee's ordered decisions against a
// reference decision path.
type ClinicalReasoningEngine struct {
	model     ModelClient
	decisions DecisionStore
}

func NewClinicalReasoningEngine(model ModelClient, decisions DecisionStore) *ClinicalReasoningEngine {
	return &ClinicalReasoningEngine{model: model, decisions: decisions}
}

// AnalyzeDecisionPath runs the full evaluation: model comparison, score
// derivation, immutable storage, then recommendations. Any model failure
// aborts the call; no partial scores are returned.
func (e *ClinicalReasoningEngine) AnalyzeDecisionPath(ctx context.Context, userID, scenarioID string, studentDecisions, correctPath []string) (*models.DecisionAnalysis, error) {
	analysis, err := e.compareDecisions(ctx, studentDecisions, correctPath)
	if err != nil {
		return nil, fmt.Errorf("%w: compare decisions: %v", models.ErrEvaluationFailed, err)
	}

	scores := CalculateDecisionScores(analysis, studentDecisions, correctPath)

	record := &models.DecisionAnalysis{
		UserID:     userID,
		ScenarioID: scenarioID,
		Decisions:  studentDecisions,
		Analysis:   analysis,
		Scores:     scores,
		CreatedAt:  time.Now(),
	}
	if err := e.decisions.InsertAnalysis(ctx, record); err != nil {
		return nil, err
	}

	recommendations, err := e.generateRecommendations(ctx, analysis)
	if err != nil {
		return nil, fmt.Errorf("%w: generate recommendations: %v", models.ErrEvaluationFailed, err)
	}
	record.Recommendations = recommendations

	return record, nil
}

// FeedbackText returns only the model-authored comparison, for callers that
// want feedback without grading or storage.
func (e *ClinicalReasoningEngine) FeedbackText(ctx context.Context, studentDecisions, correctPath []string) (string, error) {
	analysis, err := e.compareDecisions(ctx, studentDecisions, correctPath)
	if err != nil {
		return "", fmt.Errorf("%w: compare decisions: %v", models.ErrEvaluationFailed, err)
	}
	return analysis, nil
}

func (e *ClinicalReasoningEngine) compareDecisions(ctx context.Context, studentDecisions, correctPath []string) (string, error) {
	prompt := fmt.Sprintf(
		"Student decisions, in order:\n%s\n\nReference decision path, in order:\n%s",
		bulleted(studentDecisions), bulleted(correctPath),
	)
	return e.model.Chat(ctx, []ModelMessage{
		{Role: "system", Content: comparisonPrompt},
		{Role: "user", Content: prompt},
	})
}

func (e *ClinicalReasoningEngine) generateRecommendations(ctx context.Context, analysis string) (string, error) {
	return e.model.Chat(ctx, []ModelMessage{
		{Role: "system", Content: recommendationsPrompt},
		{Role: "user", Content: analysis},
	})
}

// CalculateDecisionScores derives the four category scores. It is a pure
// function of the analysis text and the two decision sequences: marker lines
// emitted by the comparison prompt are counted, and the sequences themselves
// provide coverage and order fidelity. Every score lands in [0, 100].
func CalculateDecisionScores(analysis string, studentDecisions, correctPath []string) models.DecisionScores {
	correct := countMarkers(analysis, "CORRECT:")
	missed := countMarkers(analysis, "MISSED:")
	risks := countMarkers(analysis, "RISK:")

	coverage, matched := pathCoverage(studentDecisions, correctPath)
	order := orderFidelity(studentDecisions, correctPath)

	// Fall back to direct sequence comparison when the analysis carries no
	// markers (free-form model output).
	if correct+missed == 0 {
		correct = matched
		missed = len(correctPath) - matched
	}

	accuracy := 0.0
	if correct+missed > 0 {
		accuracy = float64(correct) / float64(correct+missed)
	}

	return models.DecisionScores{
		ClinicalReasoning:  clamp100(100 * (weightOrderFidelity*order + weightAccuracy*accuracy)),
		DiagnosticAccuracy: clamp100(100 * accuracy),
		TreatmentPlanning:  clamp100(100 * coverage),
		RiskAssessment:     clamp100(100 - riskPenalty*float64(risks)),
	}
}

func countMarkers(analysis, marker string) int {
	count := 0
	for _, line := range strings.Split(analysis, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			count++
		}
	}
	return count
}

// pathCoverage reports the fraction of reference steps present anywhere in
// the student's decisions, plus the matched count.
func pathCoverage(studentDecisions, correctPath []string) (float64, int) {
	if len(correctPath) == 0 {
		return 0, 0
	}
	taken := make(map[string]bool, len(studentDecisions))
	for _, d := range studentDecisions {
		taken[normalizeDecision(d)] = true
	}
	matched := 0
	for _, step := range correctPath {
		if taken[normalizeDecision(step)] {
			matched++
		}
	}
	return float64(matched) / float64(len(correctPath)), matched
}

// orderFidelity is the longest-common-subsequence length between the two
// sequences, relative to the reference length. It rewards doing the right
// steps in the right order, not just doing them.
func orderFidelity(studentDecisions, correctPath []string) float64 {
	if len(correctPath) == 0 {
		return 0
	}
	a := make([]string, len(studentDecisions))
	for i, d := range studentDecisions {
		a[i] = normalizeDecision(d)
	}
	b := make([]string, len(correctPath))
	for i, d := range correctPath {
		b[i] = normalizeDecision(d)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return float64(prev[len(b)]) / float64(len(b))
}

func normalizeDecision(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

func bulleted(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

const comparisonPrompt = `You are a clinical instructor reviewing a trainee's decision path against the reference path for the same case.
Write a concise assessment. For each reference step the trainee performed, emit a line starting with "CORRECT:".
For each reference step the trainee skipped, emit a line starting with "MISSED:".
For each decision that exposed the patient to avoidable risk, emit a line starting with "RISK:".
Follow the marker lines with a short narrative of the trainee's overall reasoning.`

const recommendationsPrompt = `Based on the following decision-path assessment, give the trainee three specific, actionable study recommendations. Be direct and concrete.`
