package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"medsim/models"
)

// NLPProcessor tokenizes patient conversations, extracts medical terms
// through the model (cached), and scores communication style (uncached,
// conversations are rarely repeated verbatim).
type NLPProcessor struct {
	cache   *ResponseCache
	model   ModelClient
	termTTL time.Duration
}

func NewNLPProcessor(cache *ResponseCache, model ModelClient, termTTL time.Duration) *NLPProcessor {
	return &NLPProcessor{cache: cache, model: model, termTTL: termTTL}
}

// Tokenize lowercases content and splits on anything that is not a letter,
// digit or apostrophe.
func Tokenize(content string) []string {
	content = strings.ToLower(content)
	return strings.FieldsFunc(content, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r == '\'':
			return false
		}
		return true
	})
}

func (p *NLPProcessor) AnalyzePatientInteraction(ctx context.Context, conversation []models.ChatMessage) (*models.InteractionAnalysis, error) {
	result := &models.InteractionAnalysis{Timestamp: time.Now()}

	var tokens []string
	for _, msg := range conversation {
		tokens = append(tokens, Tokenize(msg.Content)...)
	}
	if len(tokens) == 0 {
		// Nothing to analyze; do not invoke the model.
		return result, nil
	}

	terms, err := p.extractMedicalTerms(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysisFailed, err)
	}
	result.MedicalTerms = *terms

	comm, err := p.analyzeCommunicationStyle(ctx, conversation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysisFailed, err)
	}
	result.Communication = *comm

	return result, nil
}

// extractMedicalTerms asks the model to categorize the token stream. The
// categorized result is cached by token fingerprint so identical inputs
// within the TTL window invoke the model at most once. Only validated JSON
// is ever written to the cache.
func (p *NLPProcessor) extractMedicalTerms(ctx context.Context, tokens []string) (*models.MedicalTerms, error) {
	key := CacheKey("medical-terms", strings.Join(tokens, " "))

	raw, err := p.cache.GetOrCompute(ctx, key, p.termTTL, func(ctx context.Context) (string, error) {
		reply, err := p.model.Chat(ctx, []ModelMessage{
			{Role: "system", Content: medicalTermsPrompt},
			{Role: "user", Content: strings.Join(tokens, " ")},
		})
		if err != nil {
			return "", err
		}
		var terms models.MedicalTerms
		if err := json.Unmarshal([]byte(extractJSON(reply)), &terms); err != nil {
			return "", fmt.Errorf("%w: malformed term categorization: %v", models.ErrUpstreamModel, err)
		}
		canonical, err := json.Marshal(terms)
		if err != nil {
			return "", err
		}
		return string(canonical), nil
	})
	if err != nil {
		return nil, err
	}

	var terms models.MedicalTerms
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, fmt.Errorf("%w: malformed cached terms: %v", models.ErrUpstreamModel, err)
	}
	return &terms, nil
}

func (p *NLPProcessor) analyzeCommunicationStyle(ctx context.Context, conversation []models.ChatMessage) (*models.CommunicationAnalysis, error) {
	var b strings.Builder
	for _, msg := range conversation {
		b.WriteString(string(msg.Sender))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	reply, err := p.model.Chat(ctx, []ModelMessage{
		{Role: "system", Content: communicationPrompt},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		return nil, err
	}

	var comm models.CommunicationAnalysis
	if err := json.Unmarshal([]byte(extractJSON(reply)), &comm); err != nil {
		return nil, fmt.Errorf("%w: malformed communication scores: %v", models.ErrUpstreamModel, err)
	}
	comm.Empathy = clamp100(comm.Empathy)
	comm.Clarity = clamp100(comm.Clarity)
	comm.Professionalism = clamp100(comm.Professionalism)
	comm.Engagement = clamp100(comm.Engagement)
	return &comm, nil
}

// extractJSON strips markdown fences and surrounding prose, keeping the
// outermost JSON object. Providers wrap JSON in ``` blocks often enough that
// parsing the raw reply directly is unreliable.
func extractJSON(reply string) string {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return reply
	}
	return reply[start : end+1]
}

const medicalTermsPrompt = `You are a clinical NLP assistant. Categorize the medical terms in the supplied token stream.
Respond with only a JSON object of the form
{"symptoms":[],"conditions":[],"medications":[],"procedures":[]}
listing each recognized term under exactly one category. Ignore non-medical tokens.`

const communicationPrompt = `You are evaluating a medical trainee's communication with a simulated patient.
Score the trainee's side of the conversation and respond with only a JSON object of the form
{"empathy":0,"clarity":0,"professionalism":0,"engagement":0}
where each value is a number from 0 to 100.`
