package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"medsim/models"
)

// fakeModel scripts replies by system prompt and counts calls per prompt.
type fakeModel struct {
	mu      sync.Mutex
	calls   map[string]int
	replies map[string]string
	err     error
}

func newFakeModel() *fakeModel {
	return &fakeModel{calls: make(map[string]int), replies: make(map[string]string)}
}

func (m *fakeModel) Chat(_ context.Context, messages []ModelMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	system := ""
	if len(messages) > 0 && messages[0].Role == "system" {
		system = messages[0].Content
	}
	m.calls[system]++
	if m.err != nil {
		return "", m.err
	}
	if reply, ok := m.replies[system]; ok {
		return reply, nil
	}
	return "ok", nil
}

func (m *fakeModel) callCount(system string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[system]
}

func conversation(contents ...string) []models.ChatMessage {
	msgs := make([]models.ChatMessage, len(contents))
	for i, content := range contents {
		msgs[i] = models.ChatMessage{ID: "m", Sender: models.SenderUser, Content: content, Timestamp: time.Now()}
	}
	return msgs
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "punctuation stripped", content: "Chest pain, 3 days!", want: []string{"chest", "pain", "3", "days"}},
		{name: "apostrophes kept", content: "patient's BP", want: []string{"patient's", "bp"}},
		{name: "empty", content: "   ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.content)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestAnalyzePatientInteractionEmptyConversation(t *testing.T) {
	model := newFakeModel()
	nlp := NewNLPProcessor(NewResponseCache(NewMemoryStore()), model, time.Hour)

	result, err := nlp.AnalyzePatientInteraction(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzePatientInteraction: %v", err)
	}
	if len(result.MedicalTerms.Symptoms) != 0 || len(result.MedicalTerms.Conditions) != 0 {
		t.Fatalf("expected empty term sets, got %+v", result.MedicalTerms)
	}
	if model.callCount(medicalTermsPrompt)+model.callCount(communicationPrompt) != 0 {
		t.Fatal("empty conversation must not invoke the model")
	}
}

func TestAnalyzePatientInteractionCachesTermExtraction(t *testing.T) {
	model := newFakeModel()
	model.replies[medicalTermsPrompt] = `{"symptoms":["chest pain"],"conditions":[],"medications":["aspirin"],"procedures":[]}`
	model.replies[communicationPrompt] = `{"empathy":80,"clarity":70,"professionalism":90,"engagement":60}`
	nlp := NewNLPProcessor(NewResponseCache(NewMemoryStore()), model, time.Hour)

	conv := conversation("I have chest pain", "Take aspirin")
	for i := 0; i < 2; i++ {
		result, err := nlp.AnalyzePatientInteraction(context.Background(), conv)
		if err != nil {
			t.Fatalf("AnalyzePatientInteraction: %v", err)
		}
		if result.MedicalTerms.Symptoms[0] != "chest pain" {
			t.Fatalf("unexpected terms: %+v", result.MedicalTerms)
		}
		if result.Communication.Empathy != 80 {
			t.Fatalf("unexpected communication scores: %+v", result.Communication)
		}
	}

	if got := model.callCount(medicalTermsPrompt); got != 1 {
		t.Fatalf("term extraction invoked the model %d times, want 1", got)
	}
	// Communication style is never cached.
	if got := model.callCount(communicationPrompt); got != 2 {
		t.Fatalf("communication analysis invoked the model %d times, want 2", got)
	}
}

func TestAnalyzePatientInteractionDistinctConversations(t *testing.T) {
	model := newFakeModel()
	model.replies[medicalTermsPrompt] = `{"symptoms":[],"conditions":[],"medications":[],"procedures":[]}`
	model.replies[communicationPrompt] = `{"empathy":50,"clarity":50,"professionalism":50,"engagement":50}`
	nlp := NewNLPProcessor(NewResponseCache(NewMemoryStore()), model, time.Hour)

	if _, err := nlp.AnalyzePatientInteraction(context.Background(), conversation("chest pain")); err != nil {
		t.Fatalf("first analysis: %v", err)
	}
	if _, err := nlp.AnalyzePatientInteraction(context.Background(), conversation("abdominal pain")); err != nil {
		t.Fatalf("second analysis: %v", err)
	}

	if got := model.callCount(medicalTermsPrompt); got != 2 {
		t.Fatalf("different conversations shared a cache entry: %d extraction calls, want 2", got)
	}
}

func TestAnalyzePatientInteractionCacheOutage(t *testing.T) {
	model := newFakeModel()
	model.replies[medicalTermsPrompt] = `{"symptoms":["fever"],"conditions":[],"medications":[],"procedures":[]}`
	model.replies[communicationPrompt] = `{"empathy":60,"clarity":60,"professionalism":60,"engagement":60}`
	nlp := NewNLPProcessor(NewResponseCache(failingStore{}), model, time.Hour)

	result, err := nlp.AnalyzePatientInteraction(context.Background(), conversation("patient has a fever"))
	if err != nil {
		t.Fatalf("cache outage must degrade, not fail: %v", err)
	}
	if result.MedicalTerms.Symptoms[0] != "fever" {
		t.Fatalf("unexpected result: %+v", result.MedicalTerms)
	}
}

func TestAnalyzePatientInteractionModelFailure(t *testing.T) {
	model := newFakeModel()
	model.err = models.ErrUpstreamModel
	nlp := NewNLPProcessor(NewResponseCache(NewMemoryStore()), model, time.Hour)

	_, err := nlp.AnalyzePatientInteraction(context.Background(), conversation("chest pain"))
	if !errors.Is(err, models.ErrAnalysisFailed) {
		t.Fatalf("error = %v, want ErrAnalysisFailed", err)
	}
}

func TestAnalyzePatientInteractionMalformedTerms(t *testing.T) {
	model := newFakeModel()
	model.replies[medicalTermsPrompt] = "sorry, I can't do that"
	nlp := NewNLPProcessor(NewResponseCache(NewMemoryStore()), model, time.Hour)

	_, err := nlp.AnalyzePatientInteraction(context.Background(), conversation("chest pain"))
	if !errors.Is(err, models.ErrAnalysisFailed) {
		t.Fatalf("error = %v, want ErrAnalysisFailed", err)
	}
}

func TestExtractJSONFencedReply(t *testing.T) {
	reply := "Here you go:\n```json\n{\"empathy\":10}\n```"
	if got := extractJSON(reply); !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
		t.Fatalf("extractJSON = %q", got)
	}
}
