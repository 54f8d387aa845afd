package models

import "time"

// MedicalTerms are conversation terms categorized by the model.
type MedicalTerms struct {
	Symptoms    []string `json:"symptoms"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
	Procedures  []string `json:"procedures"`
}

// CommunicationAnalysis scores a trainee's communication style, 0-100 each.
type CommunicationAnalysis struct {
	Empathy         float64 `json:"empathy"`
	Clarity         float64 `json:"clarity"`
	Professionalism float64 `json:"professionalism"`
	Engagement      float64 `json:"engagement"`
}

type InteractionAnalysis struct {
	MedicalTerms  MedicalTerms          `json:"medical_terms"`
	Communication CommunicationAnalysis `json:"communication_analysis"`
	Timestamp     time.Time             `json:"timestamp"`
}
