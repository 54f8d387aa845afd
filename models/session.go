package models

import "time"

// Session holds the ordered conversation for one loaded patient. Created on
// patient load, destroyed on explicit end or when a new patient is loaded.
type Session struct {
	SessionID string        `json:"session_id"`
	PatientID string        `json:"patient_id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}
