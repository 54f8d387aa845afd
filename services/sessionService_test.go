package services

import (
	"errors"
	"testing"

	"medsim/models"
)

func TestSessionLifecycle(t *testing.T) {
	svc := NewSessionService()

	session := svc.Create("patient-1")
	if session.SessionID == "" || session.PatientID != "patient-1" {
		t.Fatalf("session = %+v", session)
	}

	if err := svc.Append(session.SessionID, models.ChatMessage{Sender: models.SenderUser, Content: "hello"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := svc.Get(session.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if got.Messages[0].ID == "" || got.Messages[0].Timestamp.IsZero() {
		t.Fatalf("appended message missing id/timestamp: %+v", got.Messages[0])
	}

	if err := svc.End(session.SessionID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := svc.Get(session.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("ended session still retrievable: %v", err)
	}
}

func TestCreateReplacesSessionForSamePatient(t *testing.T) {
	svc := NewSessionService()

	first := svc.Create("patient-1")
	second := svc.Create("patient-1")

	if first.SessionID == second.SessionID {
		t.Fatal("new patient load must create a fresh session")
	}
	if _, err := svc.Get(first.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatal("old session must be destroyed on new patient load")
	}
	if _, err := svc.Get(second.SessionID); err != nil {
		t.Fatalf("new session missing: %v", err)
	}
}

func TestAppendToUnknownSession(t *testing.T) {
	svc := NewSessionService()
	if err := svc.Append("nope", models.ChatMessage{Content: "x"}); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}
