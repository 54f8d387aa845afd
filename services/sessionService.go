package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"medsim/models"
)

// SessionService tracks live patient sessions in process. A session exists
// from patient load until explicit end; loading a new patient for the same
// patient ID replaces the old session.
type SessionService struct {
	mu        sync.RWMutex
	sessions  map[string]*models.Session
	byPatient map[string]string
}

func NewSessionService() *SessionService {
	return &SessionService{
		sessions:  make(map[string]*models.Session),
		byPatient: make(map[string]string),
	}
}

func (s *SessionService) Create(patientID string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byPatient[patientID]; ok {
		delete(s.sessions, old)
	}

	session := &models.Session{
		SessionID: uuid.NewString(),
		PatientID: patientID,
		CreatedAt: time.Now(),
	}
	s.sessions[session.SessionID] = session
	s.byPatient[patientID] = session.SessionID
	return session
}

func (s *SessionService) Get(sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	out := *session
	out.Messages = append([]models.ChatMessage(nil), session.Messages...)
	return &out, nil
}

// Append adds a message to the session's ordered history. Messages are
// immutable once appended.
func (s *SessionService) Append(sessionID string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return models.ErrSessionNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	session.Messages = append(session.Messages, msg)
	return nil
}

func (s *SessionService) End(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return models.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	delete(s.byPatient, session.PatientID)
	return nil
}
