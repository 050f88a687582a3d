// Package usecase implements the application services on top of the domain
// entities and collaborator contracts.
package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/entities"
	"github.com/satriahrh/rapat/domain/repositories"
)

var (
	// ErrAlreadyActive is returned by Create while another session
	// occupies the current slot.
	ErrAlreadyActive = errors.New("a session is already active, end it before starting a new one")
	// ErrNoActiveSession is returned by operations that require a current
	// session.
	ErrNoActiveSession = errors.New("no active session")
)

// SessionService is the single-active-session state machine. At most one
// session occupies the current slot at any time; a session becomes
// immutable once ended. One mutex guards the slot, and no method calls out
// to another locked component while holding it.
type SessionService struct {
	logger  *zap.Logger
	storage repositories.SessionRepository

	mu      sync.Mutex
	current *entities.Session
}

// NewSessionService creates a service with an empty current slot.
func NewSessionService(storage repositories.SessionRepository, logger *zap.Logger) *SessionService {
	return &SessionService{
		logger:  logger,
		storage: storage,
	}
}

// Create allocates a new active session. Fails with ErrAlreadyActive while
// any non-ended session holds the slot.
func (s *SessionService) Create(title, purpose, context string) (entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return entities.Session{}, ErrAlreadyActive
	}

	session := &entities.Session{
		ID:          uuid.New().String(),
		Title:       title,
		Status:      entities.SessionStatusActive,
		StartTime:   time.Now().UTC(),
		Purpose:     purpose,
		Context:     context,
		Transcript:  make([]entities.TranscriptEntry, 0),
		Suggestions: make([]string, 0),
	}
	s.current = session

	s.logger.Info("Session created",
		zap.String("sessionID", session.ID),
		zap.String("title", title),
		zap.String("purpose", purpose))

	return session.Clone(), nil
}

// End marks the current session ended, hands a terminal snapshot to the
// persistence collaborator, and clears the slot. The slot is cleared only
// after the snapshot exists, so a new session can never be created before
// the old one has been captured for recording.
func (s *SessionService) End() (entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return entities.Session{}, ErrNoActiveSession
	}

	now := time.Now().UTC()
	s.current.Status = entities.SessionStatusEnded
	s.current.EndTime = &now

	finished := s.current.Clone()
	s.current = nil

	// Fire-and-forget persistence: save errors never affect the lifecycle.
	go func(session entities.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.storage.Save(ctx, &session); err != nil {
			s.logger.Error("Failed to persist ended session",
				zap.String("sessionID", session.ID),
				zap.Error(err))
		}
	}(finished)

	s.logger.Info("Session ended", zap.String("sessionID", finished.ID))
	return finished, nil
}

// AppendTranscript stamps the current time and appends one utterance.
func (s *SessionService) AppendTranscript(speaker, text string) (entities.TranscriptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return entities.TranscriptEntry{}, ErrNoActiveSession
	}

	entry := entities.TranscriptEntry{
		Timestamp: time.Now().UTC(),
		Speaker:   speaker,
		Text:      text,
	}
	s.current.Transcript = append(s.current.Transcript, entry)
	return entry, nil
}

// Snapshot returns a copy of the current session, or false when the slot
// is empty. Never blocks on anything but the slot mutex.
func (s *SessionService) Snapshot() (entities.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return entities.Session{}, false
	}
	return s.current.Clone(), true
}

// AttachSummary stores the generated summary on the current session.
// Summary generation can race with session end; a late summary is silently
// dropped rather than erroring.
func (s *SessionService) AttachSummary(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.logger.Debug("Dropping summary, no active session")
		return
	}
	s.current.Summary = text
}

// AttachSuggestion appends one suggestion to the current session, with the
// same tolerance for a raced session end as AttachSummary.
func (s *SessionService) AttachSuggestion(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.logger.Debug("Dropping suggestion, no active session")
		return
	}
	s.current.Suggestions = append(s.current.Suggestions, text)
}
