// Package storage provides SessionRepository adapters.
package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/entities"
	"github.com/satriahrh/rapat/domain/repositories"
)

// Memory keeps ended sessions in process memory, newest last. It serves
// development and tests; a durable backend plugs in behind the same
// interface.
type Memory struct {
	logger *zap.Logger

	mu       sync.RWMutex
	sessions []*entities.Session
}

var _ repositories.SessionRepository = (*Memory)(nil)

func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{logger: logger}
}

// Save appends a deep copy so later mutation of the caller's value cannot
// reach the stored record.
func (m *Memory) Save(ctx context.Context, session *entities.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := session.Clone()
	m.sessions = append(m.sessions, &clone)
	m.logger.Debug("session archived",
		zap.String("session_id", session.ID),
		zap.Int("archived_total", len(m.sessions)))
	return nil
}

// All returns copies of every archived session in save order.
func (m *Memory) All() []*entities.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entities.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		clone := s.Clone()
		out = append(out, &clone)
	}
	return out
}
