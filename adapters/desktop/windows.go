// Package desktop provides window enumeration adapters used by meeting
// detection.
package desktop

import (
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

// StaticWindows is a WindowLister whose titles are set programmatically.
// It backs development builds and tests; a platform-native lister plugs in
// behind the same interface.
type StaticWindows struct {
	logger *zap.Logger

	mu     sync.RWMutex
	titles []string
}

var _ repositories.WindowLister = (*StaticWindows)(nil)

func NewStaticWindows(logger *zap.Logger) *StaticWindows {
	return &StaticWindows{logger: logger}
}

// SetTitles replaces the visible window titles.
func (s *StaticWindows) SetTitles(titles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append([]string(nil), titles...)
}

// ListWindows returns the current titles as windows.
func (s *StaticWindows) ListWindows() ([]repositories.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows := make([]repositories.Window, 0, len(s.titles))
	for _, title := range s.titles {
		windows = append(windows, repositories.Window{Title: title})
	}
	return windows, nil
}
