package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/capture"
	"github.com/satriahrh/rapat/domain"
)

// meetingKeywords are matched case-insensitively against window titles.
// First window with a matching keyword wins.
var meetingKeywords = []string{
	"meet -",
	"zoom meeting",
	"microsoft teams",
	"webex",
	"gotomeeting",
}

// DetectMeeting scans the visible windows for a meeting title and returns
// the first match.
func (e *Engine) DetectMeeting() (string, bool, error) {
	windows, err := e.windows.ListWindows()
	if err != nil {
		return "", false, err
	}
	for _, window := range windows {
		lower := strings.ToLower(window.Title)
		for _, keyword := range meetingKeywords {
			if strings.Contains(lower, keyword) {
				return window.Title, true, nil
			}
		}
	}
	return "", false, nil
}

func (e *Engine) detectTick(ctx context.Context) {
	e.metrics.DetectionTicks.Inc()

	title, found, err := e.DetectMeeting()
	if err != nil {
		// Enumeration failure reads as an empty window list: the title
		// transition below still fires so a stale detection is cleared.
		e.logger.Warn("window enumeration failed", zap.Error(err))
		title, found = "", false
	}

	if title != e.lastTitle {
		e.lastTitle = title
		var payload interface{}
		if found {
			payload = map[string]interface{}{"title": title}
			e.metrics.MeetingsDetected.Inc()
		} else {
			payload = map[string]interface{}{"title": nil}
		}
		e.emit(domain.EventMeetingDetected, payload)
	}

	if !found {
		// A vanished meeting window never ends the session; the operator
		// ends it explicitly.
		return
	}

	if _, active := e.sessions.Snapshot(); active {
		return
	}

	session, err := e.sessions.Create(title, "meeting", "")
	if err != nil {
		e.logger.Warn("auto-start failed", zap.Error(err))
		return
	}
	e.metrics.SessionsStarted.Inc()
	e.logger.Info("meeting detected, session auto-started",
		zap.String("session_id", session.ID),
		zap.String("title", title))
	e.emit(domain.EventSessionAutoStarted, session)

	e.startCaptures()
}

// startCaptures starts both capture paths best-effort. An already-running
// capture is fine; other failures are logged and the session proceeds
// with whatever audio is available.
func (e *Engine) startCaptures() {
	if e.system != nil {
		if err := e.system.Start(); err != nil && !errors.Is(err, capture.ErrAlreadyCapturing) {
			e.logger.Warn("system audio capture unavailable", zap.Error(err))
		}
	}
	if e.microphone != nil {
		if err := e.microphone.Start(); err != nil && !errors.Is(err, capture.ErrAlreadyCapturing) {
			e.logger.Warn("microphone capture unavailable", zap.Error(err))
		}
	}
}
