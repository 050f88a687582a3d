package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/satriahrh/rapat/usecase"
)

const summarySystemPrompt = "Generate a concise meeting summary with: " +
	"1) Key Points 2) Action Items 3) Decisions Made"

// GenerateSummary summarizes the current session's transcript, attaches the
// result to the session, and returns it. Unlike the periodic loops this is
// an on-demand operation driven by the API.
func (e *Engine) GenerateSummary(ctx context.Context) (string, error) {
	session, active := e.sessions.Snapshot()
	if !active {
		return "", usecase.ErrNoActiveSession
	}
	if len(session.Transcript) == 0 {
		return "", fmt.Errorf("no transcript to summarize")
	}
	if !e.llm.Configured() {
		return "", fmt.Errorf("language model not configured")
	}

	var lines []string
	for _, entry := range session.Transcript {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			entry.Timestamp.Format("15:04:05"), entry.Speaker, entry.Text))
	}

	question := fmt.Sprintf(
		"Summarize the following meeting transcript into key points, action items, and decisions:\n\n%s",
		strings.Join(lines, "\n"))

	summary, err := e.llm.Complete(ctx, summarySystemPrompt, question)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}

	summary = strings.TrimSpace(summary)
	e.sessions.AttachSummary(summary)
	return summary, nil
}
