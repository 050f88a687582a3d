package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain"
	"github.com/satriahrh/rapat/domain/entities"
)

const (
	suggestTimeout = 60 * time.Second

	// suggestionWindow is how many trailing transcript entries feed the
	// prompt.
	suggestionWindow = 15

	// noSuggestion is the sentinel the model answers when it has nothing
	// worth interrupting the user for.
	noSuggestion = "NO_SUGGESTION"
)

const suggestionQuestion = "Based on the conversation so far, what is the single best next talking point " +
	"or question for me to raise? Answer with just the suggestion. " +
	"If nothing useful comes to mind, answer exactly " + noSuggestion + "."

func (e *Engine) suggestTick(ctx context.Context) {
	session, active := e.sessions.Snapshot()
	if !active {
		return
	}

	// Watermark: only new transcript growth triggers a request.
	if len(session.Transcript) <= e.lastProcessed {
		return
	}

	if !e.llm.Configured() {
		return
	}

	// At most one request in flight; the watermark does not advance on a
	// skipped tick, so the new entries are retried next round.
	if !e.suggesting.CompareAndSwap(false, true) {
		return
	}
	e.lastProcessed = len(session.Transcript)

	systemPrompt := buildSuggestionPrompt(&session)
	e.metrics.SuggestionRequests.Inc()
	go e.requestSuggestion(systemPrompt)
}

// requestSuggestion streams one suggestion from the model, forwarding
// fragments as token events.
func (e *Engine) requestSuggestion(systemPrompt string) {
	defer e.suggesting.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
	defer cancel()

	e.emit(domain.EventStreamStart, nil)
	reply, err := e.llm.Stream(ctx, systemPrompt, suggestionQuestion, func(token string) {
		e.metrics.TokensStreamed.Inc()
		e.emit(domain.EventToken, map[string]interface{}{"token": token})
	})
	reply = strings.TrimSpace(reply)
	e.emit(domain.EventStreamEnd, map[string]interface{}{"text": reply})

	if err != nil {
		e.metrics.SuggestionFailures.Inc()
		e.logger.Warn("suggestion request failed", zap.Error(err))
		return
	}

	if reply == "" || strings.EqualFold(reply, noSuggestion) {
		return
	}

	e.sessions.AttachSuggestion(reply)
	e.metrics.SuggestionsProduced.Inc()
}

// buildSuggestionPrompt frames the assistant with the session's purpose,
// its free-form context, and the trailing transcript window.
func buildSuggestionPrompt(session *entities.Session) string {
	var b strings.Builder
	b.WriteString("You are a real-time AI assistant helping the user during a live meeting. ")
	b.WriteString("Provide concise, actionable suggestions. Be direct and helpful.\n\n")

	if session.Purpose != "" {
		fmt.Fprintf(&b, "## Meeting Purpose\n%s\n\n", session.Purpose)
	}
	if session.Context != "" {
		fmt.Fprintf(&b, "## Background\n%s\n\n", session.Context)
	}

	b.WriteString("## Recent Transcript\n")
	for _, entry := range session.TranscriptTail(suggestionWindow) {
		fmt.Fprintf(&b, "%s: %s\n", entry.Speaker, entry.Text)
	}
	return b.String()
}
