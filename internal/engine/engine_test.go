package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/rapat/audio"
	"github.com/satriahrh/rapat/config"
	"github.com/satriahrh/rapat/domain"
	"github.com/satriahrh/rapat/domain/repositories"
	"github.com/satriahrh/rapat/internal/metrics"
	"github.com/satriahrh/rapat/usecase"
)

type fakeWindows struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (f *fakeWindows) set(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = titles
}

func (f *fakeWindows) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeWindows) ListWindows() ([]repositories.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	windows := make([]repositories.Window, 0, len(f.titles))
	for _, t := range f.titles {
		windows = append(windows, repositories.Window{Title: t})
	}
	return windows, nil
}

type fakeTranscriber struct {
	mu         sync.Mutex
	configured bool
	text       string
	err        error
	calls      int
}

func (f *fakeTranscriber) Configured() bool { return f.configured }

func (f *fakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLLM struct {
	mu         sync.Mutex
	configured bool
	reply      string
	err        error
	calls      int
	release    chan struct{}
}

func (f *fakeLLM) Configured() bool { return f.configured }

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeLLM) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) (string, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	if f.err != nil {
		return "", f.err
	}
	if onToken != nil && f.reply != "" {
		onToken(f.reply)
	}
	return f.reply, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLLM) setRelease(ch chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release = ch
}

type recordedEvent struct {
	name    string
	payload interface{}
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEmitter) Emit(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name: event, payload: payload})
}

func (f *fakeEmitter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.name)
	}
	return out
}

func (f *fakeEmitter) count(event string) int {
	n := 0
	for _, name := range f.names() {
		if name == event {
			n++
		}
	}
	return n
}

type testFixture struct {
	engine      *Engine
	sessions    *usecase.SessionService
	windows     *fakeWindows
	transcriber *fakeTranscriber
	llm         *fakeLLM
	emitter     *fakeEmitter
	micBuffer   *audio.Buffer
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	windows := &fakeWindows{}
	transcriber := &fakeTranscriber{configured: true, text: "hello"}
	llm := &fakeLLM{configured: true, reply: "ask about the budget"}
	emitter := &fakeEmitter{}
	micBuffer := audio.NewBuffer()
	sessions := usecase.NewSessionService(nil, logger)

	eng := New(Options{
		Logger:      logger,
		Config:      config.NewStore(config.Load()),
		Sessions:    sessions,
		MicBuffer:   micBuffer,
		Windows:     windows,
		Transcriber: transcriber,
		LLM:         llm,
		Emitter:     emitter,
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})

	return &testFixture{
		engine:      eng,
		sessions:    sessions,
		windows:     windows,
		transcriber: transcriber,
		llm:         llm,
		emitter:     emitter,
		micBuffer:   micBuffer,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRunLoopPicksUpIntervalUpdates(t *testing.T) {
	fx := newFixture(t)
	store := fx.engine.cfg

	cfg := store.Snapshot()
	cfg.DetectionInterval = 5 * time.Millisecond
	store.Update(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.engine.runLoop(ctx, "test",
			func() time.Duration { return store.Snapshot().DetectionInterval },
			func(context.Context) { ticks.Add(1) })
	}()

	waitFor(t, func() bool { return ticks.Load() >= 2 }, "loop never ticked")

	cfg = store.Snapshot()
	cfg.DetectionInterval = time.Hour
	store.Update(cfg)

	// The next tick applies the new interval, after which the loop goes
	// quiet.
	time.Sleep(50 * time.Millisecond)
	before := ticks.Load()
	time.Sleep(100 * time.Millisecond)
	if after := ticks.Load(); after > before+1 {
		t.Errorf("ticks kept firing after the interval grew: %d -> %d", before, after)
	}

	cancel()
	<-done
}

func TestDetectMeetingMatchesKeywords(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Meet - Weekly Standup", true},
		{"Zoom Meeting", true},
		{"zoom meeting in progress", true},
		{"Microsoft Teams | Planning", true},
		{"Webex session", true},
		{"GoToMeeting - Sync", true},
		{"Google Docs - notes", false},
		{"Meeting notes.txt - Editor", false},
		{"", false},
	}

	fx := newFixture(t)
	for _, tt := range tests {
		fx.windows.set(tt.title)
		_, found, err := fx.engine.DetectMeeting()
		if err != nil {
			t.Fatalf("DetectMeeting() error = %v", err)
		}
		if found != tt.want {
			t.Errorf("DetectMeeting(%q) found = %v, want %v", tt.title, found, tt.want)
		}
	}
}

func TestDetectMeetingFirstMatchWins(t *testing.T) {
	fx := newFixture(t)
	fx.windows.set("Editor", "Zoom Meeting", "Microsoft Teams")

	title, found, err := fx.engine.DetectMeeting()
	if err != nil {
		t.Fatalf("DetectMeeting() error = %v", err)
	}
	if !found || title != "Zoom Meeting" {
		t.Errorf("DetectMeeting() = %q, %v; want first match %q", title, found, "Zoom Meeting")
	}
}

func TestDetectTickAutoStartsSession(t *testing.T) {
	fx := newFixture(t)
	fx.windows.set("Meet - Quarterly Review")

	fx.engine.detectTick(context.Background())

	session, active := fx.sessions.Snapshot()
	if !active {
		t.Fatal("expected an active session after detection")
	}
	if session.Title != "Meet - Quarterly Review" {
		t.Errorf("session title = %q", session.Title)
	}
	if got := fx.emitter.count(domain.EventMeetingDetected); got != 1 {
		t.Errorf("meeting-detected events = %d, want 1", got)
	}
	if got := fx.emitter.count(domain.EventSessionAutoStarted); got != 1 {
		t.Errorf("session-auto-started events = %d, want 1", got)
	}

	// A second tick with the same window must not start another session
	// or re-announce the same title.
	fx.engine.detectTick(context.Background())
	if got := fx.emitter.count(domain.EventSessionAutoStarted); got != 1 {
		t.Errorf("session-auto-started events after repeat tick = %d, want 1", got)
	}
	if got := fx.emitter.count(domain.EventMeetingDetected); got != 1 {
		t.Errorf("meeting-detected events after repeat tick = %d, want 1", got)
	}
}

func TestDetectTickAnnouncesClearedTitleWithoutEndingSession(t *testing.T) {
	fx := newFixture(t)
	fx.windows.set("Zoom Meeting")
	fx.engine.detectTick(context.Background())

	fx.windows.set("Editor")
	fx.engine.detectTick(context.Background())

	if got := fx.emitter.count(domain.EventMeetingDetected); got != 2 {
		t.Errorf("meeting-detected events = %d, want 2 (set then cleared)", got)
	}
	if _, active := fx.sessions.Snapshot(); !active {
		t.Error("session ended by detection loop; it must persist until ended explicitly")
	}
}

func TestDetectTickEnumerationFailureClearsTitle(t *testing.T) {
	fx := newFixture(t)
	fx.windows.set("Zoom Meeting")
	fx.engine.detectTick(context.Background())

	fx.windows.setErr(errors.New("display server unavailable"))
	fx.engine.detectTick(context.Background())

	if got := fx.emitter.count(domain.EventMeetingDetected); got != 2 {
		t.Errorf("meeting-detected events = %d, want 2 (set then cleared on failure)", got)
	}
	if _, active := fx.sessions.Snapshot(); !active {
		t.Error("session ended on enumeration failure; it must persist until ended explicitly")
	}

	// Once enumeration recovers, the same window is a fresh detection.
	fx.windows.setErr(nil)
	fx.engine.detectTick(context.Background())
	if got := fx.emitter.count(domain.EventMeetingDetected); got != 3 {
		t.Errorf("meeting-detected events = %d, want 3 after recovery", got)
	}
}

func TestTranscribeTickSkipsWithoutSession(t *testing.T) {
	fx := newFixture(t)
	fx.micBuffer.Append([]float32{0.1, 0.2})

	fx.engine.transcribeTick(context.Background())

	if got := fx.transcriber.callCount(); got != 0 {
		t.Errorf("transcriber calls = %d, want 0 without a session", got)
	}
	if fx.micBuffer.Len() != 2 {
		t.Errorf("buffer drained without a session: len = %d, want 2", fx.micBuffer.Len())
	}
}

func TestTranscribeTickEmptyBufferIsBenign(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "meeting", ""); err != nil {
		t.Fatal(err)
	}

	fx.engine.transcribeTick(context.Background())

	if got := fx.transcriber.callCount(); got != 0 {
		t.Errorf("transcriber calls = %d, want 0 on empty buffer", got)
	}
}

func TestTranscribeTickAppendsTranscriptAndEmits(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "meeting", ""); err != nil {
		t.Fatal(err)
	}
	fx.transcriber.text = "  let's review the roadmap  "
	fx.micBuffer.Append([]float32{0.1, 0.2, 0.3})

	fx.engine.transcribeTick(context.Background())

	waitFor(t, func() bool {
		session, _ := fx.sessions.Snapshot()
		return len(session.Transcript) == 1
	}, "transcript entry never appeared")

	session, _ := fx.sessions.Snapshot()
	entry := session.Transcript[0]
	if entry.Speaker != "You" {
		t.Errorf("speaker = %q, want You", entry.Speaker)
	}
	if entry.Text != "let's review the roadmap" {
		t.Errorf("text = %q, want trimmed transcription", entry.Text)
	}
	if fx.micBuffer.Len() != 0 {
		t.Errorf("buffer not drained: len = %d", fx.micBuffer.Len())
	}
	waitFor(t, func() bool {
		return fx.emitter.count(domain.EventTranscriptionChunk) == 1
	}, "transcription-chunk event never emitted")
}

func TestTranscribeTickDrainsEvenWhenUnconfigured(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "meeting", ""); err != nil {
		t.Fatal(err)
	}
	fx.transcriber.configured = false
	fx.micBuffer.Append([]float32{0.5})

	fx.engine.transcribeTick(context.Background())

	if fx.micBuffer.Len() != 0 {
		t.Errorf("buffer len = %d, want 0 so it cannot grow unbounded", fx.micBuffer.Len())
	}
	if got := fx.transcriber.callCount(); got != 0 {
		t.Errorf("transcriber calls = %d, want 0", got)
	}
}

func TestSuggestTickWatermarkAndSingleFlight(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "meeting", "budget planning"); err != nil {
		t.Fatal(err)
	}

	// No transcript yet: nothing to suggest on.
	fx.engine.suggestTick(context.Background())
	if got := fx.llm.callCount(); got != 0 {
		t.Fatalf("llm calls = %d, want 0 before any transcript", got)
	}

	release := make(chan struct{})
	fx.llm.setRelease(release)
	if _, err := fx.sessions.AppendTranscript("You", "what about the budget"); err != nil {
		t.Fatal(err)
	}

	fx.engine.suggestTick(context.Background())
	waitFor(t, func() bool { return fx.llm.callCount() == 1 }, "first suggestion request never dispatched")

	// More transcript while the first request is held open: the in-flight
	// guard must prevent a second dispatch.
	if _, err := fx.sessions.AppendTranscript("You", "and the timeline"); err != nil {
		t.Fatal(err)
	}
	fx.engine.suggestTick(context.Background())
	if got := fx.llm.callCount(); got != 1 {
		t.Errorf("llm calls = %d, want 1 while a request is in flight", got)
	}

	close(release)
	waitFor(t, func() bool {
		session, _ := fx.sessions.Snapshot()
		return len(session.Suggestions) == 1
	}, "suggestion never attached")

	// The skipped entries are still beyond the watermark, so the next tick
	// picks them up.
	fx.llm.setRelease(nil)
	fx.engine.suggestTick(context.Background())
	waitFor(t, func() bool { return fx.llm.callCount() == 2 }, "retry after in-flight skip never dispatched")

	// No growth since the last dispatch: no request.
	waitFor(t, func() bool {
		session, _ := fx.sessions.Snapshot()
		return len(session.Suggestions) == 2
	}, "second suggestion never attached")
	fx.engine.suggestTick(context.Background())
	time.Sleep(20 * time.Millisecond)
	if got := fx.llm.callCount(); got != 2 {
		t.Errorf("llm calls = %d, want 2 with no transcript growth", got)
	}
}

func TestSuggestTickStreamsTokenEvents(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "meeting", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.sessions.AppendTranscript("You", "hello"); err != nil {
		t.Fatal(err)
	}

	fx.engine.suggestTick(context.Background())

	waitFor(t, func() bool {
		return fx.emitter.count(domain.EventStreamEnd) == 1
	}, "llm-stream-end never emitted")

	names := fx.emitter.names()
	var ordered []string
	for _, name := range names {
		switch name {
		case domain.EventStreamStart, domain.EventToken, domain.EventStreamEnd:
			ordered = append(ordered, name)
		}
	}
	want := []string{domain.EventStreamStart, domain.EventToken, domain.EventStreamEnd}
	if strings.Join(ordered, ",") != strings.Join(want, ",") {
		t.Errorf("stream events = %v, want %v", ordered, want)
	}
}

func TestSuggestTickSentinelDiscarded(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "meeting", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.sessions.AppendTranscript("You", "hello"); err != nil {
		t.Fatal(err)
	}
	fx.llm.reply = "NO_SUGGESTION"

	fx.engine.suggestTick(context.Background())

	waitFor(t, func() bool {
		return fx.emitter.count(domain.EventStreamEnd) == 1
	}, "request never finished")

	session, _ := fx.sessions.Snapshot()
	if len(session.Suggestions) != 0 {
		t.Errorf("suggestions = %v, want none for the sentinel reply", session.Suggestions)
	}
}

func TestBuildSuggestionPromptWindowsTranscript(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sessions.Create("m", "sprint planning", "team of five"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if _, err := fx.sessions.AppendTranscript("You", fmt.Sprintf("entry %02d", i)); err != nil {
			t.Fatal(err)
		}
	}

	session, _ := fx.sessions.Snapshot()
	prompt := buildSuggestionPrompt(&session)

	if !strings.Contains(prompt, "sprint planning") {
		t.Error("prompt missing the meeting purpose")
	}
	if !strings.Contains(prompt, "team of five") {
		t.Error("prompt missing the session context")
	}
	if strings.Contains(prompt, "entry 04") {
		t.Error("prompt contains entry 04, which is outside the 15-entry window")
	}
	if !strings.Contains(prompt, "entry 05") || !strings.Contains(prompt, "entry 19") {
		t.Error("prompt missing entries inside the 15-entry window")
	}
}

func TestGenerateSummary(t *testing.T) {
	fx := newFixture(t)

	if _, err := fx.engine.GenerateSummary(context.Background()); err == nil {
		t.Error("GenerateSummary() expected error without a session")
	}

	if _, err := fx.sessions.Create("m", "meeting", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.engine.GenerateSummary(context.Background()); err == nil {
		t.Error("GenerateSummary() expected error with an empty transcript")
	}

	if _, err := fx.sessions.AppendTranscript("You", "we agreed to ship Friday"); err != nil {
		t.Fatal(err)
	}
	fx.llm.reply = "Key points: ship Friday."

	summary, err := fx.engine.GenerateSummary(context.Background())
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if summary != "Key points: ship Friday." {
		t.Errorf("summary = %q", summary)
	}

	session, _ := fx.sessions.Snapshot()
	if session.Summary != "Key points: ship Friday." {
		t.Errorf("session summary = %q, want it attached", session.Summary)
	}
}
