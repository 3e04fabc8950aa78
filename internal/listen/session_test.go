package listen

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/internal/reading"
	"github.com/MrWong99/starcue/pkg/provider/stt"
)

type fakeNotifier struct {
	mu      sync.Mutex
	ready   int
	matches []reading.Reading
	errs    []error
	matched chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{matched: make(chan struct{}, 8)}
}

func (n *fakeNotifier) Ready(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready++
}

func (n *fakeNotifier) Match(_ context.Context, r reading.Reading) {
	n.mu.Lock()
	n.matches = append(n.matches, r)
	n.mu.Unlock()
	n.matched <- struct{}{}
}

func (n *fakeNotifier) Error(_ context.Context, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *fakeNotifier) counts() (ready, matches, errs int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready, len(n.matches), len(n.errs)
}

type fakeRecorder struct {
	mu       sync.Mutex
	err      error
	sessions []string
	readings []reading.Reading
}

func (r *fakeRecorder) Record(_ context.Context, sessionID string, rd reading.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionID)
	r.readings = append(r.readings, rd)
	return r.err
}

func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func newStarted(t *testing.T, cfg Config, opts ...Option) (*Session, *fakeNotifier) {
	t.Helper()
	m, _ := newTestMetrics(t)
	n := newFakeNotifier()
	opts = append([]Option{WithNotifier(n), WithMetrics(m)}, opts...)
	s := New("sess-1", cfg, opts...)
	s.Start(context.Background())
	return s, n
}

func final(text string) stt.Transcript   { return stt.Transcript{Text: text, IsFinal: true} }
func partial(text string) stt.Transcript { return stt.Transcript{Text: text} }

func TestSession_CompletesOnExampleSentence(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	s, n := newStarted(t, Config{}, WithRecorder(rec))

	ev := s.Handle(context.Background(), final("my health and my love for this career"))
	if ev.Kind != EventCompleted {
		t.Fatalf("Kind = %s, want completed", ev.Kind)
	}
	if ev.Reading == nil {
		t.Fatal("Reading is nil")
	}
	if got := ev.Reading.A.Date(); got != "JAN 16" {
		t.Errorf("A = %s, want JAN 16", got)
	}
	if got := ev.Reading.B.Date(); got != "JAN 15" {
		t.Errorf("B = %s, want JAN 15", got)
	}
	if len(ev.Locked) != 3 {
		t.Errorf("Locked = %d events, want 3", len(ev.Locked))
	}
	if ev.Message != "" || len(ev.Missing) != 0 {
		t.Errorf("Missing = %v %q, want none", ev.Missing, ev.Message)
	}

	if _, matches, _ := n.counts(); matches != 1 {
		t.Errorf("Match fired %d times, want 1", matches)
	}
	if len(rec.sessions) != 1 || rec.sessions[0] != "sess-1" {
		t.Errorf("recorded sessions = %v, want [sess-1]", rec.sessions)
	}
	if got := s.Result(); got == nil || *got != *ev.Reading {
		t.Errorf("Result() = %+v, want %+v", got, ev.Reading)
	}
}

func TestSession_StreamingPartials(t *testing.T) {
	t.Parallel()

	s, n := newStarted(t, Config{})
	ctx := context.Background()

	ev := s.Handle(ctx, partial("my health"))
	if ev.Kind != EventLocked || len(ev.Locked) != 1 || ev.Locked[0].Word != "health" {
		t.Fatalf("first event = %+v, want health locked", ev)
	}
	if !reflect.DeepEqual(ev.Missing, []keyword.Category{keyword.Red, keyword.Economic}) {
		t.Errorf("Missing = %v", ev.Missing)
	}
	want := "Missing: Red (Love/Romance/Partnership/Relationships), Economic (Job/Work/Money/Career/Finance/Success/Profession/Occupation)"
	if ev.Message != want {
		t.Errorf("Message = %q\nwant %q", ev.Message, want)
	}

	ev = s.Handle(ctx, partial("my health and my love"))
	if ev.Kind != EventLocked || len(ev.Locked) != 1 || ev.Locked[0].Word != "love" {
		t.Fatalf("second event = %+v, want love locked", ev)
	}

	if ev = s.Handle(ctx, partial("my health and my love")); ev.Kind != EventNone {
		t.Errorf("repeated partial Kind = %s, want none", ev.Kind)
	}

	if ev = s.Handle(ctx, final("my health and my love for my job")); ev.Kind != EventCompleted {
		t.Fatalf("final Kind = %s, want completed", ev.Kind)
	}
	if ev = s.Handle(ctx, final("personality romance money")); ev.Kind != EventNone {
		t.Errorf("post-completion Kind = %s, want none", ev.Kind)
	}
	if _, matches, _ := n.counts(); matches != 1 {
		t.Errorf("Match fired %d times, want 1", matches)
	}
}

func TestSession_Alternatives(t *testing.T) {
	t.Parallel()

	tr := stt.Transcript{
		Text: "hell though",
		Alternatives: []stt.Alternative{
			{Text: "hell though", Confidence: 0.8},
			{Text: "helth", Confidence: 0.2},
		},
	}

	on, _ := newStarted(t, Config{UseAlternatives: true})
	if ev := on.Handle(context.Background(), tr); ev.Kind != EventLocked {
		t.Errorf("with alternatives Kind = %s, want locked", ev.Kind)
	}

	off, _ := newStarted(t, Config{UseAlternatives: false})
	if ev := off.Handle(context.Background(), tr); ev.Kind != EventNone {
		t.Errorf("without alternatives Kind = %s, want none", ev.Kind)
	}

	// Finals are scanned as one utterance even with alternatives enabled.
	tr.IsFinal = true
	fin, _ := newStarted(t, Config{UseAlternatives: true})
	if ev := fin.Handle(context.Background(), tr); ev.Kind != EventNone {
		t.Errorf("final Kind = %s, want none", ev.Kind)
	}
}

func TestSession_AlternativesWithoutHypotheses(t *testing.T) {
	t.Parallel()

	s, _ := newStarted(t, Config{UseAlternatives: true})
	ev := s.Handle(context.Background(), partial("my love"))
	if ev.Kind != EventLocked || len(ev.Locked) != 1 || ev.Locked[0].Word != "love" {
		t.Errorf("Handle = %+v, want love locked from the top text", ev)
	}
	if ev := s.Handle(context.Background(), partial("")); ev.Kind != EventNone {
		t.Errorf("empty interim Kind = %s, want none", ev.Kind)
	}
}

func TestSession_InactiveIgnoresInput(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	n := newFakeNotifier()
	s := New("idle", Config{}, WithNotifier(n), WithMetrics(m))

	if ev := s.Handle(context.Background(), final("health love career")); ev.Kind != EventNone {
		t.Errorf("Kind = %s, want none before Start", ev.Kind)
	}
	if s.Snapshot().Any() {
		t.Error("inactive session locked a slot")
	}
	if ready, _, _ := n.counts(); ready != 0 {
		t.Errorf("Ready fired %d times before Start", ready)
	}
}

func TestSession_ResetAndStop(t *testing.T) {
	t.Parallel()

	s, n := newStarted(t, Config{})
	ctx := context.Background()

	s.Handle(ctx, final("health love career"))
	s.Reset()
	if s.Result() != nil || s.Snapshot().Any() {
		t.Fatal("Reset left state behind")
	}
	if !s.Active() {
		t.Fatal("Reset deactivated the session")
	}

	if ev := s.Handle(ctx, final("character romance money")); ev.Kind != EventCompleted {
		t.Fatalf("Kind after Reset = %s, want completed", ev.Kind)
	}

	s.Stop(ctx)
	s.Stop(ctx)
	if s.Active() || s.Snapshot().Any() {
		t.Fatal("Stop left the session active or populated")
	}
	if ev := s.Handle(ctx, final("health")); ev.Kind != EventNone {
		t.Errorf("Kind after Stop = %s, want none", ev.Kind)
	}

	s.Start(ctx)
	s.Start(ctx)
	if ev := s.Handle(ctx, final("health")); ev.Kind != EventLocked {
		t.Errorf("Kind after restart = %s, want locked", ev.Kind)
	}

	ready, matches, _ := n.counts()
	if ready != 3 {
		t.Errorf("Ready fired %d times, want 3 (start, stop, start)", ready)
	}
	if matches != 2 {
		t.Errorf("Match fired %d times, want 2", matches)
	}
}

func TestSession_PartialTimeoutClearsSlots(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	cleared := make(chan struct{}, 1)
	s := New("t", Config{PartialTimeout: 20 * time.Millisecond},
		WithMetrics(m),
		WithTimeoutHook(func() { cleared <- struct{}{} }),
	)
	s.Start(context.Background())
	s.Handle(context.Background(), partial("love"))

	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("partial timeout never fired")
	}
	if s.Snapshot().Any() {
		t.Error("slots survived the timeout")
	}
	if got := counterValue(t, reader, "starcue.partial.resets"); got != 1 {
		t.Errorf("partial resets = %d, want 1", got)
	}
}

func TestSession_NewLockRearmsTimeout(t *testing.T) {
	t.Parallel()

	cleared := make(chan struct{}, 1)
	s, _ := newStarted(t, Config{PartialTimeout: 200 * time.Millisecond},
		WithTimeoutHook(func() { cleared <- struct{}{} }))
	ctx := context.Background()

	s.Handle(ctx, partial("love"))
	time.Sleep(120 * time.Millisecond)
	s.Handle(ctx, partial("health"))
	time.Sleep(120 * time.Millisecond)

	select {
	case <-cleared:
		t.Fatal("timeout fired although a new lock re-armed it")
	default:
	}
	tw, rw, _ := s.Snapshot().Words()
	if tw != "health" || rw != "love" {
		t.Errorf("slots = %q/%q, want health/love", tw, rw)
	}

	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("re-armed timeout never fired")
	}
}

func TestSession_CompletionCancelsTimeout(t *testing.T) {
	t.Parallel()

	cleared := make(chan struct{}, 1)
	s, _ := newStarted(t, Config{PartialTimeout: 50 * time.Millisecond},
		WithTimeoutHook(func() { cleared <- struct{}{} }))
	ctx := context.Background()

	s.Handle(ctx, partial("love"))
	s.Handle(ctx, final("love health career"))
	time.Sleep(150 * time.Millisecond)

	select {
	case <-cleared:
		t.Fatal("timeout cleared a completed session")
	default:
	}
	if s.Result() == nil {
		t.Error("completed reading was cleared")
	}
}

func TestSession_RecorderErrorDoesNotBreakSession(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{err: errors.New("db down")}
	s, n := newStarted(t, Config{}, WithRecorder(rec))

	if ev := s.Handle(context.Background(), final("health love career")); ev.Kind != EventCompleted {
		t.Fatalf("Kind = %s, want completed", ev.Kind)
	}
	if _, matches, errs := n.counts(); matches != 1 || errs != 0 {
		t.Errorf("matches/errors = %d/%d, want 1/0", matches, errs)
	}
}

func TestSession_MetricsRecorded(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	s := New("m", Config{Source: "ws"}, WithMetrics(m))
	ctx := context.Background()
	s.Start(ctx)

	s.Handle(ctx, partial("health"))
	s.Handle(ctx, final("health love career"))

	checks := []struct {
		name string
		want int64
	}{
		{"starcue.transcripts", 2},
		{"starcue.slot.locks", 3},
		{"starcue.completions", 1},
		{"starcue.active_sessions", 1},
	}
	for _, c := range checks {
		if got := counterValue(t, reader, c.name); got != c.want {
			t.Errorf("%s = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestEventKind_String(t *testing.T) {
	t.Parallel()

	for k, want := range map[EventKind]string{EventNone: "none", EventLocked: "locked", EventCompleted: "completed"} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
