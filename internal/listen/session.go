// Package listen drives one keyword parser from a stream of recognition
// results.
//
// A [Session] is the long-lived owner of a [keyword.Parser] for one listener.
// It serialises every event onto the parser, fires the [Notifier] at the
// exact moment the third category locks, clears half-heard sessions after a
// period without new locks, and hands completed readings to an optional
// [Recorder]. [Session.Listen] additionally owns a speech stream from an
// [stt.Provider] and reopens it when it ends while the session is active.
package listen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/internal/reading"
	"github.com/MrWong99/starcue/pkg/provider/stt"
)

// DefaultPartialTimeout is how long partial slots survive without a new lock.
const DefaultPartialTimeout = 15 * time.Second

// Notifier receives the user-facing cues of a session. Implementations must
// return quickly; Match is called while the session holds its lock.
type Notifier interface {
	// Ready signals that the session started listening or was hard-reset.
	Ready(ctx context.Context)

	// Match signals completion. It is called exactly once per session, at the
	// token that locked the third category.
	Match(ctx context.Context, r reading.Reading)

	// Error signals that listening failed and cannot continue.
	Error(ctx context.Context, err error)
}

// Recorder persists completed readings. Record is called by [Session.Handle]
// after the session lock is released, so a slow store delays only that
// Handle call. Reset, Stop and the partial timeout still proceed while it
// runs.
type Recorder interface {
	Record(ctx context.Context, sessionID string, r reading.Reading) error
}

// Config holds the tunables of a Session.
type Config struct {
	// PartialTimeout clears partial slots after this long without a new lock.
	// Zero disables the timeout.
	PartialTimeout time.Duration

	// UseAlternatives feeds every hypothesis of an interim result through the
	// parser instead of only the top one.
	UseAlternatives bool

	// StopWords are extra filler words dropped before matching.
	StopWords []string

	// Source labels transcripts in metrics ("ws", "stt", "cli").
	Source string
}

// EventKind classifies what one transcript did to the session.
type EventKind int

const (
	// EventNone means nothing new locked.
	EventNone EventKind = iota

	// EventLocked means at least one category locked and the session is
	// still incomplete.
	EventLocked

	// EventCompleted means this transcript locked the third category.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventLocked:
		return "locked"
	case EventCompleted:
		return "completed"
	default:
		return "none"
	}
}

// Event is the outcome of [Session.Handle].
type Event struct {
	Kind EventKind

	// Locked lists the categories locked by this transcript, in lock order.
	Locked []keyword.MatchEvent

	// Slots is a snapshot of the lock record after the transcript.
	Slots keyword.Slots

	// Missing lists the categories still unlocked.
	Missing []keyword.Category

	// Message is the display form of Missing, "" when complete.
	Message string

	// Reading is set for EventCompleted.
	Reading *reading.Reading
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithNotifier sets the cue receiver.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithRecorder sets the store that completed readings are written to.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithTimeoutHook registers fn to be called, outside the session lock, after
// the partial timeout cleared the slots.
func WithTimeoutHook(fn func()) Option {
	return func(s *Session) { s.onTimeout = fn }
}

// WithRestartBackoff sets the initial and maximum wait between attempts to
// reopen a speech stream.
func WithRestartBackoff(initial, max time.Duration) Option {
	return func(s *Session) {
		s.backoff = initial
		s.maxBackoff = max
	}
}

// Session is one listening session. All methods are safe for concurrent use;
// transcripts are applied one at a time in the order Handle is called.
type Session struct {
	id         string
	cfg        Config
	notifier   Notifier
	recorder   Recorder
	metrics    *observe.Metrics
	onTimeout  func()
	backoff    time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	parser  *keyword.Parser
	active  bool
	hookCtx context.Context
	locks   []keyword.MatchEvent
	result  *reading.Reading
	pending *reading.Reading
	timer   *time.Timer
	gen     uint64
}

// New creates an inactive Session. Call [Session.Start] to begin listening.
func New(id string, cfg Config, opts ...Option) *Session {
	s := &Session{
		id:         id,
		cfg:        cfg,
		notifier:   nopNotifier{},
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.cfg.Source == "" {
		s.cfg.Source = "unknown"
	}
	s.parser = keyword.NewParser(
		keyword.WithStopWords(cfg.StopWords...),
		keyword.WithLockHook(s.onLock),
		keyword.WithCompletionHook(s.onComplete),
	)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Active reports whether the session is listening.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start activates the session with empty slots and signals Ready. Starting an
// active session is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.clearLocked()
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(ctx, 1)
	observe.Logger(ctx).Info("listen: session started", "session_id", s.id)
	s.notifier.Ready(ctx)
}

// Stop is the hard reset: it clears every slot, deactivates the session and
// signals Ready. Transcripts are ignored until the next Start. Stopping an
// inactive session is a no-op.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.clearLocked()
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(ctx, -1)
	observe.Logger(ctx).Info("listen: session stopped", "session_id", s.id)
	s.notifier.Ready(ctx)
}

// Reset clears the slots and any reading so a new reading can begin. The
// session stays active.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Snapshot returns the current lock record.
func (s *Session) Snapshot() keyword.Slots {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parser.Snapshot()
}

// Result returns the completed reading, or nil.
func (s *Session) Result() *reading.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Handle feeds one recognition result into the parser. Interim results are
// scanned hypothesis by hypothesis when UseAlternatives is set; final results
// are always scanned as one utterance. An inactive session ignores t.
//
// A reading completed by t is handed to the [Recorder] before Handle returns,
// outside the session lock.
func (s *Session) Handle(ctx context.Context, t stt.Transcript) Event {
	ctx, span := observe.StartSpan(ctx, "listen.handle", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.Bool("transcript.final", t.IsFinal),
	))
	defer span.End()

	ev, completed := s.handle(ctx, t)
	span.SetAttributes(attribute.String("listen.event", ev.Kind.String()))

	if completed != nil && s.recorder != nil {
		if err := s.recorder.Record(ctx, s.id, *completed); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record reading")
			observe.Logger(ctx).Error("listen: record reading", "session_id", s.id, "err", err)
		}
	}
	return ev
}

// handle applies t under the session lock. It returns the reading completed
// by t, if any, for the caller to record once the lock is released.
func (s *Session) handle(ctx context.Context, t stt.Transcript) (Event, *reading.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return Event{Kind: EventNone, Slots: s.parser.Snapshot()}, nil
	}
	s.metrics.RecordTranscript(ctx, s.cfg.Source, t.IsFinal)

	s.hookCtx = ctx
	s.locks = nil
	s.pending = nil
	wasComplete := s.parser.Complete()

	start := time.Now()
	if !t.IsFinal && s.cfg.UseAlternatives {
		s.parser.IngestAlternatives(t.Hypotheses())
	} else {
		s.parser.IngestUtterance(t.Text)
	}
	s.metrics.IngestDuration.Record(ctx, time.Since(start).Seconds())
	s.hookCtx = nil

	snap := s.parser.Snapshot()
	ev := Event{
		Locked:  s.locks,
		Slots:   snap,
		Missing: snap.Missing(),
		Message: s.parser.MissingMessage(),
	}
	switch {
	case !wasComplete && s.parser.Complete():
		ev.Kind = EventCompleted
		r := *s.result
		ev.Reading = &r
	case len(s.locks) > 0:
		ev.Kind = EventLocked
		s.armTimerLocked()
	default:
		ev.Kind = EventNone
	}

	completed := s.pending
	s.pending = nil
	return ev, completed
}

// onLock runs inside Handle with s.mu held.
func (s *Session) onLock(ev keyword.MatchEvent) {
	s.locks = append(s.locks, ev)
	ctx := s.ctx()
	s.metrics.RecordLock(ctx, ev.Category.String())
	observe.Logger(ctx).Debug("listen: slot locked",
		"session_id", s.id,
		"category", ev.Category.String(),
		"word", ev.Word,
		"heard", ev.Surface,
	)
}

// onComplete runs inside Handle with s.mu held, at the completing token. The
// reading is only queued for the recorder here.
func (s *Session) onComplete(r reading.Reading) {
	ctx := s.ctx()
	s.notifier.Match(ctx, r)

	s.result = &r
	s.stopTimerLocked()
	s.metrics.Completions.Add(ctx, 1)
	observe.Logger(ctx).Info("listen: reading complete",
		"session_id", s.id,
		"a", r.A.String(),
		"b", r.B.String(),
	)

	s.pending = &r
}

func (s *Session) ctx() context.Context {
	if s.hookCtx != nil {
		return s.hookCtx
	}
	return context.Background()
}

// clearLocked resets the parser and cancels the partial timer. Must be called
// with s.mu held.
func (s *Session) clearLocked() {
	s.parser.Reset()
	s.result = nil
	s.pending = nil
	s.locks = nil
	s.stopTimerLocked()
}

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()
	if s.cfg.PartialTimeout <= 0 {
		return
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.cfg.PartialTimeout, func() { s.expire(gen) })
}

func (s *Session) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expire clears a partial session whose timer generation is still current.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.active || s.parser.Complete() || !s.parser.Snapshot().Any() {
		s.mu.Unlock()
		return
	}
	trimester, red, economic := s.parser.Snapshot().Words()
	s.clearLocked()
	hook := s.onTimeout
	s.mu.Unlock()

	ctx := context.Background()
	s.metrics.PartialResets.Add(ctx, 1)
	slog.Info("listen: partial slots cleared after silence",
		"session_id", s.id,
		"timeout", s.cfg.PartialTimeout,
		"trimester", trimester,
		"red", red,
		"economic", economic,
	)
	if hook != nil {
		hook()
	}
}

type nopNotifier struct{}

func (nopNotifier) Ready(context.Context)                  {}
func (nopNotifier) Match(context.Context, reading.Reading) {}
func (nopNotifier) Error(context.Context, error)           {}
