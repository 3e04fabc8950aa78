// Package keyword implements the streaming slot-locking parser at the heart
// of starcue.
//
// Recognised speech arrives piecemeal: interim hypotheses that grow, repeat
// and get revised, followed by finals. The [Parser] scans each piece token by
// token, resolves misheard variants through curated alias tables and locks
// the first word heard for each of the three categories (TRIMESTER, RED,
// ECONOMIC). Later words for a locked category are ignored for the rest of
// the session.
//
// Completion is detected at the exact token that fills the third slot. At
// that instant the parser computes the reading, fires the completion hook and
// stops processing input until [Parser.Reset]. Completion therefore happens
// at most once per session.
//
// Nothing in this package returns an error for any text input: "nothing
// heard" and "some categories heard" are reported as [Empty] and [Partial]
// results.
package keyword

import (
	"log/slog"
	"strings"

	"github.com/MrWong99/starcue/internal/reading"
	"github.com/MrWong99/starcue/pkg/types"
)

// Option is a functional option for configuring a [Parser].
type Option func(*Parser)

// WithStopWords adds filler words on top of [StopWords].
func WithStopWords(words ...string) Option {
	return func(p *Parser) {
		p.extraStop = append(p.extraStop, words...)
	}
}

// WithLockHook registers fn to be called synchronously each time a category
// locks, before any completion hook.
func WithLockHook(fn func(MatchEvent)) Option {
	return func(p *Parser) {
		p.onLock = fn
	}
}

// WithCompletionHook registers fn to be called synchronously, exactly once per
// session, at the token that completes the third slot.
func WithCompletionHook(fn func(reading.Reading)) Option {
	return func(p *Parser) {
		p.onComplete = fn
	}
}

// Parser is the per-session slot-locking scanner.
//
// A Parser is not safe for concurrent use. The caller must deliver events one
// at a time, in arrival order, from a single goroutine (or otherwise
// serialise calls). None of its methods block.
type Parser struct {
	norm      *Normalizer
	extraStop []string

	slots Slots
	done  bool
	final Success

	onLock     func(MatchEvent)
	onComplete func(reading.Reading)
}

// NewParser returns an empty Parser configured with opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, o := range opts {
		o(p)
	}
	p.norm = NewNormalizer(p.extraStop...)
	return p
}

// Reset clears every slot and the completion latch so a new, independent
// session can begin. It is safe to call at any point between events.
func (p *Parser) Reset() {
	p.slots = Slots{}
	p.done = false
	p.final = Success{}
}

// Complete reports whether the session has completed.
func (p *Parser) Complete() bool {
	return p.done
}

// IngestUtterance scans a whole transcript and returns the session's result
// after the scan. Once complete, further calls return the same [Success]
// without looking at text.
func (p *Parser) IngestUtterance(text string) ParseResult {
	if !p.done {
		p.scan(text)
	}
	return p.Result()
}

// IngestAlternatives scans every hypothesis of one recognition result in the
// order given, token by token, feeding each match through the slot lock.
// Confidence is ignored: the first match found wins regardless of how the
// recogniser ranked its hypothesis. It returns that first match, or nil if no
// hypothesis contained a category word. Scanning stops at the completing
// token, and nothing is scanned once the session is complete.
func (p *Parser) IngestAlternatives(alts []types.Alternative) *MatchEvent {
	var first *MatchEvent
	for _, alt := range alts {
		if p.done {
			break
		}
		if ev := p.scan(alt.Text); ev != nil && first == nil {
			first = ev
		}
	}
	return first
}

// Result returns the current session result without scanning anything.
func (p *Parser) Result() ParseResult {
	switch {
	case p.done:
		return p.final
	case p.slots.Any():
		return Partial{Missing: p.slots.Missing(), Heard: p.slots.Clone()}
	default:
		return Empty{}
	}
}

// Snapshot returns a copy of the slot record.
func (p *Parser) Snapshot() Slots {
	return p.slots.Clone()
}

// Missing returns the unlocked categories with their example words.
func (p *Parser) Missing() []MissingCategory {
	return Describe(p.slots.Missing())
}

// MissingMessage renders the unlocked categories for display, or "" when the
// session is complete.
func (p *Parser) MissingMessage() string {
	return MissingMessage(p.slots.Missing())
}

// scan walks text token by token and returns the first token that matched a
// category, whether or not it locked a slot.
func (p *Parser) scan(text string) *MatchEvent {
	lowered := p.norm.Lower(text)
	var first *MatchEvent
	for _, tok := range p.norm.tokens(lowered) {
		ev, ok := Match(tok.Text)
		if !ok {
			continue
		}
		ev.Position = tok.Offset
		if first == nil {
			cp := ev
			first = &cp
		}

		locked, justCompleted := p.slots.Lock(ev)
		if locked && p.onLock != nil {
			p.onLock(ev)
		}
		if justCompleted {
			p.complete()
			break
		}
	}
	return first
}

// complete computes the reading from the locked words and latches the session.
func (p *Parser) complete() {
	r, err := Recompute(p.slots)
	if err != nil {
		// Unreachable while Lock reports completion correctly.
		slog.Error("keyword: completed slots failed to compute", "err", err)
		return
	}
	p.done = true
	p.final = Success{Reading: r, Slots: p.slots.Clone()}
	if p.onComplete != nil {
		p.onComplete(r)
	}
}

// Recompute derives the reading from locked canonical words alone. The words
// are replayed through a fresh scan in the fixed order trimester, economic,
// red, so the result does not depend on how the words were originally
// phrased and the red-last day offset always applies.
func Recompute(s Slots) (reading.Reading, error) {
	if !s.Complete() {
		return reading.Reading{}, reading.ErrIncomplete
	}
	canonical := strings.Join([]string{s.Trimester.Word, s.Economic.Word, s.Red.Word}, " ")

	var replay Slots
	for _, tok := range NewNormalizer().Tokens(canonical) {
		if ev, ok := Match(tok.Text); ok {
			ev.Position = tok.Offset
			replay.Lock(ev)
		}
	}
	return reading.Compute(replay.input())
}
