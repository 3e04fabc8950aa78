// Package readingtool exposes the keyword reading as Model Context Protocol
// tools.
//
// Three tools are registered by [NewServer]:
//   - "compute_reading": scans a text the way a listening session does and
//     returns the reading, or the categories still missing.
//   - "list_vocabulary": returns every category with its canonical words and
//     weights.
//   - "lookup_word": resolves one heard word to its category and canonical
//     word.
//
// Each call uses a fresh parser, so handlers are safe for concurrent use.
package readingtool

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/internal/reading"
)

// maxTextBytes bounds the text accepted by compute_reading.
const maxTextBytes = 64 << 10

var (
	errEmptyText = errors.New("readingtool: text is required")
	errTooLong   = errors.New("readingtool: text exceeds 64 KiB")
	errEmptyWord = errors.New("readingtool: word is required")
)

// ComputeInput is the argument of compute_reading.
type ComputeInput struct {
	Text string `json:"text" jsonschema:"the spoken or typed sentence to scan for keywords"`
}

// Lock is one locked category as reported by the tools.
type Lock struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Heard    string `json:"heard"`
	Weight   int    `json:"weight"`
}

// ComputeOutput is the result of compute_reading.
type ComputeOutput struct {
	Complete bool `json:"complete"`

	// Lines holds the rendered lines ("R: JAN 16 - CAPRICORN (Makara)"),
	// A first. Empty when incomplete.
	Lines []string `json:"lines,omitempty"`

	Reading *reading.Reading `json:"reading,omitempty"`

	Locked  []Lock   `json:"locked"`
	Missing []string `json:"missing,omitempty"`
	Message string   `json:"message,omitempty"`
}

// VocabularyInput is the (empty) argument of list_vocabulary.
type VocabularyInput struct{}

// Word is one canonical word and its weight.
type Word struct {
	Word   string `json:"word"`
	Weight int    `json:"weight"`
}

// CategoryVocabulary lists the words of one category.
type CategoryVocabulary struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Words    []Word `json:"words"`
}

// VocabularyOutput is the result of list_vocabulary.
type VocabularyOutput struct {
	Categories []CategoryVocabulary `json:"categories"`
}

// LookupInput is the argument of lookup_word.
type LookupInput struct {
	Word string `json:"word" jsonschema:"a single word as heard, e.g. helth"`
}

// LookupOutput is the result of lookup_word.
type LookupOutput struct {
	Found    bool   `json:"found"`
	Category string `json:"category,omitempty"`
	Word     string `json:"word,omitempty"`
	Weight   int    `json:"weight,omitempty"`
}

// Option configures the tool server.
type Option func(*tools)

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(t *tools) { t.metrics = m }
}

// WithStopWords adds filler words dropped before matching.
func WithStopWords(words ...string) Option {
	return func(t *tools) { t.stopWords = append(t.stopWords, words...) }
}

type tools struct {
	metrics   *observe.Metrics
	stopWords []string
}

// NewServer returns an MCP server with the reading tools registered. Serve it
// with Run on a transport, e.g. &mcpsdk.StdioTransport{}.
func NewServer(version string, opts ...Option) *mcpsdk.Server {
	t := &tools{}
	for _, o := range opts {
		o(t)
	}
	if t.metrics == nil {
		t.metrics = observe.DefaultMetrics()
	}

	srv := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "starcue", Version: version}, nil)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "compute_reading",
		Description: "Scan a sentence for one Trimester word (health, character, personality), one Red word (love, romance, partnership, relationships) and one Economic word (job, work, money, career, ...) and return the resulting pair of birthday lines with their zodiac signs. Reports the missing categories when the sentence does not contain all three.",
	}, t.computeHandler)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "list_vocabulary",
		Description: "List the three keyword categories with their canonical words and weights.",
	}, t.vocabularyHandler)

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "lookup_word",
		Description: "Resolve one heard word, including common mishearings, to its keyword category and canonical word.",
	}, t.lookupHandler)

	return srv
}

func (t *tools) computeHandler(ctx context.Context, _ *mcpsdk.CallToolRequest, in ComputeInput) (*mcpsdk.CallToolResult, ComputeOutput, error) {
	out, err := t.compute(in)
	t.record(ctx, "compute_reading", err)
	return nil, out, err
}

func (t *tools) vocabularyHandler(ctx context.Context, _ *mcpsdk.CallToolRequest, _ VocabularyInput) (*mcpsdk.CallToolResult, VocabularyOutput, error) {
	out := Vocabulary()
	t.record(ctx, "list_vocabulary", nil)
	return nil, out, nil
}

func (t *tools) lookupHandler(ctx context.Context, _ *mcpsdk.CallToolRequest, in LookupInput) (*mcpsdk.CallToolResult, LookupOutput, error) {
	out, err := t.lookup(in)
	t.record(ctx, "lookup_word", err)
	return nil, out, err
}

func (t *tools) record(ctx context.Context, tool string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		observe.Logger(ctx).Debug("readingtool: call failed", "tool", tool, "err", err)
	}
	t.metrics.RecordToolCall(ctx, tool, status)
}

func (t *tools) compute(in ComputeInput) (ComputeOutput, error) {
	switch {
	case strings.TrimSpace(in.Text) == "":
		return ComputeOutput{}, errEmptyText
	case len(in.Text) > maxTextBytes:
		return ComputeOutput{}, errTooLong
	}
	text := in.Text
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, " ")
	}

	var locked []Lock
	p := keyword.NewParser(
		keyword.WithStopWords(t.stopWords...),
		keyword.WithLockHook(func(ev keyword.MatchEvent) {
			locked = append(locked, Lock{
				Category: ev.Category.String(),
				Word:     ev.Word,
				Heard:    ev.Surface,
				Weight:   ev.Weight,
			})
		}),
	)

	var out ComputeOutput
	switch res := p.IngestUtterance(text).(type) {
	case keyword.Success:
		r := res.Reading
		out.Complete = true
		out.Reading = &r
		out.Lines = []string{r.A.String(), r.B.String()}
	case keyword.Partial:
		out.Missing = categoryNames(res.Missing)
		out.Message = keyword.MissingMessage(res.Missing)
	case keyword.Empty:
		all := keyword.Categories[:]
		out.Missing = categoryNames(all)
		out.Message = keyword.MissingMessage(all)
	}
	out.Locked = locked
	if out.Locked == nil {
		out.Locked = []Lock{}
	}
	return out, nil
}

func (t *tools) lookup(in LookupInput) (LookupOutput, error) {
	if strings.TrimSpace(in.Word) == "" {
		return LookupOutput{}, errEmptyWord
	}
	tokens := keyword.NewNormalizer(t.stopWords...).Tokens(in.Word)
	if len(tokens) != 1 {
		return LookupOutput{}, nil
	}
	ev, ok := keyword.Match(tokens[0].Text)
	if !ok {
		return LookupOutput{}, nil
	}
	return LookupOutput{
		Found:    true,
		Category: ev.Category.String(),
		Word:     ev.Word,
		Weight:   ev.Weight,
	}, nil
}

// Vocabulary returns the fixed word tables in category priority order.
func Vocabulary() VocabularyOutput {
	out := VocabularyOutput{Categories: make([]CategoryVocabulary, 0, len(keyword.Categories))}
	for _, c := range keyword.Categories {
		cv := CategoryVocabulary{Category: c.String(), Label: c.Label()}
		for _, w := range keyword.Words(c) {
			weight, _ := keyword.Weight(w)
			cv.Words = append(cv.Words, Word{Word: w, Weight: weight})
		}
		out.Categories = append(out.Categories, cv)
	}
	return out
}

func categoryNames(cs []keyword.Category) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return names
}
