// Package types defines the shared types used across starcue packages.
//
// These types are the common language between speech providers, the keyword
// parser and the transports that feed it. They are intentionally minimal:
// each package defines its own domain types, but cross-cutting data structures
// live here to avoid circular imports.
package types

import "time"

// Transcript represents a speech-to-text result from an STT provider or a
// remote recognition client. Both partial (interim) and final transcripts use
// this type.
type Transcript struct {
	// Text is the transcribed speech content of the top-ranked hypothesis.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial (interim) transcript.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). May be zero if the provider
	// does not report confidence.
	Confidence float64

	// Words contains per-word detail when available (Deepgram, Google).
	// May be nil for providers that don't support word-level output.
	Words []WordDetail

	// Alternatives holds every competing hypothesis for this result, ranked by
	// the recogniser. When present, Alternatives[0].Text equals Text.
	// May be nil for providers that only report the top hypothesis.
	Alternatives []Alternative

	// Timestamp marks when the utterance started, relative to session start.
	Timestamp time.Duration

	// Duration is the length of the utterance.
	Duration time.Duration
}

// Hypotheses returns the ranked hypotheses of t. When the provider reported
// no alternatives, the single top-level Text is returned as the only entry.
func (t Transcript) Hypotheses() []Alternative {
	if len(t.Alternatives) > 0 {
		return t.Alternatives
	}
	if t.Text == "" {
		return nil
	}
	return []Alternative{{Text: t.Text, Confidence: t.Confidence}}
}

// Alternative is one competing recognition hypothesis.
type Alternative struct {
	// Text is the hypothesis transcript.
	Text string `json:"text"`

	// Confidence is the recogniser's confidence in this hypothesis (0.0–1.0).
	Confidence float64 `json:"confidence"`
}

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// KeywordBoost represents a keyword to boost in STT recognition.
// Used to improve recognition of the category vocabulary.
type KeywordBoost struct {
	// Keyword is the text to boost (e.g., "occupation").
	Keyword string

	// Boost is the intensity of the boost (provider-specific scale).
	Boost float64
}
