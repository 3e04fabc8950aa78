package stt

import "github.com/MrWong99/starcue/pkg/types"

// Transcript is the recognition result emitted on a session's Partials and
// Finals channels.
type Transcript = types.Transcript

// Alternative is one ranked hypothesis inside a [Transcript].
type Alternative = types.Alternative

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail = types.WordDetail

// KeywordBoost represents a keyword to boost in STT recognition.
type KeywordBoost = types.KeywordBoost
