// Package mock provides test doubles for the stt package interfaces.
//
// Use Provider to hand out scripted sessions and to verify the StreamConfig a
// caller asked for. Use Session to feed controlled Transcript values and to
// simulate the provider dropping the stream.
//
// Example:
//
//	sess := mock.NewSession(4)
//	p := &mock.Provider{Sessions: []stt.SessionHandle{sess}}
//	handle, _ := p.StartStream(ctx, cfg)
//	sess.EmitFinal(stt.Transcript{Text: "my health"})
//	sess.End()
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/starcue/pkg/provider/stt"
)

// StartStreamCall records a single invocation of Provider.StartStream.
type StartStreamCall struct {
	Ctx context.Context
	Cfg stt.StreamConfig
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Sessions are returned by successive StartStream calls in order. Once the
	// queue is exhausted StartStream returns a fresh NewSession(16).
	Sessions []stt.SessionHandle

	// StartStreamErr, if non-nil, is returned as the error from StartStream.
	StartStreamErr error

	// StartStreamCalls records every call to StartStream.
	StartStreamCalls []StartStreamCall
}

var _ stt.Provider = (*Provider)(nil)

// StartStream records the call and returns the next queued session.
func (p *Provider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartStreamCalls = append(p.StartStreamCalls, StartStreamCall{Ctx: ctx, Cfg: cfg})
	if p.StartStreamErr != nil {
		return nil, p.StartStreamErr
	}
	if len(p.Sessions) > 0 {
		s := p.Sessions[0]
		p.Sessions = p.Sessions[1:]
		return s, nil
	}
	return NewSession(16), nil
}

// CallCount returns the number of StartStream calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.StartStreamCalls)
}

// Session is a mock implementation of stt.SessionHandle.
type Session struct {
	mu sync.Mutex

	partials chan stt.Transcript
	finals   chan stt.Transcript
	endOnce  sync.Once

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// AudioChunks holds a copy of every chunk passed to SendAudio.
	AudioChunks [][]byte

	// Keywords is the last list passed to SetKeywords.
	Keywords []stt.KeywordBoost

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

var _ stt.SessionHandle = (*Session)(nil)

// NewSession returns a Session whose channels hold up to buffer values.
func NewSession(buffer int) *Session {
	return &Session{
		partials: make(chan stt.Transcript, buffer),
		finals:   make(chan stt.Transcript, buffer),
	}
}

// EmitPartial delivers t on the Partials channel, blocking when the buffer is
// full.
func (s *Session) EmitPartial(t stt.Transcript) {
	t.IsFinal = false
	s.partials <- t
}

// EmitFinal delivers t on the Finals channel, blocking when the buffer is full.
func (s *Session) EmitFinal(t stt.Transcript) {
	t.IsFinal = true
	s.finals <- t
}

// End closes both transcript channels, as a provider does when the stream
// drops. It is idempotent.
func (s *Session) End() {
	s.endOnce.Do(func() {
		close(s.partials)
		close(s.finals)
	})
}

// SendAudio records the chunk and returns SendAudioErr.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AudioChunks = append(s.AudioChunks, append([]byte(nil), chunk...))
	return s.SendAudioErr
}

// Partials returns the interim channel.
func (s *Session) Partials() <-chan stt.Transcript { return s.partials }

// Finals returns the final channel.
func (s *Session) Finals() <-chan stt.Transcript { return s.finals }

// SetKeywords records the list and returns nil.
func (s *Session) SetKeywords(keywords []stt.KeywordBoost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Keywords = append([]stt.KeywordBoost(nil), keywords...)
	return nil
}

// Close records the call, ends the stream and returns CloseErr.
func (s *Session) Close() error {
	s.mu.Lock()
	s.CloseCallCount++
	err := s.CloseErr
	s.mu.Unlock()
	s.End()
	return err
}

// Closed reports how many times Close was called. Thread-safe.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CloseCallCount
}
