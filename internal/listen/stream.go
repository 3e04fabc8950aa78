package listen

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/pkg/provider/stt"
)

// ErrStreamEnded is returned by [Session.Run] when the provider closed both
// transcript channels.
var ErrStreamEnded = errors.New("listen: speech stream ended")

// Restart parameters for [Session.Listen].
const (
	defaultMaxRetries = 5
	defaultBackoff    = 500 * time.Millisecond
	defaultMaxBackoff = 10 * time.Second
)

// Run drains h's Partials and Finals into [Session.Handle] on the calling
// goroutine, so transcripts are applied one at a time in arrival order. It
// returns ctx.Err() on cancellation and [ErrStreamEnded] once both channels
// are closed. Run does not close h.
func (s *Session) Run(ctx context.Context, h stt.SessionHandle) error {
	partials, finals := h.Partials(), h.Finals()
	for partials != nil || finals != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-partials:
			if !ok {
				partials = nil
				continue
			}
			s.Handle(ctx, t)
		case t, ok := <-finals:
			if !ok {
				finals = nil
				continue
			}
			s.Handle(ctx, t)
		}
	}
	return ErrStreamEnded
}

// Listen opens a speech stream on p, forwards audio chunks to it and runs the
// session on its transcripts. When the stream ends while the session is still
// active it is reopened with exponential backoff. Listen returns nil once
// audio is closed or the session is stopped, ctx.Err() on cancellation, and
// an error after repeated failures to open a stream, in which case the
// Notifier's Error cue fires.
func (s *Session) Listen(ctx context.Context, p stt.Provider, cfg stt.StreamConfig, audio <-chan []byte) error {
	log := observe.Logger(ctx).With("session_id", s.id)
	backoff := s.backoff
	failures := 0

	for {
		h, err := p.StartStream(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			log.Warn("listen: start speech stream", "attempt", failures, "err", err)
			if failures >= defaultMaxRetries {
				err = fmt.Errorf("listen: start speech stream after %d attempts: %w", failures, err)
				s.notifier.Error(ctx, err)
				return err
			}
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, s.maxBackoff)
			continue
		}
		failures = 0
		backoff = s.backoff

		audioDone, err := s.stream(ctx, h, audio)
		_ = h.Close()

		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case audioDone:
			return nil
		case !s.Active():
			return nil
		}
		s.metrics.STTRestarts.Add(ctx, 1)
		log.Info("listen: speech stream ended, reopening", "reason", err)
	}
}

// stream pumps audio into h while Run consumes its transcripts. It reports
// whether the stream ended because audio was closed.
func (s *Session) stream(ctx context.Context, h stt.SessionHandle, audio <-chan []byte) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var audioDone atomic.Bool
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-audio:
				if !ok {
					audioDone.Store(true)
					_ = h.Close()
					return
				}
				if err := h.SendAudio(chunk); err != nil {
					return
				}
			}
		}
	}()

	err := s.Run(ctx, h)
	return audioDone.Load(), err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
