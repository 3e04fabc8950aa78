// Package ws serves listening sessions to remote clients over WebSocket.
//
// Each connection to GET /listen owns one [listen.Session]. Clients either
// run recognition themselves and send transcripts as JSON text frames, or
// stream raw PCM audio as binary frames, in which case the server opens a
// speech stream on the configured [stt.Provider].
//
// Client messages:
//
//	{"type":"transcript","text":"...","is_final":false,"alternatives":[{"text":"...","confidence":0.9}]}
//	{"type":"reset"}   clear slots, keep listening
//	{"type":"stop"}    hard reset, stop listening
//	{"type":"start"}   resume after stop
//
// Server messages:
//
//	{"type":"ready","session_id":"..."}
//	{"type":"locked","slots":{...},"locked":[...]}
//	{"type":"partial","missing":["ECONOMIC"],"message":"Missing: ..."}
//	{"type":"result","reading":{...}}
//	{"type":"cleared"}  partial slots dropped after silence
//	{"type":"error","error":"..."}
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/listen"
	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/internal/reading"
	"github.com/MrWong99/starcue/pkg/provider/stt"
	"github.com/MrWong99/starcue/pkg/types"
)

const (
	writeTimeout = 5 * time.Second
	audioBuffer  = 64
)

// clientMessage is a JSON text frame sent by the client.
type clientMessage struct {
	Type         string              `json:"type"`
	Text         string              `json:"text"`
	IsFinal      bool                `json:"is_final"`
	Confidence   float64             `json:"confidence"`
	Alternatives []types.Alternative `json:"alternatives"`
}

func (m clientMessage) transcript() stt.Transcript {
	return stt.Transcript{
		Text:         m.Text,
		IsFinal:      m.IsFinal,
		Confidence:   m.Confidence,
		Alternatives: m.Alternatives,
	}
}

// serverMessage is a JSON text frame sent to the client.
type serverMessage struct {
	Type      string               `json:"type"`
	SessionID string               `json:"session_id,omitempty"`
	Slots     *keyword.Slots       `json:"slots,omitempty"`
	Locked    []keyword.MatchEvent `json:"locked,omitempty"`
	Missing   []keyword.Category   `json:"missing,omitempty"`
	Message   string               `json:"message,omitempty"`
	Reading   *reading.Reading     `json:"reading,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithProvider enables binary audio frames, transcribed by p with cfg.
func WithProvider(p stt.Provider, cfg stt.StreamConfig) Option {
	return func(s *Server) {
		s.provider = p
		s.streamCfg = cfg
	}
}

// WithRecorder sets the store completed readings are written to.
func WithRecorder(r listen.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithOriginPatterns allows cross-origin browser clients from the given host
// patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// Server accepts WebSocket listening sessions. It is safe for concurrent use.
type Server struct {
	provider       stt.Provider
	streamCfg      stt.StreamConfig
	recorder       listen.Recorder
	metrics        *observe.Metrics
	originPatterns []string

	mu       sync.Mutex
	cfg      listen.Config
	sessions map[string]*websocket.Conn
}

// NewServer creates a Server whose sessions use cfg.
func NewServer(cfg listen.Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: make(map[string]*websocket.Conn),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns an http.Handler serving GET /listen.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /listen", s.handleListen)
	return mux
}

// SetConfig replaces the session settings used by connections accepted from
// now on.
func (s *Server) SetConfig(cfg listen.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// ActiveSessions returns the number of open connections.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseAll closes every open connection with StatusGoingAway.
func (s *Server) CloseAll() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.sessions))
	for _, c := range s.sessions {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		observe.Logger(r.Context()).Warn("ws: accept", "err", err)
		return
	}
	defer c.CloseNow()

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = c
	cfg := s.cfg
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()

	cfg.Source = "ws"
	cn := &conn{ws: c, id: id, log: observe.Logger(r.Context()).With("session_id", id)}
	opts := []listen.Option{
		listen.WithNotifier(cn),
		listen.WithMetrics(s.metrics),
		listen.WithTimeoutHook(func() { cn.send(context.Background(), serverMessage{Type: "cleared"}) }),
	}
	if s.recorder != nil {
		opts = append(opts, listen.WithRecorder(s.recorder))
	}
	cn.sess = listen.New(id, cfg, opts...)

	ctx := r.Context()
	cn.sess.Start(ctx)
	err = s.serve(ctx, cn)
	cn.stopAudio()
	cn.sess.Stop(context.WithoutCancel(ctx))

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		cn.log.Debug("ws: connection closed")
	case errors.Is(err, context.Canceled):
	default:
		cn.log.Warn("ws: connection ended", "err", err)
	}
}

// serve is the connection's read loop. Messages are applied one at a time.
func (s *Server) serve(ctx context.Context, cn *conn) error {
	for {
		typ, data, err := cn.ws.Read(ctx)
		if err != nil {
			return err
		}

		if typ == websocket.MessageBinary {
			s.handleAudio(ctx, cn, data)
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cn.send(ctx, serverMessage{Type: "error", Error: "invalid message: " + err.Error()})
			continue
		}

		switch msg.Type {
		case "transcript":
			cn.handleEvent(ctx, cn.sess.Handle(ctx, msg.transcript()))
		case "reset":
			cn.sess.Reset()
			cn.send(ctx, serverMessage{Type: "cleared"})
		case "stop":
			cn.stopAudio()
			cn.sess.Stop(ctx)
		case "start":
			cn.sess.Start(ctx)
		default:
			cn.send(ctx, serverMessage{Type: "error", Error: "unknown message type " + `"` + msg.Type + `"`})
		}
	}
}

// handleAudio forwards a PCM frame to the connection's speech stream,
// opening the stream on the first frame.
func (s *Server) handleAudio(ctx context.Context, cn *conn, frame []byte) {
	if s.provider == nil {
		cn.send(ctx, serverMessage{Type: "error", Error: "audio frames are not supported: no speech provider configured"})
		return
	}
	if !cn.sess.Active() {
		return
	}

	cn.audioMu.Lock()
	if cn.audio == nil {
		cn.audio = make(chan []byte, audioBuffer)
		cn.listenDone = make(chan struct{})
		go func(audio <-chan []byte, done chan<- struct{}) {
			defer close(done)
			if err := cn.sess.Listen(ctx, s.provider, s.streamCfg, audio); err != nil && !errors.Is(err, context.Canceled) {
				cn.log.Warn("ws: speech stream", "err", err)
			}
		}(cn.audio, cn.listenDone)
	}
	audio, done := cn.audio, cn.listenDone
	cn.audioMu.Unlock()

	select {
	case audio <- frame:
	case <-done:
		cn.stopAudio()
	case <-ctx.Done():
	}
}

// conn is one accepted connection. It is the session's Notifier.
type conn struct {
	ws   *websocket.Conn
	id   string
	log  *slog.Logger
	sess *listen.Session

	audioMu    sync.Mutex
	audio      chan []byte
	listenDone chan struct{}
}

var _ listen.Notifier = (*conn)(nil)

func (c *conn) Ready(ctx context.Context) {
	c.send(ctx, serverMessage{Type: "ready", SessionID: c.id})
}

func (c *conn) Match(ctx context.Context, r reading.Reading) {
	c.send(ctx, serverMessage{Type: "result", Reading: &r})
}

func (c *conn) Error(ctx context.Context, err error) {
	c.send(ctx, serverMessage{Type: "error", Error: err.Error()})
}

// handleEvent reports new locks. Completion was already reported by Match.
func (c *conn) handleEvent(ctx context.Context, ev listen.Event) {
	if ev.Kind != listen.EventLocked {
		return
	}
	slots := ev.Slots
	c.send(ctx, serverMessage{Type: "locked", Slots: &slots, Locked: ev.Locked})
	c.send(ctx, serverMessage{Type: "partial", Missing: ev.Missing, Message: ev.Message})
}

// stopAudio closes the audio stream, if any, and waits for it to end.
func (c *conn) stopAudio() {
	c.audioMu.Lock()
	audio, done := c.audio, c.listenDone
	c.audio, c.listenDone = nil, nil
	c.audioMu.Unlock()

	if audio == nil {
		return
	}
	close(audio)
	<-done
}

func (c *conn) send(ctx context.Context, msg serverMessage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.ws, msg); err != nil {
		c.log.Debug("ws: write", "type", msg.Type, "err", err)
	}
}
