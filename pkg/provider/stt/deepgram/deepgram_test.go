package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/starcue/pkg/provider/stt"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	t.Parallel()

	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.StreamConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "language", "en", q.Get("language"))
	assertEqual(t, "punctuate", "true", q.Get("punctuate"))
	assertEqual(t, "interim_results", "true", q.Get("interim_results"))
	assertEqual(t, "sample_rate", "16000", q.Get("sample_rate"))
	assertEqual(t, "channels", "1", q.Get("channels"))
	if _, ok := q["alternatives"]; ok {
		t.Error("alternatives param set without being requested")
	}
}

func TestBuildURL_Options(t *testing.T) {
	t.Parallel()

	p, err := New("key", WithModel("base"), WithLanguage("de-DE"), WithSampleRate(48000), WithAlternatives(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.StreamConfig{})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	q := u.Query()

	assertEqual(t, "model", "base", q.Get("model"))
	assertEqual(t, "language", "de-DE", q.Get("language"))
	assertEqual(t, "sample_rate", "48000", q.Get("sample_rate"))
	assertEqual(t, "alternatives", "3", q.Get("alternatives"))
}

func TestBuildURL_ConfigOverridesProvider(t *testing.T) {
	t.Parallel()

	p, err := New("key", WithLanguage("en"), WithAlternatives(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.StreamConfig{Language: "fr-FR", Alternatives: 5})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	q, _ := url.ParseQuery(strings.SplitN(rawURL, "?", 2)[1])
	assertEqual(t, "language", "fr-FR", q.Get("language"))
	assertEqual(t, "alternatives", "5", q.Get("alternatives"))
}

func TestBuildURL_Keywords(t *testing.T) {
	t.Parallel()

	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.StreamConfig{
		Keywords: []stt.KeywordBoost{
			{Keyword: "career", Boost: 2},
			{Keyword: "romance", Boost: 3.5},
		},
	})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	kws := u.Query()["keywords"]
	if len(kws) != 2 {
		t.Fatalf("got %d keywords, want 2: %v", len(kws), kws)
	}
	found := map[string]bool{}
	for _, kw := range kws {
		found[kw] = true
	}
	if !found["career:2"] || !found["romance:3.5"] {
		t.Errorf("keywords = %v, want career:2 and romance:3.5", kws)
	}
}

func TestBuildURL_BadEndpoint(t *testing.T) {
	t.Parallel()

	p, _ := New("key", WithEndpoint("://nope"))
	if _, err := p.buildURL(stt.StreamConfig{}); err == nil {
		t.Error("expected error for malformed endpoint")
	}
}

// ---- JSON parsing tests ----

func TestParseDeepgramResponse_Alternatives(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"type": "Results",
		"is_final": true,
		"start": 1.5,
		"duration": 2.0,
		"channel": {
			"alternatives": [
				{
					"transcript": "my health",
					"confidence": 0.91,
					"words": [
						{"word": "my", "start": 1.5, "end": 1.7, "confidence": 0.99},
						{"word": "health", "start": 1.8, "end": 2.3, "confidence": 0.83}
					]
				},
				{"transcript": "my wealth", "confidence": 0.40, "words": []}
			]
		}
	}`)

	tr, ok := parseDeepgramResponse(raw)
	if !ok {
		t.Fatal("expected ok=true for valid Results message")
	}
	if !tr.IsFinal {
		t.Error("expected IsFinal=true")
	}
	assertEqual(t, "text", "my health", tr.Text)
	if tr.Confidence != 0.91 {
		t.Errorf("confidence = %v, want 0.91", tr.Confidence)
	}
	if len(tr.Words) != 2 {
		t.Fatalf("got %d words, want 2", len(tr.Words))
	}
	if tr.Words[1].Start != 1800*time.Millisecond {
		t.Errorf("word start = %v, want 1.8s", tr.Words[1].Start)
	}
	if tr.Timestamp != 1500*time.Millisecond || tr.Duration != 2*time.Second {
		t.Errorf("timing = %v/%v, want 1.5s/2s", tr.Timestamp, tr.Duration)
	}
	if len(tr.Alternatives) != 2 {
		t.Fatalf("got %d alternatives, want 2", len(tr.Alternatives))
	}
	assertEqual(t, "alt[1]", "my wealth", tr.Alternatives[1].Text)
	if tr.Alternatives[0].Text != tr.Text {
		t.Error("first alternative does not mirror Text")
	}
}

func TestParseDeepgramResponse_Ignored(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"metadata":           `{"type":"Metadata","request_id":"abc"}`,
		"empty alternatives": `{"type":"Results","is_final":true,"channel":{"alternatives":[]}}`,
		"invalid json":       `{invalid`,
	}
	for name, raw := range tests {
		if _, ok := parseDeepgramResponse([]byte(raw)); ok {
			t.Errorf("%s: expected ok=false", name)
		}
	}
}

// ---- Constructor tests ----

func TestNew_EmptyAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertEqual(t, "model", defaultModel, p.model)
	assertEqual(t, "language", defaultLanguage, p.language)
	assertEqual(t, "endpoint", deepgramEndpoint, p.endpoint)
	if p.sampleRate != defaultSampleRate {
		t.Errorf("sampleRate = %d, want %d", p.sampleRate, defaultSampleRate)
	}
}

// ---- streaming ----

func TestStartStream_RoutesPartialsAndFinals(t *testing.T) {
	t.Parallel()

	gotAuth := make(chan string, 1)
	gotAudio := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()

		ctx := r.Context()
		_, audio, err := c.Read(ctx)
		if err != nil {
			return
		}
		gotAudio <- audio

		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"Metadata"}`))
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"my helth","confidence":0.5}]}}`))
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"my health","confidence":0.9},{"transcript":"my wealth","confidence":0.3}]}}`))

		// Wait for CloseStream or disconnect.
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	p, err := New("secret", WithEndpoint("ws"+strings.TrimPrefix(srv.URL, "http")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := p.StartStream(ctx, stt.StreamConfig{})
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	defer sess.Close()

	if err := sess.SendAudio([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	assertEqual(t, "auth", "Token secret", <-gotAuth)
	if audio := <-gotAudio; len(audio) != 4 {
		t.Errorf("server got %d audio bytes, want 4", len(audio))
	}

	select {
	case tr := <-sess.Partials():
		assertEqual(t, "partial", "my helth", tr.Text)
	case <-ctx.Done():
		t.Fatal("timed out waiting for partial")
	}
	select {
	case tr := <-sess.Finals():
		assertEqual(t, "final", "my health", tr.Text)
		if len(tr.Alternatives) != 2 {
			t.Errorf("got %d alternatives, want 2", len(tr.Alternatives))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for final")
	}

	if err := sess.SetKeywords(nil); !errors.Is(err, stt.ErrNotSupported) {
		t.Errorf("SetKeywords err = %v, want ErrNotSupported", err)
	}

	if err := sess.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := sess.SendAudio([]byte{0}); err == nil {
		t.Error("SendAudio after Close returned nil")
	}
	if _, ok := <-sess.Finals(); ok {
		t.Error("Finals channel still open after Close")
	}
}

func TestStartStream_DialError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p, _ := New("key", WithEndpoint("ws"+strings.TrimPrefix(srv.URL, "http")))
	if _, err := p.StartStream(context.Background(), stt.StreamConfig{}); err == nil {
		t.Error("expected dial error against a non-websocket endpoint")
	}
}

// ---- helpers ----

func assertEqual(t *testing.T, label, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s: want %q, got %q", label, want, got)
	}
}
