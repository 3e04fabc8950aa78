package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/starcue/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{ListenAddr: ":8080", LogLevel: config.LogInfo},
		Listen: config.ListenConfig{PartialTimeout: 15 * time.Second, StopWords: []string{"umm"}},
		Providers: config.ProvidersConfig{STT: config.ProviderEntry{
			Name:    "deepgram",
			APIKey:  "k",
			Options: map[string]any{"alternatives": 3, "extra": map[string]any{"a": 1}},
		}},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	d := config.Diff(baseConfig(), baseConfig())
	if d.LogLevelChanged || d.ListenChanged {
		t.Errorf("expected no hot changes, got %+v", d)
	}
	if len(d.RestartRequired) != 0 {
		t.Errorf("expected no restart fields, got %v", d.RestartRequired)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel: got %q, want debug", d.NewLogLevel)
	}
	if d.ListenChanged {
		t.Error("expected ListenChanged=false")
	}
}

func TestDiff_ListenChanged(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.ListenConfig)
	}{
		{"timeout", func(l *config.ListenConfig) { l.PartialTimeout = time.Second }},
		{"alternatives", func(l *config.ListenConfig) { l.UseAlternatives = true }},
		{"stop words", func(l *config.ListenConfig) { l.StopWords = append(l.StopWords, "uh") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			old, new := baseConfig(), baseConfig()
			tt.mutate(&new.Listen)

			d := config.Diff(old, new)
			if !d.ListenChanged {
				t.Fatal("expected ListenChanged=true")
			}
			if d.NewListen.PartialTimeout != new.Listen.PartialTimeout ||
				d.NewListen.UseAlternatives != new.Listen.UseAlternatives ||
				!slices.Equal(d.NewListen.StopWords, new.Listen.StopWords) {
				t.Errorf("NewListen: got %+v, want %+v", d.NewListen, new.Listen)
			}
			if len(d.RestartRequired) != 0 {
				t.Errorf("listen changes should not need a restart, got %v", d.RestartRequired)
			}
		})
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Server.ListenAddr = ":9090"
	new.Providers.STT.Options["alternatives"] = 5
	new.Storage.PostgresDSN = "postgres://localhost/starcue"

	d := config.Diff(old, new)
	want := []string{"server.listen_addr", "providers.stt", "storage"}
	if !slices.Equal(d.RestartRequired, want) {
		t.Errorf("RestartRequired: got %v, want %v", d.RestartRequired, want)
	}
}

func TestDiff_NilAndEmptyOptionsAreEqual(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	old.Providers.STT.Options = nil
	new.Providers.STT.Options = map[string]any{}

	if d := config.Diff(old, new); len(d.RestartRequired) != 0 {
		t.Errorf("RestartRequired: got %v, want none", d.RestartRequired)
	}
}
