package app

import (
	"log/slog"

	"github.com/MrWong99/starcue/internal/config"
	"github.com/MrWong99/starcue/internal/keyword"
	"github.com/MrWong99/starcue/internal/listen"
	"github.com/MrWong99/starcue/pkg/provider/stt"
	"github.com/MrWong99/starcue/pkg/provider/stt/deepgram"
)

// RegisterBuiltinProviders wires the speech provider factories that ship with
// starcue into reg.
func RegisterBuiltinProviders(reg *config.Registry) {
	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		if lang, ok := entry.OptionString("language"); ok && lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		if rate, ok, _ := entry.OptionInt("sample_rate"); ok {
			opts = append(opts, deepgram.WithSampleRate(rate))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	for _, name := range reg.STTNames() {
		slog.Debug("registered provider", "kind", "stt", "name", name)
	}
}

// StreamConfig derives the per-session stream settings from the speech
// provider entry. Every canonical keyword is sent as a recognition boost.
// Option types were checked by [config.Validate].
func StreamConfig(entry config.ProviderEntry) stt.StreamConfig {
	cfg := stt.StreamConfig{
		Channels:     1,
		Alternatives: config.DefaultAlternatives,
		Keywords:     keyword.BoostKeywords(),
	}
	if n, ok, _ := entry.OptionInt("alternatives"); ok {
		cfg.Alternatives = n
	}
	if rate, ok, _ := entry.OptionInt("sample_rate"); ok {
		cfg.SampleRate = rate
	}
	if lang, ok := entry.OptionString("language"); ok {
		cfg.Language = lang
	}
	return cfg
}

// ListenConfig maps the listen section onto session settings.
func ListenConfig(c config.ListenConfig) listen.Config {
	return listen.Config{
		PartialTimeout:  c.PartialTimeout,
		UseAlternatives: c.UseAlternatives,
		StopWords:       append([]string(nil), c.StopWords...),
		Source:          "ws",
	}
}
