package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidSTTNames lists the speech providers this build knows about. Used by
// [Validate] to warn about unrecognised names.
var ValidSTTNames = []string{"deepgram"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Unknown keys are rejected. An empty document yields the
// defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Listen.PartialTimeout < 0 {
		errs = append(errs, fmt.Errorf("listen.partial_timeout %s must not be negative", cfg.Listen.PartialTimeout))
	}
	for i, w := range cfg.Listen.StopWords {
		if strings.TrimSpace(w) == "" {
			errs = append(errs, fmt.Errorf("listen.stop_words[%d] is empty", i))
		}
	}

	stt := cfg.Providers.STT
	if stt.Name != "" {
		if !slices.Contains(ValidSTTNames, stt.Name) {
			slog.Warn("unknown stt provider name; it must be registered before startup",
				"name", stt.Name,
				"known", ValidSTTNames,
			)
		}
		if stt.Name == "deepgram" && stt.APIKey == "" {
			errs = append(errs, errors.New("providers.stt.api_key is required for deepgram"))
		}
		if n, ok, err := stt.OptionInt("alternatives"); err != nil {
			errs = append(errs, fmt.Errorf("providers.stt.%w", err))
		} else if ok && (n < 1 || n > 10) {
			errs = append(errs, fmt.Errorf("providers.stt.options.alternatives %d is out of range [1, 10]", n))
		}
		if n, ok, err := stt.OptionInt("sample_rate"); err != nil {
			errs = append(errs, fmt.Errorf("providers.stt.%w", err))
		} else if ok && n <= 0 {
			errs = append(errs, fmt.Errorf("providers.stt.options.sample_rate %d must be positive", n))
		}
		if raw, ok := stt.Options["language"]; ok {
			if _, isString := raw.(string); !isString {
				errs = append(errs, fmt.Errorf("providers.stt.options.language: want a string, got %T", raw))
			}
		}
	}

	if cfg.Storage.PostgresDSN == "" {
		slog.Debug("storage.postgres_dsn is empty; completed readings will not be stored")
	}

	return errors.Join(errs...)
}
