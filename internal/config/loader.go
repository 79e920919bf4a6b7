package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"recognizer": {"whisper-native", "whisper"},
	"phonetic":   {"lexicon", "metaphone"},
}

// validResamplers lists the accepted audio.resampler values.
var validResamplers = []string{"soxr", "linear"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
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

// LoadFromReader decodes a YAML config from r on top of [Defaults] and
// validates the result. Unknown fields are rejected. An empty document
// yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Assessment.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("assessment.timeout %s must be positive", cfg.Assessment.Timeout))
	}
	if cfg.Assessment.ChunkSamples <= 0 {
		errs = append(errs, fmt.Errorf("assessment.chunk_samples %d must be positive", cfg.Assessment.ChunkSamples))
	}

	if !slices.Contains(validResamplers, cfg.Audio.Resampler) {
		errs = append(errs, fmt.Errorf("audio.resampler %q is invalid; valid values: soxr, linear", cfg.Audio.Resampler))
	}

	if cfg.Providers.Recognizer.Name == "" {
		errs = append(errs, errors.New("providers.recognizer.name is required"))
	}
	if cfg.Providers.Phonetic.Name == "" {
		errs = append(errs, errors.New("providers.phonetic.name is required"))
	}
	validateProviderName("recognizer", cfg.Providers.Recognizer.Name)
	validateProviderName("phonetic", cfg.Providers.Phonetic.Name)
	for i, e := range cfg.Providers.RecognizerFallbacks {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("providers.recognizer_fallbacks[%d].name is required", i))
		}
		validateProviderName("recognizer", e.Name)
	}
	for i, e := range cfg.Providers.PhoneticFallbacks {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("providers.phonetic_fallbacks[%d].name is required", i))
		}
		validateProviderName("phonetic", e.Name)
	}
	if cb := cfg.Providers.CircuitBreaker; cb.MaxFailures < 0 || cb.ResetTimeout < 0 {
		errs = append(errs, errors.New("providers.circuit_breaker values must not be negative"))
	}

	s := cfg.Scoring
	errs = append(errs, validateWeights("scoring.orthographic_weight", s.OrthographicWeight, "scoring.phonetic_weight", s.PhoneticWeight)...)
	errs = append(errs, validateWeights("scoring.accuracy_weight", s.AccuracyWeight, "scoring.fluency_weight", s.FluencyWeight)...)
	if s.PassThreshold < 0 || s.PassThreshold > 100 {
		errs = append(errs, fmt.Errorf("scoring.pass_threshold %d is out of range [0, 100]", s.PassThreshold))
	}
	if s.FluencyFloorWPS < 0 {
		errs = append(errs, fmt.Errorf("scoring.fluency_floor_wps %.2f must not be negative", s.FluencyFloorWPS))
	}
	if s.FluencyCeilingWPS <= s.FluencyFloorWPS {
		errs = append(errs, fmt.Errorf("scoring.fluency_ceiling_wps %.2f must exceed fluency_floor_wps %.2f", s.FluencyCeilingWPS, s.FluencyFloorWPS))
	}

	return errors.Join(errs...)
}

// validateWeights checks a pair of blend weights.
func validateWeights(nameA string, a float64, nameB string, b float64) []error {
	var errs []error
	if a < 0 {
		errs = append(errs, fmt.Errorf("%s %.2f must not be negative", nameA, a))
	}
	if b < 0 {
		errs = append(errs, fmt.Errorf("%s %.2f must not be negative", nameB, b))
	}
	if len(errs) == 0 && a+b <= 0 {
		errs = append(errs, fmt.Errorf("%s and %s must not both be zero", nameA, nameB))
	}
	return errs
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
