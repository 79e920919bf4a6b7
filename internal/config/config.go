// Package config provides the configuration schema, loader, and provider
// registry for the enunciate assessment engine.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from
// a YAML file using [Load] or [LoadFromReader]; omitted fields keep the
// values of [Defaults].
type Config struct {
	LogLevel   LogLevel         `yaml:"log_level"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Audio      AudioConfig      `yaml:"audio"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// AssessmentConfig bounds a single assessment run.
type AssessmentConfig struct {
	// Timeout is how long a caller waits for a run before it fails.
	Timeout time.Duration `yaml:"timeout"`

	// ChunkSamples is the number of 16 kHz samples pushed to the recognizer
	// at a time.
	ChunkSamples int `yaml:"chunk_samples"`
}

// AudioConfig controls the audio normalizer.
type AudioConfig struct {
	// Resampler selects the sample-rate converter: "soxr" or "linear".
	Resampler string `yaml:"resampler"`

	// TempDir is where normalized recordings are written. Empty means the
	// system temp dir.
	TempDir string `yaml:"temp_dir"`
}

// ProvidersConfig selects the external capabilities. Each entry names a
// provider registered in the [Registry].
type ProvidersConfig struct {
	Recognizer ProviderEntry `yaml:"recognizer"`
	Phonetic   ProviderEntry `yaml:"phonetic"`

	// RecognizerFallbacks are tried in order when the recognizer fails.
	// The whole recording is replayed on each fallback.
	RecognizerFallbacks []ProviderEntry `yaml:"recognizer_fallbacks"`

	// PhoneticFallbacks are tried in order when the phonetic transcriber
	// fails. Out-of-vocabulary words are not failures.
	PhoneticFallbacks []ProviderEntry `yaml:"phonetic_fallbacks"`

	// CircuitBreaker tunes the per-provider breakers used when fallbacks
	// are configured.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig tunes provider circuit breakers. Zero values select
// the breaker defaults.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that open a breaker.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long an open breaker rejects calls before probing.
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds. The Name field is used to look up the constructor in the
// [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g.,
	// "whisper-native", "lexicon").
	Name string `yaml:"name"`

	// BaseURL is the endpoint of server-backed providers.
	BaseURL string `yaml:"base_url"`

	// Model is the model or data file the provider loads.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// ScoringConfig holds every scoring constant. See assess.Scoring for their
// meaning.
type ScoringConfig struct {
	OrthographicWeight float64 `yaml:"orthographic_weight"`
	PhoneticWeight     float64 `yaml:"phonetic_weight"`
	PassThreshold      int     `yaml:"pass_threshold"`
	AccuracyWeight     float64 `yaml:"accuracy_weight"`
	FluencyWeight      float64 `yaml:"fluency_weight"`
	FluencyFloorWPS    float64 `yaml:"fluency_floor_wps"`
	FluencyCeilingWPS  float64 `yaml:"fluency_ceiling_wps"`
	Syllables          bool    `yaml:"syllables"`
}

// TelemetryConfig enables the OpenTelemetry SDK.
type TelemetryConfig struct {
	// Enabled installs the SDK meter and tracer providers. When false the
	// global no-op providers are used.
	Enabled bool `yaml:"enabled"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name"`
}

// Defaults returns the configuration used for every field a file omits.
func Defaults() *Config {
	return &Config{
		LogLevel: LogInfo,
		Assessment: AssessmentConfig{
			Timeout:      30 * time.Second,
			ChunkSamples: 4000,
		},
		Audio: AudioConfig{Resampler: "soxr"},
		Providers: ProvidersConfig{
			Recognizer: ProviderEntry{Name: "whisper-native", Model: "./models/ggml-base.en.bin"},
			Phonetic:   ProviderEntry{Name: "metaphone"},
		},
		Scoring: ScoringConfig{
			OrthographicWeight: 0.6,
			PhoneticWeight:     0.4,
			PassThreshold:      60,
			AccuracyWeight:     0.7,
			FluencyWeight:      0.3,
			FluencyFloorWPS:    0.5,
			FluencyCeilingWPS:  5.0,
			Syllables:          true,
		},
		Telemetry: TelemetryConfig{ServiceName: "enunciate"},
	}
}

// OptString extracts a string value from a provider Options map. Returns ""
// if the key is absent or the value is not a string.
func (e ProviderEntry) OptString(key string) string {
	s, _ := e.Options[key].(string)
	return s
}

// OptInt extracts an integer value from a provider Options map. YAML
// integers decode as int; float values are truncated. Returns 0 if absent.
func (e ProviderEntry) OptInt(key string) int {
	switch v := e.Options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// OptFloat extracts a numeric value from a provider Options map. Returns 0
// if absent or not a number.
func (e ProviderEntry) OptFloat(key string) float64 {
	switch v := e.Options[key].(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
