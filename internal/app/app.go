// Package app wires configuration, providers, the assessment pipeline, and
// the orchestrator into a running engine.
//
// New builds every subsystem from the config; Shutdown waits for
// outstanding workers and releases providers and telemetry in order. Tests
// inject providers with [WithProviders] instead of building them from the
// registry.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/MrWong99/enunciate/internal/assess"
	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/internal/orchestrator"
	"github.com/MrWong99/enunciate/internal/resilience"
	"github.com/MrWong99/enunciate/pkg/audio"
	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Providers holds the two external capabilities of a run.
type Providers struct {
	Recognizer  stt.Recognizer
	Transcriber g2p.Transcriber
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	pipeline     *assess.Pipeline
	orchestrator *orchestrator.Orchestrator
	telemetry    *observe.Telemetry

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithProviders injects providers instead of creating them from the
// registry.
func WithProviders(p *Providers) Option {
	return func(a *App) { a.providers = p }
}

// New builds the engine described by cfg. Providers not injected with
// [WithProviders] are created through reg.
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if cfg.Telemetry.Enabled {
		tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: Version,
		})
		if err != nil {
			return nil, fmt.Errorf("app: init telemetry: %w", err)
		}
		a.telemetry = tel
	}
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("app: create metrics: %w", err)
	}

	if a.providers == nil {
		p, err := buildProviders(cfg, reg)
		if err != nil {
			return nil, err
		}
		a.providers = p
	}
	if c, ok := a.providers.Recognizer.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	resampler, err := audio.NewResampler(cfg.Audio.Resampler)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	normalizer := audio.NewNormalizer(
		audio.WithResampler(resampler),
		audio.WithTempDir(cfg.Audio.TempDir),
	)

	a.pipeline = assess.New(a.providers.Recognizer, a.providers.Transcriber,
		assess.WithNormalizer(normalizer),
		assess.WithScoring(Scoring(cfg.Scoring)),
		assess.WithChunkSamples(cfg.Assessment.ChunkSamples),
		assess.WithLanguage(cfg.Providers.Recognizer.OptString("language")),
		assess.WithMetrics(metrics),
	)
	a.orchestrator = orchestrator.New(a.pipeline,
		orchestrator.WithTimeout(cfg.Assessment.Timeout),
		orchestrator.WithMetrics(metrics),
	)

	slog.Debug("engine ready",
		"recognizer", cfg.Providers.Recognizer.Name,
		"phonetic", cfg.Providers.Phonetic.Name,
		"timeout", cfg.Assessment.Timeout,
		"telemetry", cfg.Telemetry.Enabled,
	)
	return a, nil
}

// buildProviders instantiates the configured recognizer and transcriber.
// When fallbacks are configured each capability is wrapped in a failover
// group with one circuit breaker per backend.
func buildProviders(cfg *config.Config, reg *config.Registry) (*Providers, error) {
	pc := cfg.Providers
	fbCfg := resilience.FallbackConfig{CircuitBreaker: resilience.CircuitBreakerConfig{
		MaxFailures:  pc.CircuitBreaker.MaxFailures,
		ResetTimeout: pc.CircuitBreaker.ResetTimeout,
	}}

	rec, err := reg.CreateRecognizer(pc.Recognizer)
	if err != nil {
		return nil, fmt.Errorf("app: create recognizer: %w", err)
	}
	if len(pc.RecognizerFallbacks) > 0 {
		fb := resilience.NewRecognizerFallback(rec, pc.Recognizer.Name, fbCfg)
		for _, e := range pc.RecognizerFallbacks {
			r, err := reg.CreateRecognizer(e)
			if err != nil {
				_ = fb.Close()
				return nil, fmt.Errorf("app: create fallback recognizer: %w", err)
			}
			fb.AddFallback(e.Name, r)
		}
		rec = fb
	}

	tr, err := reg.CreateTranscriber(pc.Phonetic)
	if err != nil {
		closeRecognizer(rec)
		return nil, fmt.Errorf("app: create phonetic transcriber: %w", err)
	}
	if len(pc.PhoneticFallbacks) > 0 {
		fb := resilience.NewTranscriberFallback(tr, pc.Phonetic.Name, fbCfg)
		for _, e := range pc.PhoneticFallbacks {
			t, err := reg.CreateTranscriber(e)
			if err != nil {
				closeRecognizer(rec)
				return nil, fmt.Errorf("app: create fallback phonetic transcriber: %w", err)
			}
			fb.AddFallback(e.Name, t)
		}
		tr = fb
	}
	return &Providers{Recognizer: rec, Transcriber: tr}, nil
}

func closeRecognizer(r stt.Recognizer) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

// Scoring converts the scoring section of a config.
func Scoring(c config.ScoringConfig) assess.Scoring {
	return assess.Scoring{
		OrthographicWeight: c.OrthographicWeight,
		PhoneticWeight:     c.PhoneticWeight,
		PassThreshold:      c.PassThreshold,
		AccuracyWeight:     c.AccuracyWeight,
		FluencyWeight:      c.FluencyWeight,
		FluencyFloorWPS:    c.FluencyFloorWPS,
		FluencyCeilingWPS:  c.FluencyCeilingWPS,
		Syllables:          c.Syllables,
	}
}

// Assess runs one assessment of the recording at audioPath against
// reference through the orchestrator.
func (a *App) Assess(ctx context.Context, reference, audioPath string) (*types.AssessmentResult, error) {
	return a.orchestrator.Assess(ctx, reference, audioPath)
}

// Phonemes returns the cleaned phonemes of word from the configured
// transcriber, loading its data first if needed.
func (a *App) Phonemes(word string) ([]string, error) {
	tr := a.providers.Transcriber
	if l, ok := tr.(g2p.Loader); ok {
		if err := l.Load(); err != nil {
			return nil, fmt.Errorf("app: %w: %w", assess.ErrPhoneticUnavailable, err)
		}
	}
	p, err := tr.Phonemes(word)
	if err != nil {
		return nil, fmt.Errorf("app: %w: %w", assess.ErrPhoneticUnavailable, err)
	}
	return g2p.Clean(p), nil
}

// Telemetry returns the SDK telemetry handle, or nil when telemetry is
// disabled.
func (a *App) Telemetry() *observe.Telemetry { return a.telemetry }

// Shutdown waits for outstanding assessment workers, bounded by ctx, then
// closes providers and flushes telemetry. It is safe to call more than
// once; later calls return nil.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			a.orchestrator.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			slog.Warn("app: shutdown before assessment workers finished", "err", ctx.Err())
		}

		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.telemetry != nil {
			if err := a.telemetry.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("app: shutdown telemetry: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}
