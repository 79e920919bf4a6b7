// Package assess implements the pronunciation assessment pipeline: audio
// normalization, recognition, tokenization, phonetic transcription,
// alignment, word scoring, and aggregation.
//
// A [Pipeline] is stateless between runs. Each call to [Pipeline.Run] owns
// its intermediate data, including a fresh phoneme cache, and returns a
// result the caller owns.
package assess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/pkg/audio"
	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithNormalizer sets the audio normalizer. Defaults to
// audio.NewNormalizer().
func WithNormalizer(n *audio.Normalizer) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.norm = n
		}
	}
}

// WithScoring overrides the scoring constants. Defaults to
// [DefaultScoring].
func WithScoring(s Scoring) Option {
	return func(p *Pipeline) { p.scoring = s }
}

// WithChunkSamples sets how many samples are pushed to the recognizer at a
// time. Non-positive values are ignored.
func WithChunkSamples(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSamples = n
		}
	}
}

// WithLanguage sets the BCP-47 language passed to recognizer sessions.
func WithLanguage(lang string) Option {
	return func(p *Pipeline) { p.language = lang }
}

// WithMetrics sets the metrics instance. Defaults to
// observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// Pipeline runs one assessment end to end. It is safe for concurrent use
// provided its recognizer and transcriber are.
type Pipeline struct {
	rec     stt.Recognizer
	tr      g2p.Transcriber
	norm    *audio.Normalizer
	scoring Scoring
	metrics *observe.Metrics

	chunkSamples int
	language     string
}

// New returns a Pipeline that recognizes speech with rec and transcribes
// words with tr.
func New(rec stt.Recognizer, tr g2p.Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		rec:          rec,
		tr:           tr,
		norm:         audio.NewNormalizer(),
		scoring:      DefaultScoring(),
		chunkSamples: DefaultChunkSamples,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Run assesses the recording at audioPath against reference. The audio leg
// (normalize, recognize) and the text leg (tokenize, reference phonemes)
// run concurrently; alignment, scoring, and aggregation follow. The
// normalized temporary file is removed on every path.
//
// Errors wrap [ErrAudioFormat], [ErrRecognizerUnavailable], or
// [ErrPhoneticUnavailable], or are the context's error. No partial result
// is returned alongside an error.
func (p *Pipeline) Run(ctx context.Context, reference, audioPath string) (*types.AssessmentResult, error) {
	ctx, span := observe.StartSpan(ctx, "assess.run")
	defer span.End()

	memo := newPhonemeMemo(p.tr)

	var (
		recognized []types.RecognizedToken
		refTokens  []types.ReferenceToken
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recognized, err = p.listen(gctx, audioPath)
		return err
	})
	g.Go(func() error {
		var err error
		refTokens, err = p.prepareReference(gctx, reference, memo)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var ops []Opcode
	_ = p.stage(ctx, observe.StageAlign, func(context.Context) error {
		refTexts := make([]string, len(refTokens))
		for i, t := range refTokens {
			refTexts[i] = t.Text
		}
		recTexts := make([]string, len(recognized))
		for i, t := range recognized {
			recTexts[i] = t.Text
		}
		ops = Align(refTexts, recTexts)
		return nil
	})

	var words []types.WordAssessment
	if err := p.stage(ctx, observe.StageScore, func(context.Context) error {
		var err error
		words, err = Score(ops, refTokens, recognized, memo, p.scoring)
		return err
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var result *types.AssessmentResult
	_ = p.stage(ctx, observe.StageAggregate, func(context.Context) error {
		result = Aggregate(words, recognized, p.scoring)
		return nil
	})

	span.SetAttributes(
		attribute.Int("assess.reference_words", len(refTokens)),
		attribute.Int("assess.recognized_words", len(recognized)),
		attribute.Float64("assess.pronunciation", result.Pronunciation),
	)
	observe.Logger(ctx).Debug("assessment scored",
		"reference_words", len(refTokens),
		"recognized_words", len(recognized),
		"accuracy", result.Accuracy,
		"fluency", result.Fluency,
		"pronunciation", result.Pronunciation,
	)
	return result, nil
}

// listen normalizes the recording and runs it through the recognizer.
func (p *Pipeline) listen(ctx context.Context, audioPath string) ([]types.RecognizedToken, error) {
	var file *audio.NormalizedFile
	if err := p.stage(ctx, observe.StageNormalize, func(context.Context) error {
		var err error
		file, err = p.norm.Normalize(audioPath)
		if err != nil {
			return normalizeError(audioPath, err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			observe.Logger(ctx).Warn("assess: remove normalized audio", "path", file.Path, "err", err)
		}
	}()

	var words []types.RecognizedToken
	err := p.stage(ctx, observe.StageRecognize, func(ctx context.Context) error {
		raw, err := recognize(ctx, p.rec, file.Path, p.chunkSamples, p.language)
		if err != nil {
			return err
		}
		words = normalizeRecognized(raw)
		return nil
	})
	return words, err
}

// normalizeError classifies a normalizer failure. Unreadable or malformed
// recordings wrap ErrAudioFormat; other I/O failures are returned as is.
func normalizeError(path string, err error) error {
	if errors.Is(err, audio.ErrInvalidWAV) || errors.Is(err, audio.ErrUnsupportedFormat) ||
		errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("assess: normalize %q: %w: %w", path, ErrAudioFormat, err)
	}
	return fmt.Errorf("assess: normalize %q: %w", path, err)
}

// prepareReference tokenizes reference and transcribes every token.
func (p *Pipeline) prepareReference(ctx context.Context, reference string, memo *phonemeMemo) ([]types.ReferenceToken, error) {
	var words []string
	_ = p.stage(ctx, observe.StageTokenize, func(context.Context) error {
		words = Tokenize(reference)
		return nil
	})

	tokens := make([]types.ReferenceToken, len(words))
	err := p.stage(ctx, observe.StagePhonemes, func(ctx context.Context) error {
		if err := memo.load(); err != nil {
			return err
		}
		for i, w := range words {
			if err := ctx.Err(); err != nil {
				return err
			}
			ph, err := memo.Phonemes(w)
			if err != nil {
				return err
			}
			tokens[i] = types.ReferenceToken{Text: w, Phonemes: ph}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// stage runs fn inside a span named after the stage and records its
// duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observe.StartSpan(ctx, "assess."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.RecordStage(ctx, name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
