package app

import (
	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/pkg/provider/g2p"
	"github.com/MrWong99/enunciate/pkg/provider/g2p/lexicon"
	"github.com/MrWong99/enunciate/pkg/provider/g2p/metaphone"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	"github.com/MrWong99/enunciate/pkg/provider/stt/whisper"
)

// RegisterBuiltinProviders registers every provider implementation shipped
// with enunciate on reg.
func RegisterBuiltinProviders(reg *config.Registry) {
	// ── Recognizers ───────────────────────────────────────────────────────────

	reg.RegisterRecognizer("whisper-native", func(entry config.ProviderEntry) (stt.Recognizer, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = entry.OptString("model_path")
		}
		var opts []whisper.NativeOption
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		if n := entry.OptInt("threads"); n > 0 {
			opts = append(opts, whisper.WithNativeThreads(uint(n)))
		}
		if ms := entry.OptInt("silence_threshold_ms"); ms > 0 {
			opts = append(opts, whisper.WithNativeSilenceThresholdMs(ms))
		}
		if ms := entry.OptInt("max_buffer_duration_ms"); ms > 0 {
			opts = append(opts, whisper.WithNativeMaxBufferDurationMs(ms))
		}
		if rms := entry.OptFloat("rms_threshold"); rms > 0 {
			opts = append(opts, whisper.WithNativeRMSThreshold(rms))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterRecognizer("whisper", func(entry config.ProviderEntry) (stt.Recognizer, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if ms := entry.OptInt("silence_threshold_ms"); ms > 0 {
			opts = append(opts, whisper.WithSilenceThresholdMs(ms))
		}
		if ms := entry.OptInt("max_buffer_duration_ms"); ms > 0 {
			opts = append(opts, whisper.WithMaxBufferDurationMs(ms))
		}
		if rms := entry.OptFloat("rms_threshold"); rms > 0 {
			opts = append(opts, whisper.WithRMSThreshold(rms))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	// ── Phonetic transcribers ─────────────────────────────────────────────────

	// lexicon reads a CMUdict-format file. Options.fallback names another
	// registered transcriber for out-of-vocabulary words.
	reg.RegisterTranscriber("lexicon", func(entry config.ProviderEntry, r *config.Registry) (g2p.Transcriber, error) {
		var opts []lexicon.Option
		if name := entry.OptString("fallback"); name != "" {
			fb, err := r.CreateTranscriber(config.ProviderEntry{Name: name})
			if err != nil {
				return nil, err
			}
			opts = append(opts, lexicon.WithFallback(fb))
		}
		return lexicon.New(entry.Model, opts...)
	})

	reg.RegisterTranscriber("metaphone", func(config.ProviderEntry, *config.Registry) (g2p.Transcriber, error) {
		return metaphone.New(), nil
	})
}
