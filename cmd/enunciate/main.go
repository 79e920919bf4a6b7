// Command enunciate scores how closely a spoken recording matches a
// reference text.
//
// Usage:
//
//	enunciate [--config file] <command> [args]
//
// Commands:
//
//	assess     - assess a WAV recording against a reference text
//	phonemes   - print the phonemes the configured transcriber produces
//	normalize  - convert a WAV file to 16 kHz mono 16-bit PCM
//	version    - print the build version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrWong99/enunciate/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "enunciate: %v\n", err)
		return 1
	}
	return 0
}

// newLogger creates an slog.Logger at the configured level, writing text
// to stderr.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
