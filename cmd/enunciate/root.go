package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/app"
	"github.com/MrWong99/enunciate/internal/config"
)

// shutdownTimeout bounds the wait for outstanding workers on exit.
const shutdownTimeout = 5 * time.Second

// cli carries state shared by all commands of one invocation.
type cli struct {
	configPath string
	cfg        *config.Config

	// appOpts are passed to app.New. Tests inject providers here.
	appOpts []app.Option
}

func newRootCmd(opts ...app.Option) *cobra.Command {
	c := &cli{appOpts: opts}
	root := &cobra.Command{
		Use:           "enunciate",
		Short:         "Pronunciation assessment for recorded speech",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig()
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to the YAML configuration file (defaults apply when empty)")

	root.AddCommand(
		c.newAssessCmd(),
		c.newPhonemesCmd(),
		c.newNormalizeCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file, or validates the defaults when none is
// given, and installs the configured logger.
func (c *cli) loadConfig() error {
	if c.configPath == "" {
		c.cfg = config.Defaults()
		if err := config.Validate(c.cfg); err != nil {
			return err
		}
	} else {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file %q not found", c.configPath)
			}
			return err
		}
		c.cfg = cfg
	}
	slog.SetDefault(newLogger(c.cfg.LogLevel))
	return nil
}

// startApp builds the engine from the loaded config. The returned stop
// function waits for outstanding workers and releases providers.
func (c *cli) startApp(ctx context.Context) (*app.App, func(), error) {
	reg := config.NewRegistry()
	app.RegisterBuiltinProviders(reg)

	a, err := app.New(ctx, c.cfg, reg, c.appOpts...)
	if err != nil {
		return nil, nil, err
	}
	stop := func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(sctx); err != nil {
			slog.Warn("shutdown error", "err", err)
		}
	}
	return a, stop, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "enunciate %s\n", app.Version)
		},
	}
}
