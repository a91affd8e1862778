package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/config"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags of every command.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

// newRootCommand creates the oxyxr root command.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "oxyxr",
		Short: "oxyxr - stereo command runtime",
		Long: `oxyxr records graphics commands per XR session into stereo frames on a producer
goroutine and executes them on a render goroutine, skipping sessions outside the
viewer's frustum.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(newSimulateCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

// loadConfig reads the --config file, or returns the defaults when none is given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.ConfigPath)
}

// setupLogging installs a text logger on w at the --log-level override or the config's level.
func (o *rootOptions) setupLogging(w io.Writer, cfg *config.Config) error {
	level := cfg.Level()
	if o.LogLevel != "" {
		l, ok := common.ParseLogLevel(o.LogLevel)
		if !ok {
			return fmt.Errorf("invalid log level %q", o.LogLevel)
		}
		level = l
	}
	common.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}
