// Package cmd implements the oneshot CLI using cobra.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/config"
	"github.com/ksfoundation/oneshot/internal/dependency"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

const version = "0.1.0"

// logLevelAnnotation overrides the default log level of a command.
const logLevelAnnotation = "oneshot/log-level"

var (
	configFile string
	logJSON    bool
	logLevel   string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:          "oneshot",
	Short:        cmdutils.Logo + " oneshot: one prompt, one model turn, the right tools",
	Long:         cmdutils.Logo + " oneshot routes a single prompt to a model, runs the tools it asks for, and returns one answer",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := logLevel
		if level == "" {
			level = cmd.Annotations[logLevelAnnotation]
		}
		return setupLogging(cmd.ErrOrStderr(), level)
	},
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ~/.oneshot/config.json, or $ONESHOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cronCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(appsCmd)
}

func setupLogging(w io.Writer, level string) error {
	if level == "" {
		level = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if logJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newContainer(cfg *config.Config) (*dependency.Container, error) {
	return dependency.New(cfg, version)
}
