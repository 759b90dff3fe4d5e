package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"logsift/internal/banner"
	"logsift/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	noBanner bool

	// set by the root command before any subcommand runs
	cfg    *config.Config
	logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "LogSift - nginx logs into tables",
	Long: `LogSift collects nginx access and error logs from a remote host over SFTP,
tokenizes every line into a fixed schema and exports one combined table per
log kind, counting every line that does not fit its grammar.`,
	Version:           banner.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", logger.Args("error", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "env file to load (default: .env when present)")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "do not print the banner")
}

func setup(cmd *cobra.Command, args []string) error {
	if !noBanner {
		banner.Print()
	}

	var err error
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger = newLogger(cfg.LogLevel)
	logger.Debug("Configuration loaded",
		logger.Args(
			"access_dir", cfg.LogSources.AccessDir,
			"error_dir", cfg.LogSources.ErrorDir,
			"access_csv", cfg.Export.AccessCSVPath,
			"error_csv", cfg.Export.ErrorCSVPath,
			"sqlite", cfg.Export.SQLitePath,
			"workers", cfg.Performance.WorkerPoolSize,
		))
	return nil
}

// newLogger maps LOG_LEVEL to a pterm level.
// Supported values: trace, debug, info, warn, error, fatal
func newLogger(level string) *pterm.Logger {
	var ptermLevel pterm.LogLevel
	switch strings.ToLower(level) {
	case "trace":
		ptermLevel = pterm.LogLevelTrace
	case "debug":
		ptermLevel = pterm.LogLevelDebug
	case "info":
		ptermLevel = pterm.LogLevelInfo
	case "warn", "warning":
		ptermLevel = pterm.LogLevelWarn
	case "error":
		ptermLevel = pterm.LogLevelError
	case "fatal":
		ptermLevel = pterm.LogLevelFatal
	default:
		ptermLevel = pterm.LogLevelInfo
	}
	return pterm.DefaultLogger.WithLevel(ptermLevel)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
