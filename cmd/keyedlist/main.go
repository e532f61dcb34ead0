package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/keyedlist/internal/config"
	klerrors "github.com/vango-dev/keyedlist/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "keyedlist",
		Short: "Keyed list reconciliation, replayed and streamed",
		Long: `keyedlist drives a keyed list reconciler from a script of list states.

  • replay prints what every state change does to the tree
  • serve streams the same changes to browsers over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		replayCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err in the log format configured in the working
// directory.
func reportError(w io.Writer, err error) {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		klerrors.DisableColors()
	}
	asJSON := false
	if cfg, cerr := config.Load("."); cerr == nil {
		asJSON = cfg.Log.Format == "json"
	}
	klerrors.Report(w, err, asJSON)
}

// newLogger builds the logger described by cfg.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
