package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "relay",
	Short:        "Relay — semantic request router for agent catalogs",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Relay matches free-text requests to the best agent in a catalog using
sentence embeddings, with a content-addressed bundle cache so an
unchanged catalog is never embedded twice.`,
}

var flagVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")
}

// appLogger returns the logger shared by all commands. Warnings and errors
// only, unless --verbose is set.
func appLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
