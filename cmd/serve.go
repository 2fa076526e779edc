package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentrelay/relay/internal/cache"
	"github.com/agentrelay/relay/internal/config"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the embedding bundle store",
	Long: `Serve the content-addressed bundle store over HTTP:

  GET  /embeddings/{build_id}   fetch a cached bundle
  PUT  /embeddings/{build_id}   store a bundle
  GET  /api/agents              the configured agent catalog
  GET  /api/health              liveness probe

Bundles are kept as files under the configured data directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (overrides listen_addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'relay init' first.", err)
	}
	addr := cfg.ListenAddr
	if cmd.Flags().Changed("addr") {
		addr = flagServeAddr
	}
	log := appLogger()

	store, err := cache.NewFileStore(filepath.Join(cfg.DataDir, "embeddings"))
	if err != nil {
		return fmt.Errorf("cannot open bundle store: %w", err)
	}
	handler := cache.NewHandler(cache.HandlerConfig{
		Store:        store,
		ExpectedDims: cfg.Dims,
		AgentsPath:   cfg.CatalogPath,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		printInfo("", fmt.Sprintf("bundle store listening on %s (data dir %s)", addr, cfg.DataDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	printInfo("", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
