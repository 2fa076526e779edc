package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentrelay/relay/internal/config"
	"github.com/agentrelay/relay/internal/router"
)

var flagIndexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the catalog and store the bundle in the cache",
	Long: `Load the catalog, compute its build id, and make sure the embedding
bundle for it exists in the cache store. With --force the cache is
skipped and the catalog is re-embedded unconditionally.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Re-embed even when a cached bundle exists")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'relay init' first.", err)
	}

	r, err := newRouterFromConfig(cfg, router.Options{
		RefreshCache: flagIndexForce,
		Logger:       appLogger(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := r.Initialize(ctx); err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	info := r.Info()
	printSection("relay index")
	printOK("", fmt.Sprintf("%d agent(s) indexed", info.AgentCount))
	if info.CacheHit {
		printSkip("", "bundle already cached, nothing embedded")
	} else {
		printOK("", "bundle embedded and stored")
	}
	printInfo("", fmt.Sprintf("model:       %s", info.ModelID))
	printInfo("", fmt.Sprintf("build id:    %s", info.BuildID))
	printInfo("", fmt.Sprintf("fingerprint: %s", info.Fingerprint))
	return nil
}
