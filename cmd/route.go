package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentrelay/relay/internal/cache"
	"github.com/agentrelay/relay/internal/catalog"
	"github.com/agentrelay/relay/internal/config"
	"github.com/agentrelay/relay/internal/embeddings"
	"github.com/agentrelay/relay/internal/router"
)

var (
	flagRouteTopK    int
	flagRouteJSON    bool
	flagRouteRefresh bool
)

var routeCmd = &cobra.Command{
	Use:   "route <query>",
	Short: "Route a free-text request to the best-matching agent",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().IntVarP(&flagRouteTopK, "top-k", "k", 0, "Number of ranked matches to show (default from config)")
	routeCmd.Flags().BoolVar(&flagRouteJSON, "json", false, "Print the decision as JSON")
	routeCmd.Flags().BoolVar(&flagRouteRefresh, "refresh", false, "Skip the bundle cache and re-embed the catalog")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'relay init' first.", err)
	}
	query := strings.Join(args, " ")

	topK := cfg.TopK
	if cmd.Flags().Changed("top-k") {
		topK = flagRouteTopK
	}

	r, err := newRouterFromConfig(cfg, router.Options{
		TopK:         topK,
		RefreshCache: flagRouteRefresh,
		Logger:       appLogger(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := r.Initialize(ctx); err != nil {
		return err
	}
	d, err := r.Route(ctx, query)
	if err != nil {
		return err
	}

	if flagRouteJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	printDecision(query, d, topK)
	return nil
}

func printDecision(query string, d *router.Decision, topK int) {
	fmt.Printf("\nrelay route %q\n\n", query)
	fmt.Printf("→ %s  (confidence %.3f)\n", d.AgentName, d.Confidence)
	if d.Description != "" {
		fmt.Printf("  %s\n", d.Description)
	}

	shown := d.Ranked
	if topK > 0 && len(shown) > topK {
		shown = shown[:topK]
	}
	fmt.Printf("\nRanked matches:\n")
	for i, m := range shown {
		fmt.Printf("  %d. [%.3f] %s\n", i+1, m.Score, m.AgentName)
	}
}

// newRouterFromConfig wires a router from the config file: catalog source,
// embedding engine, and bundle cache client.
func newRouterFromConfig(cfg *config.Config, opts router.Options) (*router.Router, error) {
	src, err := catalogSource(cfg)
	if err != nil {
		return nil, err
	}

	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	prov, err := embeddings.NewFromConfig(embCfg)
	if err != nil {
		return nil, err
	}
	engine := embeddings.NewEngine(prov, cfg.Dims)

	client := cache.NewClient(cfg.CacheURL, cfg.Dims, opts.Logger)
	return router.New(src, engine, client, opts), nil
}

// catalogSource picks the catalog source configured in relay.yaml. A local
// path wins over a URL when both are set.
func catalogSource(cfg *config.Config) (catalog.Source, error) {
	switch {
	case cfg.CatalogPath != "":
		return catalog.FileSource{Path: cfg.CatalogPath}, nil
	case cfg.CatalogURL != "":
		return catalog.HTTPSource{BaseURL: cfg.CatalogURL}, nil
	default:
		return nil, fmt.Errorf("no catalog configured: set catalog_path or catalog_url in relay.yaml")
	}
}
