package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentrelay/relay/internal/config"
	"github.com/agentrelay/relay/internal/embeddings"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that relay's configuration, catalog, embedding provider and cache
store are in working order. Run this when something seems wrong, or
before filing a bug report.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("relay doctor")
	fmt.Println()

	// ── Check 1: relay.yaml exists and parses ─────────────────────────────────
	fmt.Println("[ relay.yaml ]")
	cfgPath, _ := config.ConfigPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		failD("%s not found — run 'relay init' first", cfgPath)
	}
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot parse relay.yaml: %v", loadErr)
	} else {
		printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
		if cfg.Dims <= 0 {
			failD("dims must be positive, got %d", cfg.Dims)
		}
	}
	fmt.Println()

	// ── Check 2: catalog loads and parses ─────────────────────────────────────
	fmt.Println("[ Agent catalog ]")
	if loadErr == nil {
		src, err := catalogSource(cfg)
		if err != nil {
			failD("%v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			cat, err := src.Load(ctx)
			cancel()
			if err != nil {
				failD("cannot load catalog: %v", err)
			} else if len(cat.Agents) == 0 {
				printWarn("", "catalog is empty — routing will fail until agents are added")
			} else {
				printOK("", fmt.Sprintf("%d agent(s) loaded", len(cat.Agents)))
			}
		}
	} else {
		printWarn("", "skipped (relay.yaml not loaded)")
	}
	fmt.Println()

	// ── Check 3: embedding provider configured ────────────────────────────────
	fmt.Println("[ Embedding provider ]")
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		failD("cannot read provider config: %v", err)
	} else if prov, err := embeddings.NewFromConfig(embCfg); err != nil {
		failD("%v\n   Fill in ~/.relay/.env or set RELAY_EMBEDDINGS_* variables.", err)
	} else {
		printOK("", fmt.Sprintf("provider ready: %s", prov.ModelID()))
	}
	fmt.Println()

	// ── Check 4: cache store reachable ────────────────────────────────────────
	fmt.Println("[ Cache store ]")
	if loadErr == nil {
		if err := checkStoreHealth(cfg.CacheURL); err != nil {
			printWarn("", fmt.Sprintf("store not reachable at %s: %v", cfg.CacheURL, err))
			printWarn("", "routing still works, but every run re-embeds the catalog ('relay serve' starts a store)")
		} else {
			printOK("", fmt.Sprintf("store healthy: %s", cfg.CacheURL))
		}
	} else {
		printWarn("", "skipped (relay.yaml not loaded)")
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. Relay is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// checkStoreHealth probes the store's /api/health endpoint.
func checkStoreHealth(baseURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
