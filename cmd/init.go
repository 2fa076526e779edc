package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentrelay/relay/internal/config"
)

// sampleCatalog is written on first relay init so routing works out of the box.
const sampleCatalog = `{
  "agents": [
    {
      "name": "search",
      "description": "Finds products, documents and web pages",
      "skills": ["lookup", "retrieval"]
    },
    {
      "name": "translate",
      "description": "Translates text between languages",
      "skills": ["i18n", "localization"]
    }
  ]
}
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the relay configuration directory",
	Long: `Initialize ~/.relay/ with a default relay.yaml, a credentials template
(.env) and a sample agent catalog. Existing files are never overwritten.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	dir, err := config.RelayDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("relay directory ready: %s", dir))

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("config already exists: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("credentials template ready: %s", envPath))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("cannot create data dir %s: %w", cfg.DataDir, err)
	}
	printOK("", fmt.Sprintf("data directory ready: %s", cfg.DataDir))

	if cfg.CatalogPath != "" {
		if _, err := os.Stat(cfg.CatalogPath); os.IsNotExist(err) {
			if err := os.WriteFile(cfg.CatalogPath, []byte(sampleCatalog), 0o644); err != nil {
				return fmt.Errorf("cannot write sample catalog: %w", err)
			}
			printOK("", fmt.Sprintf("sample catalog written: %s", cfg.CatalogPath))
		} else {
			printSkip("", fmt.Sprintf("catalog already exists: %s", cfg.CatalogPath))
		}
	}

	fmt.Println("\n✓  relay init complete. Fill in ~/.relay/.env, then run 'relay doctor' to verify.")
	return nil
}
