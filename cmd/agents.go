package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentrelay/relay/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents in the configured catalog",
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'relay init' first.", err)
	}
	src, err := catalogSource(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("cannot load catalog: %w", err)
	}

	fmt.Printf("\nAgents (%d):\n\n", len(cat.Agents))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tDESCRIPTION\tSKILLS")
	for _, a := range cat.Agents {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", a.Name, a.Description, strings.Join(a.Skills, ", "))
	}
	return w.Flush()
}
