package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
)

// NewPlanCommand creates the plan command: show which providers would run
// for the detected mode, without fetching any values.
func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var (
		tier       string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which sources would be consulted (no values fetched)",
		Long: `Plan detects the operating mode and lists the provider chain that a
resolve run would invoke, in invocation order. Useful for verifying that
embedded mode restricts resolution to the parent hierarchy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, fc, err := setupPipeline(cfg, tier)
			if err != nil {
				return err
			}

			decision := engine.Mode()
			chain := engine.Providers(decision.Mode)

			if outputJSON {
				type plannedProvider struct {
					Position int    `json:"position"`
					Provider string `json:"provider"`
					Source   string `json:"source"`
				}
				out := struct {
					Mode      string            `json:"mode"`
					Reason    string            `json:"reason"`
					Tier      string            `json:"tier,omitempty"`
					Providers []plannedProvider `json:"providers"`
				}{Mode: string(decision.Mode), Reason: decision.Reason, Tier: fc.Tier}
				for i, p := range chain {
					out.Providers = append(out.Providers, plannedProvider{
						Position: i + 1,
						Provider: p.Name(),
						Source:   string(p.Source()),
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("Mode: %s (%s)\n", decision.Mode, decision.Reason)
			if fc.Tier != "" {
				fmt.Printf("Tier: %s\n", fc.Tier)
			}
			fmt.Println()

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tPROVIDER\tSOURCE")
			for i, p := range chain {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, p.Name(), p.Source())
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Println("\nLater providers override earlier ones for the same key.")
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Restrict the parent hierarchy to one tier")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	return cmd
}
