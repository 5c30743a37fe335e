package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
)

// NewDoctorCommand creates the doctor command: probe every provider in the
// detected mode's chain and report what each would contribute.
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var (
		tier    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose credential sources",
		Long: `Doctor runs each provider the current mode would consult and reports
whether it is applicable, how many candidates it would contribute, and a
remediation hint for anything failing. No values are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, fc, err := setupPipeline(cfg, tier)
			if err != nil {
				return err
			}

			decision := engine.Mode()
			fmt.Printf("Mode: %s (%s)\n\n", decision.Mode, decision.Reason)

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tSTATUS\tDETAIL")

			healthy := true
			for _, p := range engine.Providers(decision.Mode) {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				result, fetchErr := p.Fetch(ctx, fc)
				cancel()

				switch {
				case fetchErr != nil:
					healthy = false
					fmt.Fprintf(tw, "%s\t✗ error\t%v\n", p.Name(), fetchErr)
				case len(result.Candidates) == 0:
					detail := result.Note
					if detail == "" {
						detail = "nothing to contribute"
					}
					fmt.Fprintf(tw, "%s\t- empty\t%s\n", p.Name(), detail)
				default:
					fmt.Fprintf(tw, "%s\t✓ ok\t%d candidate(s)\n", p.Name(), len(result.Candidates))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !healthy {
				return cberrors.UserError{
					Message:    "One or more providers reported errors",
					Suggestion: "See the per-provider detail above; failing providers are skipped with a warning during resolve",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Restrict the parent hierarchy to one tier")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-provider probe timeout")

	return cmd
}
