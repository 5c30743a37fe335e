package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/emit"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/resolve"
)

// NewResolveCommand creates the main resolve command: run the pipeline and
// emit the resolved set.
func NewResolveCommand(cfg *config.Config) *cobra.Command {
	var (
		tier       string
		outputPath string
		format     string
		concurrent bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve credentials and emit a dotenv stream",
		Long: `Resolve detects the operating mode, queries every applicable source in
fixed priority order, merges with last-wins precedence, strips placeholder
and empty sensitive values, and emits the result.

The dotenv stream goes to stdout (or --out); the provenance summary with
masked values goes to stderr.

Examples:
  credboot resolve
  credboot resolve --tier llm
  credboot resolve --out .env --format dotenv
  credboot resolve --out creds.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, fc, err := setupPipeline(cfg, tier, resolve.WithConcurrentFetch(concurrent))
			if err != nil {
				return err
			}

			res, err := engine.Resolve(context.Background(), fc)
			if err != nil {
				return err
			}

			if !quiet {
				if err := resolve.WriteProvenance(os.Stderr, res); err != nil {
					return err
				}
			}

			renderer := emit.New(cfg.Logger)
			return renderer.Render(res.Values, emit.Options{
				Format:     format,
				OutputPath: outputPath,
			})
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Restrict the parent hierarchy to one tier")
	cmd.Flags().StringVar(&outputPath, "out", "", "Write to a file (0600) instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Output format (dotenv|json|yaml, auto-detected from --out extension)")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Fetch sources concurrently (same merge order)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress the provenance summary")

	return cmd
}
