package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/execenv"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/resolve"
)

// NewExecCommand creates the exec command: resolve, then run a child
// process with the resolved set in its environment. Nothing touches disk.
func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		tier          string
		printVars     bool
		allowOverride bool
		workingDir    string
		timeout       time.Duration
		concurrent    bool
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- <command> [args...]",
		Short: "Run a command with resolved credentials in its environment",
		Long: `Exec resolves credentials and injects them into a child process
environment. The command must be separated from credboot flags with '--'.

Examples:
  credboot exec -- npm start
  credboot exec --tier llm -- python agent.py
  credboot exec --print -- docker compose up`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cberrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: credboot exec -- <command> [args...]",
				}
			}

			engine, fc, err := setupPipeline(cfg, tier, resolve.WithConcurrentFetch(concurrent))
			if err != nil {
				return err
			}

			ctx := context.Background()
			res, err := engine.Resolve(ctx, fc)
			if err != nil {
				return err
			}

			executor := execenv.New(cfg.Logger)
			return executor.Exec(ctx, execenv.ExecOptions{
				Command:       args,
				Environment:   res.Values,
				AllowOverride: allowOverride,
				PrintVars:     printVars,
				WorkingDir:    workingDir,
				Timeout:       timeout,
			})
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "Restrict the parent hierarchy to one tier")
	cmd.Flags().BoolVar(&printVars, "print", false, "Print injected variable names (values masked)")
	cmd.Flags().BoolVar(&allowOverride, "allow-override", false, "Keep pre-existing environment values over resolved ones")
	cmd.Flags().StringVar(&workingDir, "cwd", "", "Working directory for the command")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill the command after this duration (0 = no timeout)")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Fetch sources concurrently (same merge order)")

	return cmd
}
