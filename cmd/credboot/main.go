package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/cmd/credboot/commands"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// A child process failure carries its own exit code; pass it
		// through so wrappers behave as if they ran the command directly.
		var cmdErr cberrors.CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode != 0 {
			os.Exit(cmdErr.ExitCode)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "credboot",
		Short: "Resolve runtime credentials from every available source",
		Long: `credboot materializes one key/value credential set per run, merging
heterogeneous sources (remote APIs, platform-injected variables, encoded
packets, encrypted files, orchestrator mounts, parent configuration
hierarchies) with deterministic precedence and placeholder stripping.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default credboot.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	rootCmd.AddCommand(
		commands.NewResolveCommand(cfg),
		commands.NewPlanCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewModeCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
