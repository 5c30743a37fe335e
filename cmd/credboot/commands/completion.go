package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
)

// NewCompletionCommand creates the completion command for generating shell
// completions.
func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for credboot.

To load completions:

Bash:
  $ source <(credboot completion bash)

  # To load completions for each session, execute once:
  $ credboot completion bash > /etc/bash_completion.d/credboot

Zsh:
  $ credboot completion zsh > "${fpath[1]}/_credboot"

Fish:
  $ credboot completion fish | source

PowerShell:
  PS> credboot completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
