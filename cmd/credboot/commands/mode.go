package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/mode"
)

// NewModeCommand creates the mode command: print the detected operating
// mode and the signal that produced it.
func NewModeCommand(cfg *config.Config) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Print the detected operating mode",
		Long: `Mode reports whether credboot would run embedded (parent hierarchy
only) or standalone (all sources), and which signal decided it: the
` + mode.EmbeddedOverrideVar + ` override, or a container marker combined with a
coordination endpoint variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := mode.NewDetector(osEnviron{}).Detect()

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Mode   string `json:"mode"`
					Reason string `json:"reason"`
				}{string(decision.Mode), decision.Reason})
			}

			fmt.Printf("%s\n", decision.Mode)
			fmt.Printf("Reason: %s\n", decision.Reason)
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	return cmd
}
