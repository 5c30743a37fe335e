package resolve

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
)

// WriteProvenance writes the human-readable provenance summary: which
// source won each key, with the value preview always masked. Meant for the
// diagnostic stream, never for the dotenv output.
func WriteProvenance(w io.Writer, res *Resolution) error {
	fmt.Fprintf(w, "Resolved %d credential(s) in %s mode (%s)\n",
		len(res.Values), res.Mode, res.ModeReason)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSOURCE\tVALUE")
	for _, entry := range res.Provenance {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Key, entry.Source, logging.Mask(res.Values[entry.Key]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSources attempted:")
	for _, a := range res.Attempts {
		fmt.Fprintf(w, "  - %s: %s\n", a.Provider, a.outcome())
	}
	return nil
}
