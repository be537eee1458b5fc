package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/progress"
)

var phasesCmd = &cobra.Command{
	Use:   "phases [operation...]",
	Short: "List operations and their weighted phases",
	Long: `List the phases of each known operation with their normalized weights.

Built-in operations can be overridden and new ones added with
[[operation]] sections in the config file.`,
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE:        runPhases,
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}

func runPhases(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = cfg.OperationNames()
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "OPERATION\tPHASE\tWEIGHT")

	for _, name := range names {
		steps, ok := cfg.Steps(name)
		if !ok {
			return fmt.Errorf("unknown operation: %s", name)
		}
		parser, err := progress.NewParser(steps)
		if err != nil {
			return fmt.Errorf("invalid operation %s: %w", name, err)
		}
		for _, s := range parser.Steps() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\n", name, s.Title, s.Weight)
		}
	}

	return w.Flush()
}
