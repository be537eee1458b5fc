package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:     "remove <repository>",
	Aliases: []string{"rm"},
	Short:   "Remove a repository from the configuration",
	Long: `Remove a repository from the Deckhand configuration.

Only the configuration entry is removed; the repository itself is left
untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "don't prompt for confirmation")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	if _, ok := cfg.GetRepository(name); !ok {
		return fmt.Errorf("repository not found: %s", name)
	}

	if !removeForce {
		msg := fmt.Sprintf("Remove repository '%s' from configuration?", name)
		if !confirm(cmd.InOrStdin(), out, msg) {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
	}

	if err := cfg.RemoveRepository(name); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if !quiet {
		fmt.Fprintf(out, "Removed repository: %s\n", name)
	}

	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "%s [y/N]: ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
