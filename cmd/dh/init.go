package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/config"
)

var (
	initForce   bool
	initExample bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a Deckhand configuration",
	Long: `Create a configuration file (.deckhand.toml) in the current directory.

Use --example to include an example repository and a custom operation.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing configuration")
	initCmd.Flags().BoolVar(&initExample, "example", false, "include example entries")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(cwd, config.ConfigFileName)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
	}

	cfg := config.NewDefaultConfig()

	if initExample {
		cfg.Repositories = []config.Repository{
			{
				Name: "example-repo",
				Path: "example-repo",
				Tags: []string{"example"},
			},
		}
		cfg.Operations = []config.Operation{
			{
				Name: "mirror",
				Phases: []config.Phase{
					{Title: "remote: Counting objects", Weight: 1},
					{Title: "Receiving objects", Weight: 8},
					{Title: "Resolving deltas", Weight: 1},
				},
			},
		}
	}

	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !quiet {
		fmt.Fprintln(out, "Initialized Deckhand configuration:")
		fmt.Fprintf(out, "  Config: %s\n", configPath)
		if initExample {
			fmt.Fprintln(out, "\nExample configuration created. Edit the config file to add your repositories.")
		} else {
			fmt.Fprintln(out, "\nAdd repositories with 'dh add <path> --name <name>', then run 'dh status'.")
		}
	}

	return nil
}
