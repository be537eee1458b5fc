package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/config"
	"github.com/tierone/deckhand/pkg/sampler"
)

var (
	addName   string
	addTags   []string
	addVerify bool
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add a repository to the configuration",
	Long: `Add a local repository to the Deckhand configuration.

Relative paths are resolved against the directory of the config file.
Use --verify to check that the path is a git repository before adding it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "repository name (required)")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "tags for filtering")
	addCmd.Flags().BoolVar(&addVerify, "verify", false, "check the path is a git repository")

	_ = addCmd.MarkFlagRequired("name") // Safe to ignore - panics caught at startup
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	repo := config.Repository{
		Name: addName,
		Path: args[0],
		Tags: addTags,
	}

	if addVerify {
		path, err := cfg.ResolvePath(&repo)
		if err != nil {
			return err
		}
		if _, err := sampler.New().Sample(context.Background(), path); err != nil {
			return fmt.Errorf("failed to verify %s: %w", path, err)
		}
	}

	if err := cfg.AddRepository(repo); err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added repository: %s\n", repo.Name)
		fmt.Fprintf(out, "  Path: %s\n", repo.Path)
	}

	return nil
}
