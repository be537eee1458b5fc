package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/config"
	"github.com/tierone/deckhand/pkg/logging"
)

// annotationConfigOptional marks commands that fall back to the default
// configuration when no config file exists.
const annotationConfigOptional = "config-optional"

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	quiet     bool
	noColor   bool

	// Loaded config and logger
	cfg    *config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dh",
	Short: "Deckhand - git progress and working directory state tool",
	Long: `Deckhand turns git's progress output into a single completion percentage
and keeps the changed-file list and merge/rebase conflict state of your
repositories up to date.

Use 'dh init' to create a configuration, 'dh status' to inspect your
repositories and 'dh watch' to follow them as they change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		// Skip config loading for init command
		if cmd.Name() == "init" || cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if err := loadConfig(cmd.Annotations[annotationConfigOptional] == "true"); err != nil {
			return err
		}

		return setupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func loadConfig(optional bool) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	}

	cfgPath, findErr := config.FindConfigFile()
	if findErr != nil {
		if optional {
			cfg = config.NewDefaultConfig()
			return nil
		}
		return fmt.Errorf("no config file found: %w\nRun 'dh init' to create one", findErr)
	}

	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

func setupLogger() error {
	level := cfg.General.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	format := cfg.General.LogFormat
	if logFormat != "" {
		format = logFormat
	}

	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logger, err = logging.New(os.Stderr, format, lvl)
	return err
}

// isInteractive reports whether progress should be drawn with the full
// terminal UI.
func isInteractive() bool {
	if quiet {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// errFailures is returned when a command completed but some of its work
// items failed.
var errFailures = errors.New("one or more operations failed")

func Execute() error {
	return rootCmd.Execute()
}
