package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/progress"
	"github.com/tierone/deckhand/pkg/types"
	"github.com/tierone/deckhand/pkg/ui"
)

var (
	progressOp  string
	progressLFS bool
	progressRaw bool
)

var progressCmd = &cobra.Command{
	Use:   "progress [file...]",
	Short: "Replay captured git progress output",
	Long: `Replay the stderr output of git or git-lfs through the progress parser
and show the overall completion of each stream.

Each file is parsed independently and concurrently. Without arguments, or
with "-", standard input is read. Use --op to choose the operation whose
phases weigh the output (see 'dh phases'), or --lfs for git-lfs transfer
output. --raw prints one line per event instead of progress bars.`,
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE:        runProgress,
}

func init() {
	progressCmd.Flags().StringVarP(&progressOp, "op", "o", progress.OpClone, "operation whose phases weigh the output")
	progressCmd.Flags().BoolVar(&progressLFS, "lfs", false, "parse git-lfs transfer output")
	progressCmd.Flags().BoolVar(&progressRaw, "raw", false, "print every event")
	rootCmd.AddCommand(progressCmd)
}

func newLineParser() (progress.LineParser, error) {
	if progressLFS {
		return progress.NewLFSParser(), nil
	}

	steps, ok := cfg.Steps(progressOp)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s (see 'dh phases')", progressOp)
	}
	parser, err := progress.NewParser(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser for %s: %w", progressOp, err)
	}
	return parser, nil
}

func runProgress(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	// Fail on a bad operation before any input is consumed.
	if _, err := newLineParser(); err != nil {
		return err
	}

	operation := progressOp
	if progressLFS {
		operation = "lfs"
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if progressRaw {
		return replayRaw(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), args)
	}

	start := time.Now()
	var out io.Writer = cmd.OutOrStdout()
	if quiet {
		out = io.Discard
	}
	uiMgr := ui.NewProgressManager("Deckhand Progress", isInteractive(), out)
	if err := uiMgr.Start(); err != nil {
		return fmt.Errorf("failed to start UI: %w", err)
	}

	var wg sync.WaitGroup
	for _, arg := range args {
		wg.Add(1)
		go func(arg string) {
			defer wg.Done()

			name := streamName(arg)
			result := replayStream(ctx, arg, cmd.InOrStdin(), func(ev progress.Event) {
				uiMgr.SendEvent(name, operation, ev)
			})
			result.Name = name

			if result.Error != nil {
				uiMgr.SendProgress(types.NewErrorMsg(name, operation, result.Error))
			} else {
				uiMgr.SendProgress(types.NewCompletedMsg(name, operation, fmt.Sprintf("%d events, %.0f%%", result.Events, result.Percent*100)))
			}
			uiMgr.SendResult(result)
		}(arg)
	}
	wg.Wait()

	uiMgr.Complete()
	summary := uiMgr.Wait(time.Since(start))

	logger.Debug("progress replay finished", "streams", summary.Total, "failed", summary.FailureCount, "duration", summary.Duration)

	if summary.HasFailures() {
		for _, r := range summary.FailedResults() {
			logger.Error("stream failed", "name", r.Name, "error", r.Error)
		}
		return fmt.Errorf("%d of %d streams failed: %w", summary.FailureCount, summary.Total, errFailures)
	}
	return nil
}

// replayStream parses one input with a fresh parser.
func replayStream(ctx context.Context, arg string, stdin io.Reader, fn func(progress.Event)) types.OperationResult {
	start := time.Now()
	result := types.OperationResult{}

	r, closeFn, err := openInput(arg, stdin)
	if err != nil {
		result.Error = err
		return result
	}
	defer closeFn()

	parser, err := newLineParser()
	if err != nil {
		result.Error = err
		return result
	}

	err = progress.Feed(ctx, r, parser, func(ev progress.Event) {
		result.Events++
		result.Percent = ev.Percentage()
		fn(ev)
	})
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("failed to read %s: %w", streamName(arg), err)
		return result
	}

	result.Success = true
	return result
}

func replayRaw(ctx context.Context, out io.Writer, stdin io.Reader, args []string) error {
	for _, arg := range args {
		name := streamName(arg)
		result := replayStream(ctx, arg, stdin, func(ev progress.Event) {
			fmt.Fprintln(out, formatEvent(name, ev))
		})
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// formatEvent renders an event as tab-separated fields:
// name, percent, kind, then title and value/total for progress events or the
// raw text for context events.
func formatEvent(name string, ev progress.Event) string {
	switch ev := ev.(type) {
	case progress.Progress:
		total := "-"
		if ev.Details.Total != nil {
			total = fmt.Sprint(*ev.Details.Total)
		}
		return fmt.Sprintf("%s\t%.4f\tprogress\t%s\t%d/%s", name, ev.Percent, ev.Details.Title, ev.Details.Value, total)
	case progress.Context:
		return fmt.Sprintf("%s\t%.4f\tcontext\t%s", name, ev.Percent, ev.Text)
	default:
		return fmt.Sprintf("%s\t%.4f", name, ev.Percentage())
	}
}

func openInput(arg string, stdin io.Reader) (io.Reader, func(), error) {
	if arg == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", arg, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func streamName(arg string) string {
	if arg == "-" {
		return "stdin"
	}
	return filepath.Base(arg)
}
