package progress

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// ScanLines is a split function for bufio.Scanner that handles git's progress
// output. Git redraws progress lines with \r, so lines end at \r or \n.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// Feed reads r line by line and passes each non-empty line to p, handing the
// resulting event to fn. Lines are processed strictly in the order read.
func Feed(ctx context.Context, r io.Reader, p LineParser, fn func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(ScanLines)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		fn(p.Parse(line))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read progress output: %w", err)
	}
	return nil
}
