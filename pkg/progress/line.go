package progress

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	percentRegex   = regexp.MustCompile(`^(\d{1,3})% \((\d+)/(\d+)\)$`)
	valueOnlyRegex = regexp.MustCompile(`^\d+$`)
)

// ParseLine attempts to parse a single line of git progress output.
//
// Git formats progress as "<title>: <value>" for counters without a known
// total and "<title>: <percent>% (<value>/<total>)" otherwise, optionally
// followed by throughput and a final ", done." marker. Some examples:
//
//	remote: Counting objects: 167587, done.
//	Receiving objects:  99% (166741/167587), 272.10 MiB | 2.39 MiB/s
//	Checking out files: 100% (728/728), done.
//
// The title is everything before the last ": " so that titles prefixed with
// "remote: " are kept whole. ParseLine returns nil when the line is not a
// progress line.
func ParseLine(line string) *Info {
	titleLength := strings.LastIndex(line, ": ")
	if titleLength <= 0 {
		return nil
	}
	if titleLength+2 >= len(line) {
		return nil
	}

	title := line[:titleLength]
	progressText := strings.TrimSpace(line[titleLength+2:])
	if progressText == "" {
		return nil
	}

	parts := strings.Split(progressText, ", ")

	info := &Info{
		Title: title,
		Text:  line,
	}

	if valueOnlyRegex.MatchString(parts[0]) {
		value, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil
		}
		info.Value = value
	} else {
		matches := percentRegex.FindStringSubmatch(parts[0])
		if len(matches) != 4 {
			return nil
		}

		percent, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil
		}
		value, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil
		}
		total, err := strconv.Atoi(matches[3])
		if err != nil {
			return nil
		}

		info.Value = value
		info.Total = &total
		info.Percent = &percent
	}

	// Throughput is not interpreted, only the trailing marker matters.
	for _, part := range parts[1:] {
		if part == "done." {
			info.Done = true
			break
		}
	}

	return info
}
