package progress

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

// lfsLineRegex matches git-lfs progress lines, which have the shape
//
//	<direction> <current>/<total files> <downloaded>/<total bytes> <name>
var lfsLineRegex = regexp.MustCompile(`^(.+?)\s(\d+)/(\d+)\s(\d+)/(\d+)\s(.+)$`)

type lfsLine struct {
	direction       string
	current         int
	totalFiles      int
	downloadedBytes int64
	totalBytes      int64
	name            string
}

// matchLFSLine reports false for lines that do not match, carry numbers that
// do not fit, or have any zero or empty field. Zero is rejected for the file
// counters as well as the byte counters.
func matchLFSLine(line string) (lfsLine, bool) {
	m := lfsLineRegex.FindStringSubmatch(line)
	if len(m) != 7 {
		return lfsLine{}, false
	}

	current, err := strconv.Atoi(m[2])
	if err != nil {
		return lfsLine{}, false
	}
	totalFiles, err := strconv.Atoi(m[3])
	if err != nil {
		return lfsLine{}, false
	}
	downloaded, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return lfsLine{}, false
	}
	total, err := strconv.ParseInt(m[5], 10, 64)
	if err != nil {
		return lfsLine{}, false
	}

	l := lfsLine{
		direction:       m[1],
		current:         current,
		totalFiles:      totalFiles,
		downloadedBytes: downloaded,
		totalBytes:      total,
		name:            m[6],
	}
	if l.direction == "" || l.current == 0 || l.totalFiles == 0 ||
		l.downloadedBytes == 0 || l.totalBytes == 0 || l.name == "" {
		return lfsLine{}, false
	}
	return l, true
}

// ParseLFSLine interprets a single git-lfs progress line on its own.
// Lines that cannot be interpreted produce a Context with zero percent.
func ParseLFSLine(line string) Event {
	l, ok := matchLFSLine(line)
	if !ok {
		return Context{Percent: 0, Text: line}
	}

	total := int(l.totalBytes)
	return Progress{
		Percent: float64(l.downloadedBytes) / float64(l.totalBytes),
		Details: Info{
			Title: fmt.Sprintf("Downloading %s…", l.name),
			Value: int(l.downloadedBytes),
			Total: &total,
			Done:  false,
			Text:  line,
		},
	}
}

type lfsFileProgress struct {
	downloaded int64
	total      int64
}

// LFSParser aggregates git-lfs progress over every file of a transfer. Each
// line updates the byte counts of the file it refers to and the reported
// progress covers all files seen so far.
type LFSParser struct {
	files map[int]lfsFileProgress
	last  Event
}

// NewLFSParser creates an LFSParser for one git-lfs transfer.
func NewLFSParser() *LFSParser {
	return &LFSParser{
		files: make(map[int]lfsFileProgress),
		last:  Context{Percent: 0, Text: "Downloading Git LFS file…"},
	}
}

// Parse implements LineParser. Unrecognized lines repeat the previous event.
func (p *LFSParser) Parse(line string) Event {
	l, ok := matchLFSLine(line)
	if !ok {
		return p.last
	}

	p.files[l.current] = lfsFileProgress{downloaded: l.downloadedBytes, total: l.totalBytes}

	keys := make([]int, 0, len(p.files))
	for k := range p.files {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var downloaded, total int64
	finished := 0
	for _, k := range keys {
		f := p.files[k]
		downloaded += f.downloaded
		total += f.total
		if f.downloaded == f.total {
			finished++
		}
	}

	verb := directionVerb(l.direction)
	sizes := fmt.Sprintf("%s/%s", FormatBytes(downloaded), FormatBytes(total))
	totalInt := int(total)

	p.last = Progress{
		Percent: float64(downloaded) / float64(total),
		Details: Info{
			Title: fmt.Sprintf("%s %q %s…", verb, l.name, sizes),
			Value: int(downloaded),
			Total: &totalInt,
			Done:  false,
			Text:  fmt.Sprintf("%s %d/%d %s", verb, finished, l.totalFiles, sizes),
		},
	}
	return p.last
}

func directionVerb(direction string) string {
	switch direction {
	case "upload":
		return "Uploading"
	case "checkout":
		return "Checking out"
	default:
		return "Downloading"
	}
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with two decimals at most, e.g. "1.5MB".
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	base := 0
	divisor := float64(1)
	for base < len(byteUnits)-1 && float64(bytes) >= divisor*1024 {
		divisor *= 1024
		base++
	}

	value := math.Round(float64(bytes)/divisor*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + byteUnits[base]
}
