// Package progress turns the line-oriented stderr output of long-running git
// and git-lfs processes into a single completion fraction suitable for a
// progress bar.
package progress

// Event is the result of feeding one output line to a parser. It is either a
// Progress (the line matched a known step) or a Context (anything else).
type Event interface {
	// Percentage returns the overall completion fraction between 0 and 1.
	Percentage() float64

	isEvent()
}

// Progress is emitted when a line was recognized as belonging to one of the
// parser's steps.
type Progress struct {
	Percent float64
	Details Info
}

// Context is emitted for lines that could not be interpreted, or that belong
// to a step the parser has already moved past. Percent carries the last known
// value forward unchanged.
type Context struct {
	Percent float64
	Text    string
}

// Percentage implements Event.
func (p Progress) Percentage() float64 { return p.Percent }

// Percentage implements Event.
func (c Context) Percentage() float64 { return c.Percent }

func (Progress) isEvent() {}
func (Context) isEvent()  {}

// Info is the structured form of a single git progress line.
//
// Total and Percent are nil when git only reports a running counter, such as
// "remote: Counting objects: 167587".
type Info struct {
	Title   string
	Value   int
	Total   *int
	Percent *int
	Done    bool
	Text    string
}

// Fraction returns Value/Total, or false when no total is known.
func (i Info) Fraction() (float64, bool) {
	if i.Total == nil || *i.Total == 0 {
		return 0, false
	}
	return float64(i.Value) / float64(*i.Total), true
}
