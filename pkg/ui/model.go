package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tierone/deckhand/pkg/types"
)

// operationState tracks the state of a single progress stream.
type operationState struct {
	name      string
	operation string
	state     types.OperationState
	percent   float64
	title     string
	text      string
	err       error
	startedAt time.Time
	endedAt   *time.Time
}

func (o *operationState) isComplete() bool {
	return o.state == types.StateComplete || o.state == types.StateFailed
}

func (o *operationState) duration() time.Duration {
	if o.endedAt != nil {
		return o.endedAt.Sub(o.startedAt)
	}
	return time.Since(o.startedAt)
}

// apply folds msg into the operation. The percentage never decreases while
// the operation is running.
func (o *operationState) apply(msg types.ProgressMsg) {
	o.state = msg.State
	if msg.Operation != "" {
		o.operation = msg.Operation
	}
	if msg.Percent > o.percent || msg.IsComplete() {
		o.percent = msg.Percent
	}
	if msg.Title != "" {
		o.title = msg.Title
	}
	if msg.Text != "" {
		o.text = msg.Text
	}
	o.err = msg.Error
	if msg.CompletedAt != nil {
		o.endedAt = msg.CompletedAt
	}
}

// Model is the Bubbletea model for the progress UI.
type Model struct {
	title      string
	operations map[string]*operationState
	order      []string // Maintains insertion order
	spinner    spinner.Model
	progress   progress.Model
	width      int
	quitting   bool
	done       bool
}

// NewModel creates a new UI model with the given header.
func NewModel(title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)

	return Model{
		title:      title,
		operations: make(map[string]*operationState),
		order:      []string{},
		spinner:    s,
		progress:   p,
		width:      80,
	}
}

// ProgressMsg is sent to update operation progress.
type ProgressMsg types.ProgressMsg

// CompleteMsg signals that all operations are complete.
type CompleteMsg struct{}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 50
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.updateOperation(types.ProgressMsg(msg))
		return m, nil

	case CompleteMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateOperation(msg types.ProgressMsg) {
	op, exists := m.operations[msg.Name]
	if !exists {
		op = &operationState{
			name:      msg.Name,
			startedAt: msg.StartedAt,
		}
		m.operations[msg.Name] = op
		m.order = append(m.order, msg.Name)
	}
	op.apply(msg)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString("\n\n")

	for _, name := range m.order {
		b.WriteString(m.renderOperation(m.operations[name]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(renderSummary(m.operations))
	} else {
		b.WriteString(MutedStyle.Render("Press q to quit"))
	}

	return b.String()
}

func (m *Model) renderOperation(op *operationState) string {
	var b strings.Builder

	b.WriteString(m.getSymbol(op))
	b.WriteString(" ")
	b.WriteString(NameStyle.Render(truncate(op.name, 28)))
	b.WriteString(" ")

	if op.isComplete() {
		if op.err != nil {
			b.WriteString(ErrorStyle.Render(op.err.Error()))
		} else {
			b.WriteString(SuccessStyle.Render(op.text))
		}
		b.WriteString(" ")
		b.WriteString(MutedStyle.Render(fmt.Sprintf("(%s)", op.duration().Round(time.Millisecond))))
		return b.String()
	}

	b.WriteString(m.progress.ViewAs(op.percent))
	if op.title != "" {
		b.WriteString(" ")
		b.WriteString(TitleColor(op.title).Render(op.title))
	} else if op.text != "" {
		b.WriteString(" ")
		b.WriteString(MutedStyle.Render(truncate(op.text, 40)))
	}

	return b.String()
}

func (m *Model) getSymbol(op *operationState) string {
	if op.isComplete() {
		if op.err != nil {
			return SymbolError
		}
		return SymbolSuccess
	}
	return m.spinner.View()
}

func renderSummary(ops map[string]*operationState) string {
	var success, failed int
	for _, op := range ops {
		if op.err != nil {
			failed++
		} else if op.state == types.StateComplete {
			success++
		}
	}

	var b strings.Builder
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	if failed == 0 {
		b.WriteString(SummarySuccessStyle.Render(
			fmt.Sprintf("✓ All %d operations completed", success),
		))
	} else {
		b.WriteString(SummarySuccessStyle.Render(fmt.Sprintf("✓ %d completed", success)))
		b.WriteString("  ")
		b.WriteString(SummaryErrorStyle.Render(fmt.Sprintf("✗ %d failed", failed)))
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// Run starts the Bubbletea program and returns the final model.
func Run(m Model) (Model, error) {
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return m, err
	}
	return finalModel.(Model), nil
}

// SimpleOutput prints progress as plain lines for non-interactive output.
// A line is printed whenever an operation's title changes, its percentage
// crosses another tenth, or it completes.
type SimpleOutput struct {
	w          io.Writer
	operations map[string]*operationState
	order      []string
	printed    map[string]int
}

// NewSimpleOutput creates a simple non-interactive output writing to w.
func NewSimpleOutput(w io.Writer) *SimpleOutput {
	return &SimpleOutput{
		w:          w,
		operations: make(map[string]*operationState),
		printed:    make(map[string]int),
	}
}

// Update updates the output with a progress message.
func (s *SimpleOutput) Update(msg types.ProgressMsg) {
	op, exists := s.operations[msg.Name]
	if !exists {
		op = &operationState{
			name:      msg.Name,
			startedAt: msg.StartedAt,
		}
		s.operations[msg.Name] = op
		s.order = append(s.order, msg.Name)
		s.printed[msg.Name] = -1
	}

	prevTitle := op.title
	op.apply(msg)

	decile := int(op.percent * 10)
	if prevTitle != op.title || decile > s.printed[msg.Name] || op.isComplete() {
		s.printed[msg.Name] = decile
		s.print(op)
	}
}

func (s *SimpleOutput) print(op *operationState) {
	symbol := "●"
	style := lipgloss.NewStyle()

	switch op.state {
	case types.StateComplete:
		symbol = "✓"
		style = SuccessStyle
	case types.StateFailed:
		symbol = "✗"
		style = ErrorStyle
	}

	msg := op.title
	if op.err != nil {
		msg = op.err.Error()
	} else if msg == "" {
		msg = op.text
	}

	fmt.Fprintf(s.w, "%s %s: %3.0f%% %s\n",
		style.Render(symbol),
		op.name,
		op.percent*100,
		msg,
	)
}

// Complete prints the final summary.
func (s *SimpleOutput) Complete() {
	var success, failed int
	for _, name := range s.order {
		op := s.operations[name]
		if op.err != nil {
			failed++
		} else if op.state == types.StateComplete {
			success++
		}
	}

	fmt.Fprintln(s.w)
	if failed == 0 {
		fmt.Fprintf(s.w, "✓ All %d operations completed\n", success)
	} else {
		fmt.Fprintf(s.w, "✓ %d completed, ✗ %d failed\n", success, failed)
	}
}
