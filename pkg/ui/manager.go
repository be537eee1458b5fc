package ui

import (
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tierone/deckhand/pkg/progress"
	"github.com/tierone/deckhand/pkg/types"
)

// ProgressManager coordinates UI display for concurrent progress streams.
type ProgressManager struct {
	program     *tea.Program
	model       Model
	msgChan     chan types.ProgressMsg
	resultChan  chan types.OperationResult
	results     []types.OperationResult
	resultMu    sync.Mutex
	done        chan struct{}
	processed   chan struct{}
	exited      chan struct{}
	started     bool
	interactive bool
	simple      *SimpleOutput
}

// NewProgressManager creates a new UI manager. Non-interactive output is
// written to w.
func NewProgressManager(title string, interactive bool, w io.Writer) *ProgressManager {
	pm := &ProgressManager{
		model:       NewModel(title),
		msgChan:     make(chan types.ProgressMsg, 100),
		resultChan:  make(chan types.OperationResult, 100),
		results:     []types.OperationResult{},
		done:        make(chan struct{}),
		processed:   make(chan struct{}),
		exited:      make(chan struct{}),
		interactive: interactive,
	}

	if !interactive {
		pm.simple = NewSimpleOutput(w)
	}

	return pm
}

// Start initializes the UI manager.
func (pm *ProgressManager) Start() error {
	if pm.started {
		return nil
	}
	pm.started = true

	if pm.interactive {
		pm.program = tea.NewProgram(pm.model)

		go func() {
			defer close(pm.exited)
			_, _ = pm.program.Run()
		}()
	}

	go pm.processMessages()

	return nil
}

func (pm *ProgressManager) processMessages() {
	defer close(pm.processed)

	msgs, results := pm.msgChan, pm.resultChan
	for msgs != nil || results != nil {
		select {
		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			pm.dispatch(msg)
		case result, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			pm.resultMu.Lock()
			pm.results = append(pm.results, result)
			pm.resultMu.Unlock()
		}
	}
}

func (pm *ProgressManager) dispatch(msg types.ProgressMsg) {
	if pm.program != nil {
		pm.program.Send(ProgressMsg(msg))
	}
	if pm.simple != nil {
		pm.simple.Update(msg)
	}
}

// SendProgress sends a progress update to the UI. Running updates are
// dropped when the UI falls behind; completion messages are never dropped.
func (pm *ProgressManager) SendProgress(msg types.ProgressMsg) {
	if msg.IsComplete() {
		pm.msgChan <- msg
		return
	}
	select {
	case pm.msgChan <- msg:
	default:
		// Channel full, drop message
	}
}

// SendEvent forwards a parser event for the named stream.
func (pm *ProgressManager) SendEvent(name, operation string, ev progress.Event) {
	pm.SendProgress(types.NewEventMsg(name, operation, ev))
}

// SendResult records an operation result.
func (pm *ProgressManager) SendResult(result types.OperationResult) {
	pm.resultChan <- result
}

// Complete drains pending messages, renders the final summary and stops the
// UI. It must be called once, after the last Send.
func (pm *ProgressManager) Complete() {
	close(pm.msgChan)
	close(pm.resultChan)
	if pm.started {
		<-pm.processed
	}

	if pm.interactive && pm.program != nil {
		pm.program.Send(CompleteMsg{})
		<-pm.exited
	} else if pm.simple != nil {
		pm.simple.Complete()
	}

	close(pm.done)
}

// Wait blocks until Complete is called and returns the summary.
func (pm *ProgressManager) Wait(duration time.Duration) *types.Summary {
	<-pm.done

	pm.resultMu.Lock()
	defer pm.resultMu.Unlock()

	return types.NewSummary(pm.results, duration)
}
