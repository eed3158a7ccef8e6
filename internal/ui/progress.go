package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// ProgressModel is the Bubble Tea model for batch progress: a spinner, a bar
// and the name of the last finished file.
type ProgressModel struct {
	spinner  spinner.Model
	title    string
	done     int
	total    int
	current  string
	finished bool
	err      error
	quitting bool
}

// NewProgressModel creates a progress model for total items.
func NewProgressModel(title string, total int) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)
	return ProgressModel{spinner: s, title: title, total: total}
}

// Init initializes the model
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// ProgressMsg reports that done of total items have finished.
type ProgressMsg struct {
	Done  int
	Total int
	Name  string
}

// DoneMsg signals that the operation is complete
type DoneMsg struct {
	Err error
}

// Update handles messages
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.done, m.current = msg.Done, msg.Name
		if msg.Total > 0 {
			m.total = msg.Total
		}
		return m, nil

	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) fraction() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View renders the progress display
func (m ProgressModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(Title.Render(m.title))
		b.WriteString("\n")
	}

	icon := m.spinner.View()
	if m.finished {
		icon = GetCheckMark()
		if m.err != nil {
			icon = GetCrossMark()
		}
	}
	b.WriteString(fmt.Sprintf("%s %s %d/%d", icon, RenderProgressBar(m.fraction(), 30), m.done, m.total))
	if m.current != "" && !m.finished {
		b.WriteString(" " + Dim.Render(truncate(m.current, 50)))
	}
	if m.finished && m.err != nil {
		b.WriteString("\n")
		b.WriteString(Error.Render(m.err.Error()))
	}
	b.WriteString("\n")
	return tea.NewView(b.String())
}

// ProgressTracker drives a ProgressModel from worker goroutines without the
// caller touching Bubble Tea directly. A nil tracker is a no-op.
type ProgressTracker struct {
	program *tea.Program
	mu      sync.Mutex
	running bool
	exited  chan struct{}
}

// NewProgressTracker creates a tracker writing to w.
func NewProgressTracker(w io.Writer, title string, total int) *ProgressTracker {
	model := NewProgressModel(title, total)
	return &ProgressTracker{
		program: tea.NewProgram(model, tea.WithOutput(w), tea.WithInput(nil), tea.WithoutSignalHandler()),
		exited:  make(chan struct{}),
	}
}

// Start begins the progress display
func (pt *ProgressTracker) Start() {
	if pt == nil {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.running {
		return
	}
	pt.running = true
	go func() {
		defer close(pt.exited)
		_, _ = pt.program.Run()
	}()
}

// Advance reports progress; it matches the batch progress callback.
func (pt *ProgressTracker) Advance(done, total int, name string) {
	if pt == nil {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.running {
		pt.program.Send(ProgressMsg{Done: done, Total: total, Name: name})
	}
}

// Complete renders the final state and waits for the display to exit.
func (pt *ProgressTracker) Complete(err error) {
	if pt == nil {
		return
	}
	pt.mu.Lock()
	if !pt.running {
		pt.mu.Unlock()
		return
	}
	pt.running = false
	pt.program.Send(DoneMsg{Err: err})
	pt.mu.Unlock()

	select {
	case <-pt.exited:
	case <-time.After(2 * time.Second):
		pt.program.Kill()
	}
}
