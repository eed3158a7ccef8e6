package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TaskStatus represents the status of a task
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskDone
	TaskFailed
	TaskSkipped
)

// Task is one line of a Workflow.
type Task struct {
	Name    string
	Status  TaskStatus
	Message string
	Details string // shown after completion
}

// Workflow renders a list of tasks (parse old, parse new, compare, write …)
// with an animated spinner on the running one.
type Workflow struct {
	writer     io.Writer
	title      string
	tasks      []*Task
	mu         sync.Mutex
	spinnerIdx int
	stopChan   chan struct{}
	doneChan   chan struct{}
	running    bool
	animate    bool
	lastRender string
}

// NewWorkflow creates a workflow tracker. With animate false (non-TTY output,
// tests) only the final state is rendered on Stop.
func NewWorkflow(w io.Writer, title string, animate bool) *Workflow {
	return &Workflow{
		writer:   w,
		title:    title,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		animate:  animate,
	}
}

// AddTask appends a pending task and returns its index.
func (wf *Workflow) AddTask(name string) int {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	wf.tasks = append(wf.tasks, &Task{Name: name})
	return len(wf.tasks) - 1
}

func (wf *Workflow) update(idx int, fn func(*Task)) {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if idx >= 0 && idx < len(wf.tasks) {
		fn(wf.tasks[idx])
	}
}

// StartTask marks a task as running
func (wf *Workflow) StartTask(idx int, message string) {
	wf.update(idx, func(t *Task) { t.Status, t.Message = TaskRunning, message })
}

// CompleteTask marks a task as done
func (wf *Workflow) CompleteTask(idx int, details string) {
	wf.update(idx, func(t *Task) { t.Status, t.Details = TaskDone, details })
}

// FailTask marks a task as failed
func (wf *Workflow) FailTask(idx int, errMsg string) {
	wf.update(idx, func(t *Task) { t.Status, t.Message = TaskFailed, errMsg })
}

// SkipTask marks a task as skipped
func (wf *Workflow) SkipTask(idx int, reason string) {
	wf.update(idx, func(t *Task) { t.Status, t.Message = TaskSkipped, reason })
}

// Tasks returns a snapshot of the current task states.
func (wf *Workflow) Tasks() []Task {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	out := make([]Task, len(wf.tasks))
	for i, t := range wf.tasks {
		out[i] = *t
	}
	return out
}

// Start begins the animated display.
func (wf *Workflow) Start() {
	wf.mu.Lock()
	if wf.running {
		wf.mu.Unlock()
		return
	}
	wf.running = true
	wf.mu.Unlock()

	if wf.title != "" {
		fmt.Fprintln(wf.writer, Title.Render(wf.title))
	}
	if !wf.animate {
		close(wf.doneChan)
		return
	}

	go func() {
		defer close(wf.doneChan)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-wf.stopChan:
				return
			case <-ticker.C:
				wf.mu.Lock()
				wf.spinnerIdx = (wf.spinnerIdx + 1) % len(spinnerFrames)
				wf.render(false)
				wf.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and prints the final state of every task.
func (wf *Workflow) Stop() {
	wf.mu.Lock()
	if !wf.running {
		wf.mu.Unlock()
		return
	}
	wf.running = false
	wf.mu.Unlock()

	close(wf.stopChan)
	<-wf.doneChan

	wf.mu.Lock()
	defer wf.mu.Unlock()
	wf.render(true)
}

// render must be called with mu held.
func (wf *Workflow) render(final bool) {
	var b strings.Builder
	if wf.lastRender != "" {
		for i := 0; i <= strings.Count(wf.lastRender, "\n"); i++ {
			b.WriteString("\033[A\033[K")
		}
	}
	for _, task := range wf.tasks {
		b.WriteString(wf.renderTask(task, final))
		b.WriteString("\n")
	}
	out := b.String()
	if final {
		wf.lastRender = ""
	} else {
		wf.lastRender = strings.TrimSuffix(out, "\n")
	}
	fmt.Fprint(wf.writer, out)
}

func (wf *Workflow) renderTask(task *Task, final bool) string {
	var icon string
	var nameStyle, msgStyle styleWrapper

	switch task.Status {
	case TaskRunning:
		if final {
			icon, nameStyle, msgStyle = Muted.Render("○"), StepPending, Dim
			break
		}
		icon, nameStyle, msgStyle = Secondary.Render(spinnerFrames[wf.spinnerIdx]), StepRunning, Secondary
	case TaskDone:
		icon, nameStyle, msgStyle = GetCheckMark(), StepComplete, Dim
	case TaskFailed:
		icon, nameStyle, msgStyle = GetCrossMark(), StepFailed, Error
	case TaskSkipped:
		icon, nameStyle, msgStyle = Warning.Render("⊘"), StepSkipped, Warning
	default:
		icon, nameStyle, msgStyle = Muted.Render("○"), StepPending, Dim
	}

	line := fmt.Sprintf("%s %s", icon, nameStyle.Render(task.Name))
	if !final {
		if task.Message != "" {
			line += " " + msgStyle.Render(task.Message)
		}
		return line
	}

	switch {
	case task.Status == TaskDone && task.Details != "":
		line += " " + Dim.Render("→ "+task.Details)
	case task.Status == TaskFailed && task.Message != "":
		line += " " + Error.Render("→ "+task.Message)
	case task.Status == TaskSkipped && task.Message != "":
		line += " " + Warning.Render("→ "+task.Message)
	}
	return line
}
