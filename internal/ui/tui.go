// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and lets other goroutines drive the viewer through it
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages other goroutines send into the event loop
type (
	// LoadMsg loads a file
	LoadMsg struct{ Path string }

	// PlayMsg starts playback at Seconds
	PlayMsg struct{ Seconds float64 }

	// StopMsg stops and rewinds
	StopMsg struct{}

	// ToggleMsg pauses or resumes
	ToggleMsg struct{}

	// MuteMsg toggles mute
	MuteMsg struct{}

	// QuitMsg closes the viewer and exits
	QuitMsg struct{}

	// SyncMsg runs Done after every earlier message was handled and any
	// pending load finished
	SyncMsg struct{ Done func() }
)

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}
	rows := opts.Rows
	if rows <= 0 {
		rows = 12
	}
	return Model{
		viewer:        opts.Viewer,
		canvas:        opts.Canvas,
		hooks:         opts.Hooks,
		rows:          rows,
		frameInterval: time.Second / time.Duration(fps),
		initial:       opts.Path,
	}
}

// NewProgram creates the program with mouse reporting on the alternate screen.
// A headless program reads no terminal input and draws nothing; it only runs
// the event loop for remote commands and file changes.
func NewProgram(model Model, headless bool) *tea.Program {
	if headless {
		return tea.NewProgram(model, tea.WithoutRenderer(), tea.WithInput(nil))
	}
	return tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
}

// Controller forwards commands into a running program. Safe for concurrent use.
type Controller struct {
	program *tea.Program
}

// NewController creates a controller for p
func NewController(p *tea.Program) *Controller {
	return &Controller{program: p}
}

func (c *Controller) Load(path string) { c.program.Send(LoadMsg{Path: path}) }

func (c *Controller) Play(seconds float64) { c.program.Send(PlayMsg{Seconds: seconds}) }

func (c *Controller) Stop() { c.program.Send(StopMsg{}) }

func (c *Controller) Toggle() { c.program.Send(ToggleMsg{}) }

func (c *Controller) ToggleMute() { c.program.Send(MuteMsg{}) }

func (c *Controller) Quit() { c.program.Send(QuitMsg{}) }

// Sync calls done on the event loop once the commands sent before it took effect
func (c *Controller) Sync(done func()) { c.program.Send(SyncMsg{Done: done}) }
