// ABOUTME: Bubbletea model for the waveview TUI
// ABOUTME: Routes terminal events into the viewer, drives the frame loop and renders the chrome
package ui

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/waveview/internal/render"
	"github.com/Resonate-Protocol/waveview/internal/viewer"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// Screen rows above the waveform
const headerRows = 1

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	thumbStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle = lipgloss.NewStyle()
)

// Hooks lets the embedding program observe the model. Both run on the event loop.
type Hooks struct {
	// State is called after every handled message with the loaded file's path
	State func(state viewer.State, source string)

	// Loaded is called after a file was installed
	Loaded func(path string)
}

// Model represents the TUI state
type Model struct {
	viewer *viewer.Viewer
	canvas *render.Canvas
	hooks  Hooks

	// Dimensions
	width int
	rows  int

	// Frame loop
	frameInterval time.Duration
	framePending  bool

	// Loading
	loadGen  int
	initial  string
	loading  string
	path     string
	loadErr  error
	quitting bool

	// Sync callbacks held back until the pending load finishes
	syncs []func()
}

// Options configures a new model
type Options struct {
	Viewer *viewer.Viewer
	Canvas *render.Canvas
	Rows   int
	FPS    int
	Path   string
	Hooks  Hooks
}

// frameMsg fires the next animation frame
type frameMsg struct{}

// loadedMsg carries the result of a background decode
type loadedMsg struct {
	gen  int
	path string
	buf  *audio.Buffer
	err  error
}

// Init starts loading the initial file, if any
func (m Model) Init() tea.Cmd {
	if m.initial == "" {
		return nil
	}
	path := m.initial
	return func() tea.Msg { return LoadMsg{Path: path} }
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	case frameMsg:
		m.framePending = false
		if !m.viewer.Render() {
			m.publish()
			return m, nil
		}
	case LoadMsg:
		m, cmd = m.startLoad(msg.Path)
	case loadedMsg:
		m.finishLoad(msg)
	case PlayMsg:
		m.viewer.Play(msg.Seconds)
	case StopMsg:
		m.viewer.Stop()
	case ToggleMsg:
		m.viewer.Toggle()
	case MuteMsg:
		m.viewer.ToggleMute()
	case SyncMsg:
		m.syncs = append(m.syncs, msg.Done)
	case QuitMsg:
		return m.quit()
	}

	m.publish()
	if m.loading == "" {
		m.flushSyncs()
	}
	next := m.scheduleFrame()
	return m, tea.Batch(cmd, next)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case " ", "space":
		m.viewer.Key(viewer.KeyToggle)
	case "esc":
		m.viewer.Key(viewer.KeyStop)
	case "right":
		m.viewer.Key(viewer.KeyRight)
	case "left":
		m.viewer.Key(viewer.KeyLeft)
	case "down":
		m.viewer.Key(viewer.KeyReport)
	}
	return m, nil
}

// handleMouse maps terminal cells to waveform pixels and the scrollbar
func (m Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewer.Wheel(-1)
		return
	case tea.MouseButtonWheelDown:
		m.viewer.Wheel(1)
		return
	}

	if m.onScrollbar(msg.Y) {
		if msg.Button == tea.MouseButtonLeft &&
			(msg.Action == tea.MouseActionPress || msg.Action == tea.MouseActionMotion) {
			m.viewer.ScrollInput(m.scrollFraction(msg.X))
		}
		return
	}

	if !m.onWaveform(msg.Y) || msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		m.viewer.Click(float64(msg.X * 2))
	case tea.MouseButtonRight:
		m.viewer.ContextClick()
	}
}

func (m Model) onWaveform(y int) bool {
	return y >= headerRows && y < headerRows+m.rows
}

func (m Model) onScrollbar(y int) bool {
	return y == headerRows+m.rows
}

func (m Model) scrollFraction(x int) float64 {
	if m.width <= 1 {
		return 0
	}
	return float64(x) / float64(m.width-1)
}

func (m *Model) resize(width int) {
	m.width = width
	m.canvas.Resize(width, m.rows)
	m.viewer.Resize()
}

// scheduleFrame starts the frame chain while playing. Only one tick is in flight.
func (m *Model) scheduleFrame() tea.Cmd {
	if m.framePending || !m.viewer.IsPlaying() {
		return nil
	}
	m.framePending = true
	return tea.Tick(m.frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// startLoad stops playback and decodes path off the event loop
func (m Model) startLoad(path string) (Model, tea.Cmd) {
	m.viewer.Stop()
	m.loadGen++
	m.loading = path
	m.loadErr = nil

	gen := m.loadGen
	v := m.viewer
	return m, func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return loadedMsg{gen: gen, path: path, err: fmt.Errorf("failed to read %s: %w", path, err)}
		}
		buf, err := v.Decode(data)
		return loadedMsg{gen: gen, path: path, buf: buf, err: err}
	}
}

// finishLoad installs a decoded buffer unless a newer load superseded it
func (m *Model) finishLoad(msg loadedMsg) {
	if msg.gen != m.loadGen {
		log.Printf("Dropping stale load of %s", msg.path)
		return
	}
	m.loading = ""

	if msg.err != nil {
		log.Printf("Failed to load %s: %v", msg.path, msg.err)
		m.loadErr = msg.err
		return
	}

	m.viewer.Install(msg.buf)
	m.path = msg.path
	log.Printf("Loaded %s", msg.path)
	if m.hooks.Loaded != nil {
		m.hooks.Loaded(msg.path)
	}
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.viewer.Close()
	m.publish()
	m.flushSyncs()
	return m, tea.Quit
}

func (m *Model) flushSyncs() {
	for _, done := range m.syncs {
		if done != nil {
			done()
		}
	}
	m.syncs = nil
}

func (m Model) publish() {
	if m.hooks.State != nil {
		m.hooks.State(m.viewer.Snapshot(), m.path)
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteByte('\n')
	sb.WriteString(m.canvas.String())
	sb.WriteByte('\n')
	sb.WriteString(m.renderScrollbar())
	sb.WriteByte('\n')
	sb.WriteString(m.renderStatus())
	sb.WriteByte('\n')
	sb.WriteString(m.renderHelp())
	return sb.String()
}

// renderHeader renders the file name
func (m Model) renderHeader() string {
	name := "No file"
	if m.path != "" {
		name = filepath.Base(m.path)
	}
	if m.loading != "" {
		name = fmt.Sprintf("Loading %s...", filepath.Base(m.loading))
	}
	return titleStyle.Render(truncate(name, m.width))
}

// renderScrollbar renders the horizontal scroll control
func (m Model) renderScrollbar() string {
	scroll := m.viewer.Scroll()
	if scroll.Disabled {
		return trackStyle.Render(strings.Repeat("─", m.width))
	}

	zoom := m.viewer.Snapshot().Zoom
	thumb := int(float64(m.width) / zoom)
	if thumb < 1 {
		thumb = 1
	}
	pos := int(scroll.Value * float64(m.width-thumb))

	return trackStyle.Render(strings.Repeat("─", pos)) +
		thumbStyle.Render(strings.Repeat("━", thumb)) +
		trackStyle.Render(strings.Repeat("─", m.width-thumb-pos))
}

// renderStatus renders position, zoom, mute and the last error
func (m Model) renderStatus() string {
	s := m.viewer.Snapshot()

	state := "■ Stopped"
	if s.Playing {
		state = "▶ Playing"
	}
	line := statusStyle.Render(fmt.Sprintf("%s  %.3f / %.3fs  zoom %.2fx", state, s.Position, s.Duration, s.Zoom))

	if s.Muted {
		line += "  " + mutedStyle.Render("muted")
	}
	if readout, ok := m.viewer.Readout(); ok {
		line += fmt.Sprintf("  mark %.3f", readout)
	}
	if m.loadErr != nil {
		line += "  " + errorStyle.Render(m.loadErr.Error())
	}
	return line
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("space:Play/Pause  esc:Stop  ←/→:Pan  ↓:Mark  wheel:Zoom  click:Seek  right-click:Mute  q:Quit")
}

func truncate(s string, length int) string {
	if length <= 3 || len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
