package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"needle-gauge.klederson.com/internal/config"
	"needle-gauge.klederson.com/internal/demo"
	"needle-gauge.klederson.com/internal/dial"
	"needle-gauge.klederson.com/internal/gauge"
	"needle-gauge.klederson.com/internal/ui"
)

// previewShared holds state shared between the Bubble Tea model copies and
// main.go. Bubble Tea uses value receivers, so pointer fields let every copy
// see the same data.
type previewShared struct {
	ws        *Workspace
	histories map[string]*ValueHistory
	source    *demo.Source
	sender    demo.Sender
	fps       int
}

// PreviewModel is the Bubble Tea model for the live gauge preview.
type PreviewModel struct {
	width  int
	height int

	paused   bool
	demoMode bool
	detail   bool
	cursor   int
	status   string
	err      string

	shared *previewShared

	// Cached snapshot
	needles []*gauge.NeedleInstance
}

// NewPreview creates a preview over ws. fps <= 0 uses the default frame
// rate.
func NewPreview(ws *Workspace, demoMode bool, fps int) PreviewModel {
	if fps <= 0 {
		fps = config.TargetFPS
	}
	m := PreviewModel{
		demoMode: demoMode,
		shared: &previewShared{
			ws:        ws,
			histories: make(map[string]*ValueHistory),
			fps:       fps,
		},
		needles: ws.Registry.Needles(),
	}
	if ws.Warning != nil {
		m.err = ws.Warning.Error()
	}
	return m
}

func (m PreviewModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.step()
		return m, m.tickCmd()

	case demo.ValueMsg:
		if !m.paused {
			m.shared.ws.Registry.SetTarget(msg.ID, msg.Value)
		}
		return m, nil

	case SavedMsg:
		m.status = "saved " + msg.Path
		m.err = ""
		return m, nil

	case ErrMsg:
		m.err = msg.Err.Error()
		return m, nil
	}

	return m, nil
}

// step eases every needle toward its target and records its value.
func (m *PreviewModel) step() {
	m.needles = m.shared.ws.Registry.Needles()
	if m.paused {
		return
	}
	for _, n := range m.needles {
		n.Value = gauge.Smooth(n.Value, n.Target, config.SmoothingFactor)
		h, ok := m.shared.histories[n.ID]
		if !ok {
			h = NewValueHistory(config.HistoryLen)
			m.shared.histories[n.ID] = h
		}
		h.Push(n.Value)
	}
}

func (m PreviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.StopDemo()
		return m, tea.Quit

	case "p", "P", " ":
		m.paused = !m.paused

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.needles)-1 {
			m.cursor++
		}

	case "enter":
		m.detail = !m.detail

	case "esc":
		m.detail = false

	case "+", "=":
		m.nudgeScale(config.ScaleStep)

	case "-", "_":
		m.nudgeScale(-config.ScaleStep)

	case ">", ".":
		m.nudgeTarget(0.05)

	case "<", ",":
		m.nudgeTarget(-0.05)

	case "x", "X":
		if n, ok := m.Selected(); ok {
			if h, ok := m.shared.histories[n.ID]; ok {
				h.ResetPeak()
			}
		}

	case "w", "W":
		return m, m.saveScales()

	case "r", "R":
		cmd := m.reload()
		return m, cmd
	}

	return m, nil
}

// Selected returns the needle under the cursor.
func (m PreviewModel) Selected() (*gauge.NeedleInstance, bool) {
	if m.cursor < 0 || m.cursor >= len(m.needles) {
		return nil, false
	}
	return m.needles[m.cursor], true
}

func (m PreviewModel) nudgeScale(delta float64) {
	if n, ok := m.Selected(); ok {
		m.shared.ws.Registry.SetScale(n.ID, n.Scale+delta)
	}
}

// nudgeTarget moves the selected needle's target by a fraction of its range.
func (m PreviewModel) nudgeTarget(frac float64) {
	n, ok := m.Selected()
	if !ok {
		return
	}
	lo, hi := ui.ValueRange(n)
	t := max(lo, min(hi, n.Target+frac*(hi-lo)))
	m.shared.ws.Registry.SetTarget(n.ID, t)
}

// saveScales writes the file now and reports the result as a message.
func (m PreviewModel) saveScales() tea.Cmd {
	ws := m.shared.ws
	if _, err := ws.SaveScales(); err != nil {
		return report(ErrMsg{Err: err})
	}
	return report(SavedMsg{Path: ws.File.Path})
}

func (m *PreviewModel) reload() tea.Cmd {
	running := m.shared.source != nil
	m.StopDemo()
	if err := m.shared.ws.Reload(); err != nil {
		m.err = err.Error()
	} else {
		m.err = ""
		m.status = "reloaded"
		if m.shared.ws.Warning != nil {
			m.err = m.shared.ws.Warning.Error()
		}
	}
	m.needles = m.shared.ws.Registry.Needles()
	m.cursor = min(m.cursor, max(0, len(m.needles)-1))
	if running && m.shared.sender != nil {
		if err := m.StartDemo(m.shared.sender); err != nil {
			return report(ErrMsg{Err: err})
		}
	}
	return nil
}

// StartDemo starts the demo value source when the model is in demo mode.
// Must be called before p.Run().
func (m *PreviewModel) StartDemo(p demo.Sender) error {
	if !m.demoMode {
		return nil
	}
	m.shared.sender = p
	m.shared.source = demo.NewSource(config.DemoInterval, demo.ChannelsFor(m.shared.ws.Registry, config.DemoPeriod)...)
	return m.shared.source.Start(p)
}

// StopDemo stops the demo source if it is running.
func (m *PreviewModel) StopDemo() {
	if m.shared.source != nil {
		m.shared.source.Stop()
		m.shared.source = nil
	}
}

// FPS returns the frame rate shared by the tick and the renderer.
func (m PreviewModel) FPS() int {
	return m.shared.fps
}

// Peak returns the held peak value of a needle.
func (m PreviewModel) Peak(id string) (float64, bool) {
	if h, ok := m.shared.histories[id]; ok {
		return h.Peak()
	}
	return 0, false
}

// History returns the recorded values of a needle.
func (m PreviewModel) History(id string) []float64 {
	if h, ok := m.shared.histories[id]; ok {
		return h.Values()
	}
	return nil
}

func (m PreviewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}

	bodyH := max(5, m.height-2)
	dialW, sideW := ui.SplitWidth(m.width)

	state := "live"
	switch {
	case m.paused:
		state = "paused"
	case m.demoMode:
		state = "demo"
	}
	menuBar := ui.RenderMenuBar(m.width, "PREVIEW", ui.PreviewKeys, state, !m.paused)

	cols, rows := ui.DialCanvas(dialW, bodyH)
	ids := make([]string, len(m.needles))
	for i, n := range m.needles {
		ids[i] = n.ID
	}
	dialContent := dial.Render(cols, rows, m.scene(cols, rows))
	legend := ui.RenderLegend(ids, dial.NeedleColors)
	dialPanel := ui.RenderDialPanel(dialW, bodyH, dialContent, legend, !m.detail)

	var side string
	if n, ok := m.Selected(); ok && m.detail {
		side = ui.RenderDetailPanel(n, sideW, bodyH, m.History(n.ID))
	} else {
		side = ui.RenderNeedleList(m.needles, dial.NeedleColors, sideW, bodyH, m.cursor)
	}

	info := m.status
	if n, ok := m.Selected(); ok {
		info = fmt.Sprintf("%d needles  %s=%.1f @ %.1fdeg", len(m.needles), n.ID, n.Value, n.Angle())
		if pk, ok := m.Peak(n.ID); ok {
			info += fmt.Sprintf("  peak %.1f", pk)
		}
		info += "  " + m.status
	}
	statusBar := ui.RenderStatusBar(m.width, strings.ToUpper(state), info, m.err)

	return ui.ComposeLayout(menuBar, dialPanel, side, statusBar)
}

// scene builds the dial for a cols x rows canvas.
func (m PreviewModel) scene(cols, rows int) dial.Scene {
	ws := m.shared.ws
	vp := dial.Fit(cols, rows, ws.BackgroundSize())
	s := dial.Scene{Viewport: vp}
	if ws.Background != nil {
		s.Background = ws.Background.Image()
	}
	for i, n := range m.needles {
		line := dial.NeedleLine(n, vp)
		line.Color = dial.NeedleColors[i%len(dial.NeedleColors)]
		line.Selected = i == m.cursor
		s.Needles = append(s.Needles, line)
	}
	if n, ok := m.Selected(); ok && n.Calibrated() {
		for _, smp := range n.Resolver().Samples() {
			s.Ticks = append(s.Ticks, smp.Angle)
		}
	}
	return s
}

func (m PreviewModel) tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.shared.fps), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
