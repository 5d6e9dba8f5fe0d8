package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"needle-gauge.klederson.com/internal/artwork"
	"needle-gauge.klederson.com/internal/calibfile"
	"needle-gauge.klederson.com/internal/config"
	"needle-gauge.klederson.com/internal/dial"
	"needle-gauge.klederson.com/internal/gauge"
	"needle-gauge.klederson.com/internal/ui"
)

type canvasView int

const (
	viewNeedle canvasView = iota
	viewGauge
)

func (v canvasView) String() string {
	if v == viewNeedle {
		return "NEEDLE"
	}
	return "GAUGE"
}

type calibShared struct {
	file      *calibfile.File
	session   *gauge.Session
	needleArt *artwork.Artwork
	gaugeArt  *artwork.Artwork
}

// CalibrateModel is the Bubble Tea model for calibrating one needle on one
// gauge background by clicking on the artwork.
type CalibrateModel struct {
	width  int
	height int

	id         string
	view       canvasView
	viewPinned bool

	cursorCol int
	cursorRow int
	cursorSet bool

	input       string
	inputActive bool
	inputRange  bool
	dragging    int

	// rangeSet is false until the user types a range or one is loaded;
	// until then the range follows the calibrated values.
	rangeSet bool
	preview     float64

	status string
	err    string

	shared *calibShared
}

// NewCalibrate opens a calibration session for needle id. An existing file
// entry for id is resumed; an empty needlePath falls back to the entry's
// artwork.
func NewCalibrate(file *calibfile.File, cache *artwork.Cache, id, needlePath, gaugePath string) (CalibrateModel, error) {
	if id == "" {
		return CalibrateModel{}, errors.New("needle id is required")
	}
	entry, resume := file.Needles[id]
	if needlePath == "" && resume {
		needlePath = file.Resolve(entry.NeedleImagePath)
	}

	sh := &calibShared{file: file}
	var needleSize, bgSize gauge.Vec
	if needlePath != "" {
		a, err := cache.Load(needlePath)
		if err != nil {
			return CalibrateModel{}, fmt.Errorf("needle artwork: %w", err)
		}
		sh.needleArt, needleSize = a, a.Size()
	}
	if gaugePath != "" {
		a, err := cache.Load(gaugePath)
		if err != nil {
			return CalibrateModel{}, fmt.Errorf("gauge background: %w", err)
		}
		sh.gaugeArt, bgSize = a, a.Size()
	}

	if resume {
		sh.session = gauge.NewSessionFrom(entry.Geometry(needleSize), entry.CalibrationSet(bgSize), needlePath, gaugePath)
	} else {
		sh.session = gauge.NewSession()
		if needlePath != "" {
			if err := sh.session.Apply(gauge.LoadNeedle{Path: needlePath, Size: needleSize}); err != nil {
				return CalibrateModel{}, err
			}
		}
		if gaugePath != "" {
			if err := sh.session.Apply(gauge.LoadGauge{Path: gaugePath, Size: bgSize}); err != nil {
				return CalibrateModel{}, err
			}
		}
	}

	m := CalibrateModel{id: id, dragging: -1, rangeSet: resume, shared: sh}
	m.preview = sh.session.CalibrationSet().Min
	m.syncView()
	return m, nil
}

// Session returns the underlying calibration session.
func (m CalibrateModel) Session() *gauge.Session {
	return m.shared.session
}

func (m CalibrateModel) Init() tea.Cmd {
	return nil
}

func (m CalibrateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cols, rows := m.canvasSize()
		if !m.cursorSet {
			m.cursorCol, m.cursorRow, m.cursorSet = cols/2, rows/2, true
		}
		m.cursorCol = max(0, min(m.cursorCol, cols-1))
		m.cursorRow = max(0, min(m.cursorRow, rows-1))
		return m, nil

	case tea.KeyMsg:
		if m.inputActive {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

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

func (m CalibrateModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.shared.session
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.view == viewNeedle {
			m.view = viewGauge
		} else {
			m.view = viewNeedle
		}
		m.viewPinned = true

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)

	case "enter", " ":
		if p, ok := m.cellToArt(m.cursorCol, m.cursorRow); ok {
			m.clickAt(p)
		} else {
			m.err = "cursor is outside the artwork"
		}

	case "v", "V":
		if s.State() < gauge.StateGaugePivotSet {
			m.err = "set the gauge pivot first"
			break
		}
		m.inputActive, m.inputRange, m.input, m.err = true, false, "", ""

	case "m", "M":
		m.inputActive, m.inputRange, m.input, m.err = true, true, "", ""

	case "d", "D":
		m.apply(gauge.DeleteLastPoint{})
	case "c", "C":
		m.apply(gauge.ClearPoints{})
	case "g", "G":
		m.apply(gauge.Reset{Target: gauge.ResetGaugePivot})
	case "n", "N":
		m.apply(gauge.Reset{Target: gauge.ResetNeedleGeometry})
	case "R":
		m.apply(gauge.Reset{Target: gauge.ResetAll})

	case "+", "=":
		m.apply(gauge.SetScale{Scale: s.CalibrationSet().Scale + config.ScaleStep})
	case "-", "_":
		if sc := s.CalibrationSet().Scale - config.ScaleStep; sc > 0 {
			m.apply(gauge.SetScale{Scale: sc})
		}

	case "[", "<", ",":
		m.nudgePreview(-0.05)
	case "]", ">", ".":
		m.nudgePreview(0.05)

	case "w", "W":
		return m, m.save()
	}
	return m, nil
}

// handleInput edits the value typed for the next calibration point.
func (m CalibrateModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputActive, m.input = false, ""
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		if m.inputRange {
			m.input += " "
		}
	case tea.KeyEnter:
		if m.inputRange {
			m.submitRange()
			break
		}
		v, err := strconv.ParseFloat(m.input, 64)
		if err != nil {
			m.err = fmt.Sprintf("not a number: %q", m.input)
			break
		}
		if m.apply(gauge.AddCalibrationPoint{Value: v}) {
			m.inputActive, m.input = false, ""
			m.status = fmt.Sprintf("point %g added", v)
		}
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if strings.ContainsRune("0123456789.-+eE", r) {
				m.input += string(r)
			}
		}
	}
	return m, nil
}

func (m CalibrateModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	col, row := msg.X-ui.DialOriginCol, msg.Y-ui.DialOriginRow
	p, inside := m.cellToArt(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if !inside {
			return m, nil
		}
		m.cursorCol, m.cursorRow = col, row
		s := m.shared.session
		if m.view == viewGauge && s.State() >= gauge.StateGaugePivotSet {
			if i := s.NearestPoint(p, config.PickRadius); i >= 0 {
				m.dragging = i
				return m, nil
			}
		}
		m.clickAt(p)

	case tea.MouseActionMotion:
		if m.dragging >= 0 && inside {
			m.cursorCol, m.cursorRow = col, row
			m.apply(gauge.MovePoint{Index: m.dragging, At: p})
		}

	case tea.MouseActionRelease:
		m.dragging = -1
	}
	return m, nil
}

// clickAt sends a click in artwork pixels of the current view.
func (m *CalibrateModel) clickAt(p gauge.Vec) {
	st := m.shared.session.State()
	needlePending := st == gauge.StateNeedlePivotPending || st == gauge.StateNeedleEndPending
	switch {
	case m.view == viewNeedle && !needlePending:
		m.err = "needle is set; press N to redo it or TAB for the gauge"
		return
	case m.view == viewGauge && needlePending:
		m.err = "finish the needle first (TAB)"
		return
	}
	if !m.apply(gauge.Click{At: p}) {
		return
	}
	if _, ok := m.shared.session.LastClick(); ok {
		m.inputActive, m.input = true, ""
	}
}

// submitRange parses "min max" from the input and sets the value range.
func (m *CalibrateModel) submitRange() {
	f := strings.Fields(m.input)
	if len(f) != 2 {
		m.err = fmt.Sprintf("want \"min max\", got %q", m.input)
		return
	}
	lo, err1 := strconv.ParseFloat(f[0], 64)
	hi, err2 := strconv.ParseFloat(f[1], 64)
	if err1 != nil || err2 != nil {
		m.err = fmt.Sprintf("not a range: %q", m.input)
		return
	}
	if m.apply(gauge.SetRange{Min: lo, Max: hi}) {
		m.rangeSet = true
		m.inputActive, m.inputRange, m.input = false, false, ""
		m.preview = max(lo, min(hi, m.preview))
		m.status = fmt.Sprintf("range %g .. %g", lo, hi)
	}
}

// fitRange makes the value range span the calibrated values.
func (m *CalibrateModel) fitRange() {
	s := m.shared.session
	set := s.CalibrationSet()
	lo, hi, ok := set.Resolver().Range()
	if !ok || hi <= lo || (set.Min == lo && set.Max == hi) {
		return
	}
	if err := s.Apply(gauge.SetRange{Min: lo, Max: hi}); err != nil {
		m.err = err.Error()
	}
}

// apply runs a session command and reports failures in the status bar.
func (m *CalibrateModel) apply(cmd gauge.Command) bool {
	before := m.shared.session.State()
	if err := m.shared.session.Apply(cmd); err != nil {
		m.err = err.Error()
		return false
	}
	m.err = ""
	if _, ok := cmd.(gauge.SetRange); !ok && !m.rangeSet {
		m.fitRange()
	}
	if m.shared.session.State() != before {
		m.viewPinned = false
	}
	m.syncView()
	return true
}

// syncView shows the artwork the session needs clicks on next.
func (m *CalibrateModel) syncView() {
	if m.viewPinned {
		return
	}
	switch m.shared.session.State() {
	case gauge.StateEmpty, gauge.StateNeedlePivotPending, gauge.StateNeedleEndPending, gauge.StateNeedleGeometryComplete:
		m.view = viewNeedle
	default:
		m.view = viewGauge
	}
}

func (m *CalibrateModel) moveCursor(dc, dr int) {
	cols, rows := m.canvasSize()
	m.cursorCol = max(0, min(m.cursorCol+dc, cols-1))
	m.cursorRow = max(0, min(m.cursorRow+dr, rows-1))
}

func (m *CalibrateModel) nudgePreview(frac float64) {
	set := m.shared.session.CalibrationSet()
	m.preview = set.Clamp(m.preview + frac*(set.Max-set.Min))
}

func (m CalibrateModel) save() tea.Cmd {
	s := m.shared.session
	f := m.shared.file
	geom, ok := s.Geometry()
	switch {
	case !ok:
		return report(ErrMsg{Err: errors.New("needle pivot and tip are not set")})
	case s.State() != gauge.StateCalibrated:
		return report(ErrMsg{Err: fmt.Errorf("need at least %d calibration points", gauge.MinCalibratedPoints)})
	case f.Path == "":
		return report(ErrMsg{Err: errors.New("no config file to write")})
	}
	f.Set(m.id, calibfile.EntryFrom(f.Relative(s.NeedlePath()), geom, s.CalibrationSet()))
	if err := calibfile.WriteFile(f.Path, f); err != nil {
		return report(ErrMsg{Err: err})
	}
	return report(SavedMsg{Path: f.Path})
}

func (m CalibrateModel) canvasSize() (cols, rows int) {
	dialW, _ := ui.SplitWidth(m.width)
	return ui.DialCanvas(dialW, max(5, m.height-2))
}

func (m CalibrateModel) art() *artwork.Artwork {
	if m.view == viewNeedle {
		return m.shared.needleArt
	}
	return m.shared.gaugeArt
}

func (m CalibrateModel) viewport() dial.Viewport {
	cols, rows := m.canvasSize()
	var native gauge.Vec
	if a := m.art(); a != nil {
		native = a.Size()
	}
	return dial.Fit(cols, rows, native)
}

func (m CalibrateModel) cellToArt(col, row int) (gauge.Vec, bool) {
	cols, rows := m.canvasSize()
	if col < 0 || row < 0 || col >= cols || row >= rows {
		return gauge.Vec{}, false
	}
	return m.viewport().FromCell(col, row)
}

func (m CalibrateModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}
	s := m.shared.session
	state := s.State()

	bodyH := max(5, m.height-2)
	dialW, sideW := ui.SplitWidth(m.width)

	menuBar := ui.RenderMenuBar(m.width, "CALIBRATE", ui.CalibrateKeys, state.String(), state == gauge.StateCalibrated)

	cols, rows := ui.DialCanvas(dialW, bodyH)
	legend := ui.StyleLegend.Render(" P pivot  T tip  O gauge pivot  0-9 points  ? click  X cursor")
	dialPanel := ui.RenderDialPanel(dialW, bodyH, dial.Render(cols, rows, m.scene()), legend, true)

	side := ui.RenderCalibPanel(ui.CalibView{
		NeedleID:    m.id,
		Session:     s,
		Input:       m.input,
		InputActive: m.inputActive,
		InputRange:  m.inputRange,
		Dragging:    m.dragging,
	}, sideW, bodyH)

	info := ui.Instruction(state)
	if p, ok := m.cellToArt(m.cursorCol, m.cursorRow); ok {
		info = fmt.Sprintf("(%.0f, %.0f)  %s", p.X, p.Y, info)
	}
	if m.status != "" {
		info += "  " + m.status
	}
	statusBar := ui.RenderStatusBar(m.width, m.view.String(), info, m.err)

	return ui.ComposeLayout(menuBar, dialPanel, side, statusBar)
}

// scene draws the current view's artwork with everything clicked so far.
func (m CalibrateModel) scene() dial.Scene {
	s := m.shared.session
	vp := m.viewport()
	sc := dial.Scene{
		Viewport:  vp,
		Cursor:    dial.CellCenter(m.cursorCol, m.cursorRow),
		HasCursor: true,
	}
	if a := m.art(); a != nil {
		sc.Background = a.Image()
	}

	state := s.State()
	geom, geomOK := s.Geometry()
	set := s.CalibrationSet()

	if m.view == viewNeedle {
		if geomOK || state == gauge.StateNeedleEndPending {
			sc.Marks = append(sc.Marks, dial.Mark{At: vp.ToLive(geom.Pivot), Char: 'P'})
		}
		if geomOK {
			sc.Marks = append(sc.Marks, dial.Mark{At: vp.ToLive(geom.End), Char: 'T'})
		}
		return sc
	}

	if state >= gauge.StateGaugePivotSet {
		sc.Marks = append(sc.Marks, dial.Mark{At: vp.ToLive(set.Placement.Pivot), Char: 'O'})
	}
	for i, p := range set.Points {
		sc.Marks = append(sc.Marks, dial.Mark{At: vp.ToLive(p.Pos()), Char: byte('0' + i%10)})
	}
	if click, ok := s.LastClick(); ok {
		sc.Marks = append(sc.Marks, dial.Mark{At: vp.ToLive(click), Char: '?'})
	}

	if state == gauge.StateCalibrated {
		reg := gauge.NewRegistry()
		var g *gauge.NeedleGeometry
		if geomOK {
			g = &geom
		}
		n := reg.Calibrate(m.id, g, set)
		reg.SetValue(m.id, m.preview)
		line := dial.NeedleLine(n, vp)
		line.Color = dial.NeedleColors[0]
		line.Selected = true
		sc.Needles = append(sc.Needles, line)
	}
	return sc
}
