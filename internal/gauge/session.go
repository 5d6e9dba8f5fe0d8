package gauge

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	ErrCommandNotAllowed = errors.New("gauge: command not allowed")
	ErrPointIndex        = errors.New("gauge: calibration point index out of range")
	ErrNoClick           = errors.New("gauge: no click captured")
	ErrInvalidArgument   = errors.New("gauge: invalid argument")
)

// State is the progress of a calibration session.
type State int

const (
	StateEmpty State = iota
	StateNeedlePivotPending
	StateNeedleEndPending
	StateNeedleGeometryComplete
	StateGaugePivotPending
	StateGaugePivotSet
	StateCalibrated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateNeedlePivotPending:
		return "needle pivot pending"
	case StateNeedleEndPending:
		return "needle end pending"
	case StateNeedleGeometryComplete:
		return "needle geometry complete"
	case StateGaugePivotPending:
		return "gauge pivot pending"
	case StateGaugePivotSet:
		return "gauge pivot set"
	case StateCalibrated:
		return "calibrated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MinCalibratedPoints is the point count at which a session is Calibrated.
const MinCalibratedPoints = 2

// Command is an input to a Session.
type Command interface {
	commandName() string
}

// LoadNeedle selects needle artwork of the given native size. Any needle
// pivot and end already set are cleared.
type LoadNeedle struct {
	Path string
	Size Vec
}

// SetNeedlePivot sets the needle's rotation point in artwork pixels.
type SetNeedlePivot struct{ At Vec }

// SetNeedleEnd sets the needle tip in artwork pixels.
type SetNeedleEnd struct{ At Vec }

// LoadGauge selects a gauge background of the given native size. The gauge
// pivot and all points are cleared since they belong to the old background.
type LoadGauge struct {
	Path string
	Size Vec
}

// SetGaugePivot sets the needle pivot on the background.
type SetGaugePivot struct{ At Vec }

// Click is a pointer click routed to whatever field is pending. Once the gauge
// pivot is set, clicks are captured for the next AddCalibrationPoint.
type Click struct{ At Vec }

// AddCalibrationPoint appends a point with Value. At overrides the captured
// click when non-nil.
type AddCalibrationPoint struct {
	Value float64
	At    *Vec
}

// MovePoint moves an existing point, keeping its value.
type MovePoint struct {
	Index int
	At    Vec
}

// DeleteLastPoint removes the most recently added point.
type DeleteLastPoint struct{}

// ClearPoints removes every point.
type ClearPoints struct{}

// SetScale sets the needle length multiplier.
type SetScale struct{ Scale float64 }

// SetRange sets the gauge's value range.
type SetRange struct{ Min, Max float64 }

// ResetTarget selects what Reset clears.
type ResetTarget int

const (
	ResetNeedleGeometry ResetTarget = iota
	ResetGaugePivot
	ResetAll
)

// Reset clears part of the session. ResetAll keeps the loaded artwork and
// the value range but drops both pivots, the needle end and all points.
type Reset struct{ Target ResetTarget }

func (LoadNeedle) commandName() string          { return "load needle" }
func (SetNeedlePivot) commandName() string      { return "set needle pivot" }
func (SetNeedleEnd) commandName() string        { return "set needle end" }
func (LoadGauge) commandName() string           { return "load gauge" }
func (SetGaugePivot) commandName() string       { return "set gauge pivot" }
func (Click) commandName() string               { return "click" }
func (AddCalibrationPoint) commandName() string { return "add point" }
func (MovePoint) commandName() string           { return "move point" }
func (DeleteLastPoint) commandName() string     { return "delete last point" }
func (ClearPoints) commandName() string         { return "clear points" }
func (SetScale) commandName() string            { return "set scale" }
func (SetRange) commandName() string            { return "set range" }
func (Reset) commandName() string               { return "reset" }

// Session drives interactive calibration of one needle on one gauge. State is
// derived from which fields are set, never stored.
type Session struct {
	needlePath   string
	needleLoaded bool
	geom         NeedleGeometry
	hasPivot     bool
	hasEnd       bool

	gaugePath     string
	gaugeLoaded   bool
	set           CalibrationSet
	hasGaugePivot bool

	click    Vec
	hasClick bool
}

// NewSession returns an empty session with the default range and scale.
func NewSession() *Session {
	return &Session{set: *NewCalibrationSet(GaugePlacement{})}
}

// NewSessionFrom resumes a persisted calibration. Empty paths leave the
// corresponding artwork unloaded.
func NewSessionFrom(geom NeedleGeometry, set *CalibrationSet, needlePath, gaugePath string) *Session {
	s := NewSession()
	if needlePath != "" {
		s.needlePath = needlePath
		s.needleLoaded = true
		s.geom = geom
		s.hasPivot = true
		s.hasEnd = true
	}
	if set != nil {
		s.set = *set.Clone()
		if s.set.Scale == 0 {
			s.set.Scale = DefaultScale
		}
	}
	if gaugePath != "" {
		s.gaugePath = gaugePath
		s.gaugeLoaded = true
		s.hasGaugePivot = true
	}
	return s
}

// State reports the session's progress. Pending needle fields come before
// pending gauge fields.
func (s *Session) State() State {
	switch {
	case s.needleLoaded && !s.hasPivot:
		return StateNeedlePivotPending
	case s.needleLoaded && !s.hasEnd:
		return StateNeedleEndPending
	case !s.needleLoaded && !s.gaugeLoaded:
		return StateEmpty
	case !s.gaugeLoaded:
		return StateNeedleGeometryComplete
	case !s.hasGaugePivot:
		return StateGaugePivotPending
	case len(s.set.Points) >= MinCalibratedPoints:
		return StateCalibrated
	default:
		return StateGaugePivotSet
	}
}

// Apply runs one command. A command that does not fit the current state
// returns an error wrapping ErrCommandNotAllowed and leaves the session
// unchanged.
func (s *Session) Apply(cmd Command) error {
	before := s.State()
	err := s.apply(cmd)
	if err != nil {
		Logger().Debug("session command rejected", "cmd", cmd.commandName(), "state", before, "err", err)
		return err
	}
	Logger().Debug("session command", "cmd", cmd.commandName(), "from", before, "to", s.State())
	return nil
}

func (s *Session) apply(cmd Command) error {
	switch c := cmd.(type) {
	case LoadNeedle:
		s.needlePath = c.Path
		s.needleLoaded = true
		s.geom = NeedleGeometry{Size: c.Size}
		s.hasPivot, s.hasEnd = false, false

	case SetNeedlePivot:
		if !s.needleLoaded {
			return s.notAllowed(cmd)
		}
		s.geom.Pivot = c.At
		s.hasPivot = true

	case SetNeedleEnd:
		if !s.needleLoaded || !s.hasPivot {
			return s.notAllowed(cmd)
		}
		s.geom.End = c.At
		s.hasEnd = true

	case LoadGauge:
		s.gaugePath = c.Path
		s.gaugeLoaded = true
		s.set.Placement = GaugePlacement{Background: c.Size}
		s.set.Points = nil
		s.hasGaugePivot = false
		s.hasClick = false

	case SetGaugePivot:
		if !s.gaugeLoaded {
			return s.notAllowed(cmd)
		}
		s.set.Placement.Pivot = c.At
		s.hasGaugePivot = true

	case Click:
		return s.applyClick(c)

	case AddCalibrationPoint:
		if !s.hasGaugePivot {
			return s.notAllowed(cmd)
		}
		at := s.click
		switch {
		case c.At != nil:
			at = *c.At
		case !s.hasClick:
			return fmt.Errorf("%s: %w", cmd.commandName(), ErrNoClick)
		}
		s.set.Points = append(s.set.Points, CalibrationPoint{X: at.X, Y: at.Y, Value: c.Value})
		s.hasClick = false

	case MovePoint:
		if !s.hasGaugePivot {
			return s.notAllowed(cmd)
		}
		if c.Index < 0 || c.Index >= len(s.set.Points) {
			return fmt.Errorf("%s %d of %d: %w", cmd.commandName(), c.Index, len(s.set.Points), ErrPointIndex)
		}
		s.set.Points[c.Index].X = c.At.X
		s.set.Points[c.Index].Y = c.At.Y

	case DeleteLastPoint:
		if !s.hasGaugePivot {
			return s.notAllowed(cmd)
		}
		if n := len(s.set.Points); n > 0 {
			s.set.Points = s.set.Points[:n-1]
		}

	case ClearPoints:
		if !s.hasGaugePivot {
			return s.notAllowed(cmd)
		}
		s.set.Points = nil

	case SetScale:
		if c.Scale <= 0 {
			return fmt.Errorf("%s %g: %w", cmd.commandName(), c.Scale, ErrInvalidArgument)
		}
		s.set.Scale = c.Scale

	case SetRange:
		if c.Max <= c.Min {
			return fmt.Errorf("%s [%g, %g]: %w", cmd.commandName(), c.Min, c.Max, ErrInvalidArgument)
		}
		s.set.Min, s.set.Max = c.Min, c.Max

	case Reset:
		return s.applyReset(c)

	default:
		return fmt.Errorf("%s: %w", cmd.commandName(), ErrCommandNotAllowed)
	}
	return nil
}

func (s *Session) applyClick(c Click) error {
	switch s.State() {
	case StateNeedlePivotPending:
		s.geom.Pivot = c.At
		s.hasPivot = true
	case StateNeedleEndPending:
		s.geom.End = c.At
		s.hasEnd = true
	case StateGaugePivotPending:
		s.set.Placement.Pivot = c.At
		s.hasGaugePivot = true
	case StateGaugePivotSet, StateCalibrated:
		s.click = c.At
		s.hasClick = true
	default:
		return s.notAllowed(c)
	}
	return nil
}

func (s *Session) applyReset(c Reset) error {
	switch c.Target {
	case ResetNeedleGeometry:
		if !s.needleLoaded {
			return s.notAllowed(c)
		}
		s.geom.Pivot, s.geom.End = Vec{}, Vec{}
		s.hasPivot, s.hasEnd = false, false
	case ResetGaugePivot:
		if !s.gaugeLoaded {
			return s.notAllowed(c)
		}
		s.set.Placement.Pivot = Vec{}
		s.hasGaugePivot = false
		s.hasClick = false
	case ResetAll:
		s.geom.Pivot, s.geom.End = Vec{}, Vec{}
		s.hasPivot, s.hasEnd = false, false
		s.set.Placement.Pivot = Vec{}
		s.set.Points = nil
		s.hasGaugePivot = false
		s.hasClick = false
	default:
		return fmt.Errorf("%s %d: %w", c.commandName(), c.Target, ErrInvalidArgument)
	}
	return nil
}

func (s *Session) notAllowed(cmd Command) error {
	return fmt.Errorf("%s in state %s: %w", cmd.commandName(), s.State(), ErrCommandNotAllowed)
}

// Geometry returns the needle geometry. ok is false until pivot and end are
// both set.
func (s *Session) Geometry() (NeedleGeometry, bool) {
	return s.geom, s.needleLoaded && s.hasPivot && s.hasEnd
}

// CalibrationSet returns a copy of the calibration collected so far.
func (s *Session) CalibrationSet() *CalibrationSet {
	return s.set.Clone()
}

// Points returns a copy of the calibration points in insertion order.
func (s *Session) Points() []CalibrationPoint {
	return append([]CalibrationPoint(nil), s.set.Points...)
}

// LastClick returns the captured click waiting for a value.
func (s *Session) LastClick() (Vec, bool) {
	return s.click, s.hasClick
}

// NeedlePath returns the loaded needle artwork path.
func (s *Session) NeedlePath() string { return s.needlePath }

// GaugePath returns the loaded gauge background path.
func (s *Session) GaugePath() string { return s.gaugePath }

// NearestPoint returns the index of the point closest to at within radius
// pixels, or -1.
func (s *Session) NearestPoint(at Vec, radius float64) int {
	best, bestD := -1, radius
	for i, p := range s.set.Points {
		if d := Distance(at, p.Pos()); d <= bestD {
			best, bestD = i, d
		}
	}
	return best
}
