package calibfile

import (
	"errors"
	"fmt"

	"needle-gauge.klederson.com/internal/gauge"
)

// Geometry returns the needle geometry stored in e. The file does not record
// the artwork size, so the caller passes the size it loaded.
func (e *Entry) Geometry(needleSize gauge.Vec) gauge.NeedleGeometry {
	return gauge.NeedleGeometry{
		Pivot: gauge.Vec{X: e.NeedlePivotX, Y: e.NeedlePivotY},
		End:   gauge.Vec{X: e.NeedleEndX, Y: e.NeedleEndY},
		Size:  needleSize,
	}
}

// CalibrationSet returns the calibration stored in e on a background of the
// given native size.
func (e *Entry) CalibrationSet(bgSize gauge.Vec) *gauge.CalibrationSet {
	set := gauge.NewCalibrationSet(gauge.GaugePlacement{
		Pivot:      gauge.Vec{X: e.GaugePivotX, Y: e.GaugePivotY},
		Background: bgSize,
	})
	set.Points = make([]gauge.CalibrationPoint, len(e.Points))
	for i, p := range e.Points {
		set.Points[i] = gauge.CalibrationPoint{X: p.X, Y: p.Y, Value: p.Value}
	}
	set.Min, set.Max = e.MinValue, e.MaxValue
	if e.NeedleScale > 0 {
		set.Scale = e.NeedleScale
	}
	return set
}

// EntryFrom builds an entry from a finished calibration.
func EntryFrom(needlePath string, geom gauge.NeedleGeometry, set *gauge.CalibrationSet) *Entry {
	e := &Entry{
		NeedleImagePath: needlePath,
		GaugePivotX:     set.Placement.Pivot.X,
		GaugePivotY:     set.Placement.Pivot.Y,
		NeedlePivotX:    geom.Pivot.X,
		NeedlePivotY:    geom.Pivot.Y,
		NeedleEndX:      geom.End.X,
		NeedleEndY:      geom.End.Y,
		Points:          make([]Point, len(set.Points)),
		NeedleScale:     set.Scale,
		MinValue:        set.Min,
		MaxValue:        set.Max,
	}
	for i, p := range set.Points {
		e.Points[i] = Point{X: p.X, Y: p.Y, Value: p.Value}
	}
	if e.NeedleScale <= 0 {
		e.NeedleScale = gauge.DefaultScale
	}
	return e
}

// Sizer reports the native pixel size of artwork.
type Sizer interface {
	Size(path string) (gauge.Vec, error)
}

// Apply calibrates every entry into reg against a background of native size
// bg. Needle sizes are looked up through needles, with image paths resolved
// against the document. Needles whose artwork cannot be sized are still
// calibrated with an unknown size; their errors are joined and returned.
func (f *File) Apply(reg *gauge.Registry, bg gauge.Vec, needles Sizer) error {
	var errs []error
	for _, id := range f.IDs() {
		e := f.Needles[id]
		var size gauge.Vec
		if needles != nil && e.NeedleImagePath != "" {
			s, err := needles.Size(f.Resolve(e.NeedleImagePath))
			if err != nil {
				errs = append(errs, fmt.Errorf("calibfile: needle %q: %w", id, err))
			} else {
				size = s
			}
		}
		geom := e.Geometry(size)
		reg.Calibrate(id, &geom, e.CalibrationSet(bg))
	}
	return errors.Join(errs...)
}
