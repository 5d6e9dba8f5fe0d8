package gauge

// Role decides which scale bounds apply to a needle.
type Role int

const (
	RoleCustom Role = iota
	RolePrimary
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	default:
		return "custom"
	}
}

// Primary needle ids. Any other id is a custom needle.
const (
	NeedleMain  = "main"
	NeedleFuel  = "fuel"
	NeedleWater = "water"
)

// RoleOf classifies a needle id.
func RoleOf(id string) Role {
	switch id {
	case NeedleMain, NeedleFuel, NeedleWater:
		return RolePrimary
	default:
		return RoleCustom
	}
}

// FallbackAngle maps a value on an assumed 0..100 range onto a semicircle
// from 270 (up) to 90 (down) through 180. Uncalibrated needles use it.
// Values below 0 pin at 270; values above 100 keep turning past 90.
func FallbackAngle(value float64) float64 {
	if !(value > 0) {
		value = 0
	}
	return NormalizeDegrees(270 - 180*(value/100))
}

// NeedleInstance is one rendered needle on a gauge. Geometry and Calibration
// are nil until the needle is calibrated. Value and Target belong to the
// caller: the core reads them and never changes them.
type NeedleInstance struct {
	ID    string
	Role  Role
	Value float64
	// Target is where Value is heading; smoothing is the caller's job.
	Target float64
	Scale  float64

	Geometry    *NeedleGeometry
	Calibration *CalibrationSet

	resolver *Resolver
}

// Calibrated reports whether the needle has a calibration with points.
func (n *NeedleInstance) Calibrated() bool {
	return n.Calibration != nil && n.resolver.Len() > 0
}

// Resolver returns the needle's resolver, or nil when uncalibrated.
func (n *NeedleInstance) Resolver() *Resolver {
	return n.resolver
}

// Angle returns the needle angle for its current Value.
func (n *NeedleInstance) Angle() float64 {
	return n.AngleFor(n.Value)
}

// AngleFor returns the needle angle for v, using the calibration when
// present and FallbackAngle otherwise.
func (n *NeedleInstance) AngleFor(v float64) float64 {
	if n.Calibrated() {
		return n.resolver.ValueToAngle(v)
	}
	return FallbackAngle(v)
}

// Transform computes this frame's placement for the needle on a background
// drawn at origin with size live. Uncalibrated needles are placed at the
// live centre with the fallback length. The instance Scale takes the place
// of the calibration's stored scale.
func (n *NeedleInstance) Transform(live, origin Vec) Transform {
	var geom NeedleGeometry
	if n.Geometry != nil {
		geom = *n.Geometry
	}
	return n.TransformWith(live, origin, geom)
}

// TransformWith is Transform for a needle drawn with artwork other than its
// own, such as a stand-in sprite for a needle that has none.
func (n *NeedleInstance) TransformWith(live, origin Vec, geom NeedleGeometry) Transform {
	set := CalibrationSet{Scale: n.Scale}
	if n.Calibration != nil {
		set = *n.Calibration
		set.Scale = n.Scale
	}
	return ComputeTransform(live, origin, geom, &set, n.Angle())
}

// Smooth moves current a fraction of the way to target. Callers run it once
// per animation tick.
func Smooth(current, target, factor float64) float64 {
	return current + (target-current)*factor
}
