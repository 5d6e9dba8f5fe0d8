package gauge

import (
	"sort"
)

// ScaleBounds limits the needle length multiplier.
type ScaleBounds struct {
	Min, Max float64
}

// Clamp limits s to the bounds.
func (b ScaleBounds) Clamp(s float64) float64 {
	return max(b.Min, min(s, b.Max))
}

// Default scale bounds per role. Custom needles have historically been
// limited to 2x while the primary needles allow 4x.
var (
	DefaultCustomBounds  = ScaleBounds{Min: 0.5, Max: 2.0}
	DefaultPrimaryBounds = ScaleBounds{Min: 0.5, Max: 4.0}
)

// Registry holds the needles of one gauge keyed by id.
//
// It has no internal locking. The embedding application must apply all
// mutations from a single goroutine or copy before reading concurrently.
type Registry struct {
	needles map[string]*NeedleInstance
	bounds  map[Role]ScaleBounds
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithScaleBounds overrides the scale clamp for one role.
func WithScaleBounds(role Role, b ScaleBounds) RegistryOption {
	return func(r *Registry) {
		r.bounds[role] = b
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		needles: make(map[string]*NeedleInstance),
		bounds: map[Role]ScaleBounds{
			RoleCustom:  DefaultCustomBounds,
			RolePrimary: DefaultPrimaryBounds,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bounds returns the scale bounds for role.
func (r *Registry) Bounds(role Role) ScaleBounds {
	return r.bounds[role]
}

// Add creates the needle if absent. An existing needle only has its value
// updated; its scale is kept.
func (r *Registry) Add(id string, value, scale float64) *NeedleInstance {
	if n, ok := r.needles[id]; ok {
		n.Value = value
		n.Target = value
		return n
	}
	role := RoleOf(id)
	n := &NeedleInstance{
		ID:     id,
		Role:   role,
		Value:  value,
		Target: value,
		Scale:  r.bounds[role].Clamp(scale),
	}
	r.needles[id] = n
	Logger().Debug("needle added", "id", id, "role", role, "scale", n.Scale)
	return n
}

// SetValue sets the needle's value and target, creating it if absent.
func (r *Registry) SetValue(id string, value float64) {
	r.getOrCreate(id).Value = value
	r.needles[id].Target = value
}

// SetTarget sets only the target value, creating the needle if absent.
func (r *Registry) SetTarget(id string, target float64) {
	r.getOrCreate(id).Target = target
}

// SetScale sets the needle's length multiplier clamped to its role's
// bounds, creating the needle if absent. It returns the stored scale.
func (r *Registry) SetScale(id string, scale float64) float64 {
	n := r.getOrCreate(id)
	n.Scale = r.bounds[n.Role].Clamp(scale)
	return n.Scale
}

// Calibrate attaches geometry and calibration to the needle, creating it if
// absent, and rebuilds its resolver. The needle takes its scale from set.
func (r *Registry) Calibrate(id string, geom *NeedleGeometry, set *CalibrationSet) *NeedleInstance {
	n := r.getOrCreate(id)
	n.Geometry = geom
	n.Calibration = set
	n.resolver = nil
	if set != nil {
		n.resolver = set.Resolver()
		if set.Scale != 0 {
			n.Scale = r.bounds[n.Role].Clamp(set.Scale)
		}
	}
	Logger().Debug("needle calibrated", "id", id, "points", n.resolver.Len(), "scale", n.Scale)
	return n
}

// Uncalibrate drops the needle's calibration so it uses the fallback mapping.
func (r *Registry) Uncalibrate(id string) {
	if n, ok := r.needles[id]; ok {
		n.Calibration = nil
		n.Geometry = nil
		n.resolver = nil
	}
}

// Remove deletes a needle. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	if _, ok := r.needles[id]; ok {
		delete(r.needles, id)
		Logger().Debug("needle removed", "id", id)
	}
}

// Get returns the needle for id.
func (r *Registry) Get(id string) (*NeedleInstance, bool) {
	n, ok := r.needles[id]
	return n, ok
}

// List returns the needle ids in sorted order.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.needles))
	for id := range r.needles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Needles returns the needles in List order.
func (r *Registry) Needles() []*NeedleInstance {
	ids := r.List()
	out := make([]*NeedleInstance, len(ids))
	for i, id := range ids {
		out[i] = r.needles[id]
	}
	return out
}

// Len returns the number of needles.
func (r *Registry) Len() int {
	return len(r.needles)
}

func (r *Registry) getOrCreate(id string) *NeedleInstance {
	if n, ok := r.needles[id]; ok {
		return n
	}
	return r.Add(id, 0, DefaultScale)
}
