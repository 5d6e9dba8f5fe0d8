package app

// ValueHistory keeps the latest values of one needle for the sparkline and
// a peak-hold reading, like the telltale hand on a tachometer.
type ValueHistory struct {
	size int
	vals []float64

	peak    float64
	hasPeak bool
}

// NewValueHistory keeps up to size values.
func NewValueHistory(size int) *ValueHistory {
	size = max(1, size)
	return &ValueHistory{size: size, vals: make([]float64, 0, 2*size)}
}

// Push records v and raises the peak when v exceeds it.
func (h *ValueHistory) Push(v float64) {
	// Trim in bulk once the backing array is full.
	if len(h.vals) == cap(h.vals) {
		n := copy(h.vals, h.vals[len(h.vals)-h.size+1:])
		h.vals = h.vals[:n]
	}
	h.vals = append(h.vals, v)
	if !h.hasPeak || v > h.peak {
		h.peak, h.hasPeak = v, true
	}
}

// Values returns the kept values, oldest first.
func (h *ValueHistory) Values() []float64 {
	if h.Len() == 0 {
		return nil
	}
	return append([]float64(nil), h.vals[len(h.vals)-h.Len():]...)
}

// Last returns the newest value, or 0 when empty.
func (h *ValueHistory) Last() float64 {
	if len(h.vals) == 0 {
		return 0
	}
	return h.vals[len(h.vals)-1]
}

// Len returns how many values are kept.
func (h *ValueHistory) Len() int {
	return min(len(h.vals), h.size)
}

// Peak returns the highest value pushed since the last ResetPeak.
func (h *ValueHistory) Peak() (float64, bool) {
	return h.peak, h.hasPeak
}

// ResetPeak drops the held peak; the next Push sets it again.
func (h *ValueHistory) ResetPeak() {
	h.peak, h.hasPeak = 0, false
}
