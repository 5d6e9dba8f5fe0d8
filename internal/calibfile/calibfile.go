// Package calibfile reads and writes persisted needle calibrations.
//
// The document format is
//
//	{ "needle_calibrations": { "<needleId>": { ...Entry... } } }
//
// Coordinates are in the native pixel space of the artwork they were
// clicked on. Other top-level keys are carried through unchanged.
package calibfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"needle-gauge.klederson.com/internal/gauge"
)

const calibrationsKey = "needle_calibrations"

// Default range applied when an entry omits min_value / max_value.
const (
	DefaultMinValue = 0
	DefaultMaxValue = 100
)

// Point is one persisted calibration point.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Entry is the persisted calibration of one needle.
type Entry struct {
	NeedleImagePath string  `json:"needle_image_path"`
	GaugePivotX     float64 `json:"gauge_pivot_x"`
	GaugePivotY     float64 `json:"gauge_pivot_y"`
	NeedlePivotX    float64 `json:"needle_pivot_x"`
	NeedlePivotY    float64 `json:"needle_pivot_y"`
	NeedleEndX      float64 `json:"needle_end_x"`
	NeedleEndY      float64 `json:"needle_end_y"`
	Points          []Point `json:"calibration_points"`
	NeedleScale     float64 `json:"needle_scale"`
	MinValue        float64 `json:"min_value"`
	MaxValue        float64 `json:"max_value"`
}

// SkippedPoint records a calibration point dropped while decoding.
type SkippedPoint struct {
	Needle string
	Index  int
	Reason string
}

func (s SkippedPoint) String() string {
	return fmt.Sprintf("%s point %d: %s", s.Needle, s.Index, s.Reason)
}

// File is a decoded calibration document.
type File struct {
	// Path is set by ReadFile and used to resolve relative image paths.
	Path    string
	Needles map[string]*Entry
	// Skipped lists malformed points dropped by Decode.
	Skipped []SkippedPoint

	extra map[string]json.RawMessage
}

// New returns an empty document.
func New() *File {
	return &File{Needles: make(map[string]*Entry)}
}

// rawEntry mirrors Entry with optional members so missing keys can be told
// apart from zeros.
type rawEntry struct {
	NeedleImagePath string            `json:"needle_image_path"`
	GaugePivotX     float64           `json:"gauge_pivot_x"`
	GaugePivotY     float64           `json:"gauge_pivot_y"`
	NeedlePivotX    float64           `json:"needle_pivot_x"`
	NeedlePivotY    float64           `json:"needle_pivot_y"`
	NeedleEndX      float64           `json:"needle_end_x"`
	NeedleEndY      float64           `json:"needle_end_y"`
	Points          []json.RawMessage `json:"calibration_points"`
	NeedleScale     *float64          `json:"needle_scale"`
	MinValue        *float64          `json:"min_value"`
	MaxValue        *float64          `json:"max_value"`
}

// Decode parses a document. Malformed calibration points are skipped and
// listed in File.Skipped; anything else that does not parse is an error.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("calibfile: read: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("calibfile: parse: %w", err)
	}

	f := New()
	f.extra = top
	raw, ok := top[calibrationsKey]
	delete(f.extra, calibrationsKey)
	if !ok || isNull(raw) {
		return f, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("calibfile: parse %s: %w", calibrationsKey, err)
	}
	for id, msg := range entries {
		e, skipped, err := decodeEntry(id, msg)
		if err != nil {
			return nil, err
		}
		f.Needles[id] = e
		f.Skipped = append(f.Skipped, skipped...)
	}

	sort.Slice(f.Skipped, func(i, j int) bool {
		if f.Skipped[i].Needle != f.Skipped[j].Needle {
			return f.Skipped[i].Needle < f.Skipped[j].Needle
		}
		return f.Skipped[i].Index < f.Skipped[j].Index
	})
	for _, s := range f.Skipped {
		gauge.Logger().Warn("calibration point skipped", "needle", s.Needle, "index", s.Index, "reason", s.Reason)
	}
	return f, nil
}

func decodeEntry(id string, msg json.RawMessage) (*Entry, []SkippedPoint, error) {
	var re rawEntry
	if err := json.Unmarshal(msg, &re); err != nil {
		return nil, nil, fmt.Errorf("calibfile: needle %q: %w", id, err)
	}

	e := &Entry{
		NeedleImagePath: re.NeedleImagePath,
		GaugePivotX:     re.GaugePivotX,
		GaugePivotY:     re.GaugePivotY,
		NeedlePivotX:    re.NeedlePivotX,
		NeedlePivotY:    re.NeedlePivotY,
		NeedleEndX:      re.NeedleEndX,
		NeedleEndY:      re.NeedleEndY,
		Points:          make([]Point, 0, len(re.Points)),
		NeedleScale:     gauge.DefaultScale,
		MinValue:        DefaultMinValue,
		MaxValue:        DefaultMaxValue,
	}
	if re.NeedleScale != nil && *re.NeedleScale > 0 {
		e.NeedleScale = *re.NeedleScale
	}
	if re.MinValue != nil {
		e.MinValue = *re.MinValue
	}
	if re.MaxValue != nil {
		e.MaxValue = *re.MaxValue
	}

	var skipped []SkippedPoint
	for i, pm := range re.Points {
		p, err := decodePoint(pm)
		if err != nil {
			skipped = append(skipped, SkippedPoint{Needle: id, Index: i, Reason: err.Error()})
			continue
		}
		e.Points = append(e.Points, p)
	}
	return e, skipped, nil
}

func decodePoint(msg json.RawMessage) (Point, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil || obj == nil {
		return Point{}, errors.New("not an object")
	}
	var p Point
	for _, m := range []struct {
		key string
		dst *float64
	}{
		{"x", &p.X},
		{"y", &p.Y},
		{"value", &p.Value},
	} {
		raw, ok := obj[m.key]
		if !ok || isNull(raw) {
			return Point{}, fmt.Errorf("missing %s", m.key)
		}
		if err := json.Unmarshal(raw, m.dst); err != nil {
			return Point{}, fmt.Errorf("%s is not a number", m.key)
		}
	}
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Encode writes the document with two-space indentation.
func Encode(w io.Writer, f *File) error {
	top := make(map[string]any, len(f.extra)+1)
	for k, v := range f.extra {
		top[k] = v
	}
	needles := make(map[string]*Entry, len(f.Needles))
	for id, e := range f.Needles {
		c := *e
		if c.Points == nil {
			c.Points = []Point{}
		}
		needles[id] = &c
	}
	top[calibrationsKey] = needles

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(top); err != nil {
		return fmt.Errorf("calibfile: encode: %w", err)
	}
	return nil
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("calibfile: read %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("calibfile: %s: %w", path, err)
	}
	f.Path = path
	gauge.Logger().Info("calibration loaded", "path", path, "needles", len(f.Needles), "skipped", len(f.Skipped))
	return f, nil
}

// WriteFile encodes f to path, replacing it atomically.
func WriteFile(path string, f *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("calibfile: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("calibfile: write %s: %w", path, err)
	}
	gauge.Logger().Info("calibration saved", "path", path, "needles", len(f.Needles))
	return nil
}

// IDs returns the needle ids in sorted order.
func (f *File) IDs() []string {
	ids := make([]string, 0, len(f.Needles))
	for id := range f.Needles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Set stores the entry for id, replacing any existing one.
func (f *File) Set(id string, e *Entry) {
	if f.Needles == nil {
		f.Needles = make(map[string]*Entry)
	}
	f.Needles[id] = e
}

// Delete removes the entry for id.
func (f *File) Delete(id string) {
	delete(f.Needles, id)
}

// SetScale updates the stored needle scale. It reports false when id has no
// entry.
func (f *File) SetScale(id string, scale float64) bool {
	e, ok := f.Needles[id]
	if ok {
		e.NeedleScale = scale
	}
	return ok
}

// Resolve returns p relative to the document's directory unless it is
// absolute or the document has no path.
func (f *File) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || f.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(f.Path), p)
}

// Relative is the inverse of Resolve: it returns p relative to the
// document's directory when p lies beneath it, and p unchanged otherwise.
func (f *File) Relative(p string) string {
	if p == "" || f.Path == "" {
		return p
	}
	base, err := filepath.Abs(filepath.Dir(f.Path))
	if err != nil {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.ToSlash(rel)
}
