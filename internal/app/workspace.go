package app

import (
	"errors"
	"fmt"
	"io/fs"

	"needle-gauge.klederson.com/internal/artwork"
	"needle-gauge.klederson.com/internal/calibfile"
	"needle-gauge.klederson.com/internal/compose"
	"needle-gauge.klederson.com/internal/gauge"
)

// Workspace is a gauge background, its calibration file and the needle
// registry built from them.
type Workspace struct {
	ConfigPath string
	GaugePath  string

	File       *calibfile.File
	Registry   *gauge.Registry
	Cache      *artwork.Cache
	Background *artwork.Artwork

	// Warning holds non-fatal load problems, such as needle artwork that
	// could not be sized.
	Warning error

	opts []gauge.RegistryOption
}

// Open loads a workspace. A config path that does not exist yet starts an
// empty document that will be created on save. An empty gauge path leaves
// the background unknown. When the file names no needles the registry gets
// an uncalibrated main needle.
func Open(configPath, gaugePath string, opts ...gauge.RegistryOption) (*Workspace, error) {
	w := &Workspace{
		ConfigPath: configPath,
		GaugePath:  gaugePath,
		Cache:      artwork.NewCache(),
		opts:       opts,
	}
	if err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) load() error {
	var bg gauge.Vec
	w.Background = nil
	if w.GaugePath != "" {
		a, err := w.Cache.Load(w.GaugePath)
		if err != nil {
			return fmt.Errorf("gauge background: %w", err)
		}
		w.Background = a
		bg = a.Size()
	}

	f, err := LoadConfig(w.ConfigPath)
	if err != nil {
		return err
	}
	w.File = f

	w.Registry = gauge.NewRegistry(w.opts...)
	w.Warning = f.Apply(w.Registry, bg, w.Cache)
	if w.Warning != nil {
		gauge.Logger().Warn("needle artwork unavailable", "err", w.Warning)
	}
	if w.Registry.Len() == 0 {
		w.Registry.Add(gauge.NeedleMain, 0, gauge.DefaultScale)
	}
	return nil
}

// LoadConfig reads a calibration file. A path that does not exist yet gives
// an empty document that will be created there on save.
func LoadConfig(path string) (*calibfile.File, error) {
	if path == "" {
		return calibfile.New(), nil
	}
	f, err := calibfile.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f = calibfile.New()
		f.Path = path
		return f, nil
	}
	return f, err
}

// Reload re-reads the background and the calibration file from disk.
// Needle values carry over for ids that still exist.
func (w *Workspace) Reload() error {
	old := w.Registry
	w.Cache.Clear()
	if err := w.load(); err != nil {
		return err
	}
	for _, n := range old.Needles() {
		if cur, ok := w.Registry.Get(n.ID); ok {
			cur.Value, cur.Target = n.Value, n.Target
		}
	}
	return nil
}

// BackgroundSize returns the background's native size, or zero when there
// is no background.
func (w *Workspace) BackgroundSize() gauge.Vec {
	if w.Background == nil {
		return gauge.Vec{}
	}
	return w.Background.Size()
}

// NeedlePaths maps each calibrated needle id to its resolved artwork path.
func (w *Workspace) NeedlePaths() map[string]string {
	paths := make(map[string]string, len(w.File.Needles))
	for id, e := range w.File.Needles {
		if e.NeedleImagePath != "" {
			paths[id] = w.File.Resolve(e.NeedleImagePath)
		}
	}
	return paths
}

// Sprites returns the needle artwork lookup for compose.Frame.
func (w *Workspace) Sprites() compose.SpriteFunc {
	return compose.ArtworkSprites(w.Cache, w.NeedlePaths())
}

// SaveScales copies every needle's current scale into the file and writes
// it. Needles without a file entry are skipped.
func (w *Workspace) SaveScales() (int, error) {
	if w.File.Path == "" {
		return 0, errors.New("no config file to write")
	}
	saved := 0
	for _, n := range w.Registry.Needles() {
		if w.File.SetScale(n.ID, n.Scale) {
			saved++
		}
	}
	if err := calibfile.WriteFile(w.File.Path, w.File); err != nil {
		return 0, err
	}
	return saved, nil
}
