// Package artwork loads gauge backgrounds and needle sprites.
package artwork

import (
	"fmt"
	"image"
	"os"
	"sync"

	"needle-gauge.klederson.com/internal/gauge"
)

// Artwork is a decoded image file.
type Artwork struct {
	Path   string
	Format string
	img    *image.NRGBA
}

// Image returns the decoded pixels. Callers must not modify them.
func (a *Artwork) Image() *image.NRGBA { return a.img }

// Size returns the native pixel size.
func (a *Artwork) Size() gauge.Vec {
	b := a.img.Bounds()
	return gauge.Vec{X: float64(b.Dx()), Y: float64(b.Dy())}
}

// Load reads and decodes one file without caching.
func Load(path string) (*Artwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artwork: read %s: %w", path, err)
	}
	defer f.Close()

	img, err := Decode(f, path)
	if err != nil {
		return nil, err
	}
	return &Artwork{Path: path, Format: FormatOf(path), img: img}, nil
}

// Cache is a concurrency-safe artwork cache keyed by path. Failed loads are
// not cached.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Artwork
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]*Artwork)}
}

// Load returns the artwork at path, decoding it on first use.
func (c *Cache) Load(path string) (*Artwork, error) {
	c.mu.RLock()
	if a, ok := c.items[path]; ok {
		c.mu.RUnlock()
		return a, nil
	}
	c.mu.RUnlock()

	a, err := Load(path)
	if err != nil {
		gauge.Logger().Warn("artwork load failed", "path", path, "err", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[path]; ok {
		return existing, nil
	}
	c.items[path] = a
	gauge.Logger().Debug("artwork loaded", "path", path, "format", a.Format, "size", a.Size())
	return a, nil
}

// Size returns the native size of the artwork at path.
func (c *Cache) Size(path string) (gauge.Vec, error) {
	a, err := c.Load(path)
	if err != nil {
		return gauge.Vec{}, err
	}
	return a.Size(), nil
}

// Clear drops every cached image.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := len(c.items)
	c.items = make(map[string]*Artwork)
	c.mu.Unlock()
	gauge.Logger().Debug("artwork cache cleared", "items", n)
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
