package preset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/phambaophuc/image-resizer/internal/resolver"
)

var ErrInvalidPreset = errors.New("invalid preset")

// DefaultPresets is the built-in catalog, in display order. The synthetic
// Original entry is not part of it; Catalog adds it per image.
func DefaultPresets() []resolver.Preset {
	return []resolver.Preset{
		{Name: "HD", Width: 1920, Height: 1080},
		{Name: "Full HD", Width: 1280, Height: 720},
		{Name: "Social Media", Width: 1200, Height: 630},
		{Name: "Instagram Square", Width: 1080, Height: 1080},
		{Name: "Thumbnail", Width: 400, Height: 300},
	}
}

// Catalog is the read-mostly list of static presets. Replace may be called
// from the file watcher while handlers are reading.
type Catalog struct {
	mu      sync.RWMutex
	presets []resolver.Preset
}

func NewCatalog(presets []resolver.Preset) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(presets); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Replace(presets []resolver.Preset) error {
	if err := Validate(presets); err != nil {
		return err
	}

	cp := make([]resolver.Preset, len(presets))
	copy(cp, presets)

	c.mu.Lock()
	c.presets = cp
	c.mu.Unlock()
	return nil
}

// List returns the Original entry for the given image followed by the
// static presets.
func (c *Catalog) List(original resolver.Dimensions) []resolver.Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]resolver.Preset, 0, len(c.presets)+1)
	out = append(out, originalPreset(original))
	out = append(out, c.presets...)
	return out
}

func (c *Catalog) Lookup(name string, original resolver.Dimensions) (resolver.Preset, bool) {
	if name == resolver.OriginalPreset {
		return originalPreset(original), true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.presets {
		if p.Name == name {
			return p, true
		}
	}
	return resolver.Preset{}, false
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.presets)
}

func Validate(presets []resolver.Preset) error {
	seen := make(map[string]struct{}, len(presets))

	for i, p := range presets {
		switch {
		case p.Name == "":
			return fmt.Errorf("%w: entry %d has no name", ErrInvalidPreset, i)
		case p.Name == resolver.OriginalPreset:
			return fmt.Errorf("%w: %q is reserved", ErrInvalidPreset, p.Name)
		case p.Width <= 0 || p.Height <= 0:
			return fmt.Errorf("%w: %q must have a positive size, got %dx%d", ErrInvalidPreset, p.Name, p.Width, p.Height)
		case p.Width > resolver.MaxDimension || p.Height > resolver.MaxDimension:
			return fmt.Errorf("%w: %q exceeds %d pixels per side", ErrInvalidPreset, p.Name, resolver.MaxDimension)
		}

		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidPreset, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func Label(p resolver.Preset) string {
	return fmt.Sprintf("%s (%dx%d)", p.Name, p.Width, p.Height)
}

func originalPreset(original resolver.Dimensions) resolver.Preset {
	return resolver.Preset{
		Name:   resolver.OriginalPreset,
		Width:  original.Width,
		Height: original.Height,
	}
}
