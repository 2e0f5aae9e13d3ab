package workspace

import (
	"errors"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-resizer/internal/resolver"
	"github.com/phambaophuc/image-resizer/internal/services/preset"
	"github.com/phambaophuc/image-resizer/internal/services/processor"
)

var (
	ErrNoImageLoaded = errors.New("no image loaded")
	ErrStaleImage    = errors.New("image has been replaced")
)

// Snapshot is a copy of the workspace taken under the lock.
type Snapshot struct {
	ImageID  string
	Filename string
	Format   string
	State    resolver.State
}

func (s Snapshot) Loaded() bool {
	return s.ImageID != "" && s.State.Loaded()
}

// ExportJob carries everything an export needs once the lock is released.
type ExportJob struct {
	ImageID string
	Image   image.Image
	Size    resolver.Dimensions
	Quality int
}

// Workspace owns the state of the single loaded image. Every method runs to
// completion under one mutex, so events are applied strictly in order.
type Workspace struct {
	mu       sync.Mutex
	catalog  *preset.Catalog
	state    resolver.State
	image    image.Image
	imageID  string
	filename string
	format   string
}

func New(catalog *preset.Catalog) *Workspace {
	return &Workspace{
		catalog: catalog,
		state:   resolver.NewState(),
	}
}

// Load replaces the current image wholesale.
func (w *Workspace) Load(decoded *processor.Decoded, filename string) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.image = decoded.Image
	w.imageID = uuid.New().String()
	w.filename = filename
	w.format = decoded.Format
	w.state = resolver.Resolve(w.state, resolver.Event{
		Kind:     resolver.EventLoad,
		Original: decoded.Size,
	})

	return w.snapshotLocked()
}

// Dispatch applies one user event and reports whether the state changed.
// Preset events are resolved by name against the catalog first; an unknown
// name leaves the state alone.
func (w *Workspace) Dispatch(ev resolver.Event, presetName string) (Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	before := w.state

	if ev.Kind == resolver.EventPreset {
		p, ok := w.catalog.Lookup(presetName, w.state.Original)
		if !ok {
			return w.snapshotLocked(), false
		}
		ev.Preset = p
	}

	w.state = resolver.Resolve(w.state, ev)
	return w.snapshotLocked(), w.state != before
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// ExportJob captures the current target. A non-empty imageID must match the
// loaded image, so a request built against an older upload is refused.
func (w *Workspace) ExportJob(imageID string) (ExportJob, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.image == nil || !w.state.Loaded() {
		return ExportJob{}, ErrNoImageLoaded
	}
	if imageID != "" && imageID != w.imageID {
		return ExportJob{}, ErrStaleImage
	}

	return ExportJob{
		ImageID: w.imageID,
		Image:   w.image,
		Size:    w.state.Target,
		Quality: w.state.Quality,
	}, nil
}

func (w *Workspace) Presets() []resolver.Preset {
	w.mu.Lock()
	original := w.state.Original
	w.mu.Unlock()
	return w.catalog.List(original)
}

func (w *Workspace) snapshotLocked() Snapshot {
	return Snapshot{
		ImageID:  w.imageID,
		Filename: w.filename,
		Format:   w.format,
		State:    w.state,
	}
}
