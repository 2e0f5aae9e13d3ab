package resolver

import "math"

const (
	DefaultQuality = 90
	MinQuality     = 1
	MaxQuality     = 100

	// MaxDimension is the largest side a JPEG can encode.
	MaxDimension = 65535

	// OriginalPreset is the synthetic preset mirroring the loaded image size.
	OriginalPreset = "Original"
)

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

type Preset struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

func (p Preset) Dimensions() Dimensions {
	return Dimensions{Width: p.Width, Height: p.Height}
}

// State is everything the resolver knows about one loaded image.
// A zero AspectRatio means nothing has been loaded yet.
type State struct {
	Original    Dimensions `json:"original"`
	Target      Dimensions `json:"target"`
	AspectRatio float64    `json:"aspect_ratio"`
	Locked      bool       `json:"lock_aspect_ratio"`
	Quality     int        `json:"quality"`
}

func NewState() State {
	return State{
		Locked:  true,
		Quality: DefaultQuality,
	}
}

func (s State) Loaded() bool {
	return s.AspectRatio > 0
}

// SetOriginal seeds the state from a freshly decoded image. The lock flag and
// quality survive a new upload; everything else is replaced.
func SetOriginal(s State, width, height int) State {
	if width <= 0 || height <= 0 {
		return s
	}

	original := Dimensions{Width: width, Height: height}
	s.Original = original
	s.Target = original
	s.AspectRatio = float64(width) / float64(height)
	return s
}

func SetWidth(s State, raw string) State {
	if !s.Loaded() {
		return s
	}

	width, ok := ParseDimension(raw)
	if !ok {
		return s
	}

	if s.Locked {
		s.Target.Height = heightFor(width, s.AspectRatio)
	}
	s.Target.Width = width
	return s
}

func SetHeight(s State, raw string) State {
	if !s.Loaded() {
		return s
	}

	height, ok := ParseDimension(raw)
	if !ok {
		return s
	}

	if s.Locked {
		s.Target.Width = widthFor(height, s.AspectRatio)
	}
	s.Target.Height = height
	return s
}

// SetLock flips the aspect ratio lock. Turning it on re-derives the height
// from the current width; turning it off leaves both values editable as-is.
func SetLock(s State, enabled bool) State {
	s.Locked = enabled
	if enabled && s.Loaded() && s.Target.Width > 0 {
		s.Target.Height = heightFor(s.Target.Width, s.AspectRatio)
	}
	return s
}

// ApplyPreset moves the target to a preset. With the lock on the result is the
// largest box that fits inside the preset and keeps the original ratio.
func ApplyPreset(s State, p Preset) State {
	if !s.Loaded() {
		return s
	}

	if p.Name == OriginalPreset {
		s.Target = s.Original
		return s
	}

	if !p.Dimensions().Valid() {
		return s
	}

	if !s.Locked {
		s.Target = p.Dimensions()
		return s
	}

	s.Target = FitInside(p.Dimensions(), s.AspectRatio)
	return s
}

func SetQuality(s State, raw string) State {
	quality, ok := ParseInt(raw)
	if !ok || quality < MinQuality || quality > MaxQuality {
		return s
	}
	s.Quality = quality
	return s
}

// FitInside returns the largest size with the given ratio that fits in box.
func FitInside(box Dimensions, ratio float64) Dimensions {
	boxRatio := float64(box.Width) / float64(box.Height)
	if boxRatio > ratio {
		// height is the limiting side
		return Dimensions{
			Width:  widthFor(box.Height, ratio),
			Height: box.Height,
		}
	}
	return Dimensions{
		Width:  box.Width,
		Height: heightFor(box.Width, ratio),
	}
}

func heightFor(width int, ratio float64) int {
	return roundPixels(float64(width) / ratio)
}

func widthFor(height int, ratio float64) int {
	return roundPixels(float64(height) * ratio)
}

// roundPixels rounds half away from zero and never returns less than one pixel.
func roundPixels(v float64) int {
	return max(1, int(math.Round(v)))
}
