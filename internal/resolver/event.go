package resolver

import "fmt"

type EventKind string

const (
	EventLoad    EventKind = "load"
	EventWidth   EventKind = "width"
	EventHeight  EventKind = "height"
	EventLock    EventKind = "lock"
	EventPreset  EventKind = "preset"
	EventQuality EventKind = "quality"
)

func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventLoad, EventWidth, EventHeight, EventLock, EventPreset, EventQuality:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

// Event is one user action. Only the fields relevant to Kind are read.
type Event struct {
	Kind     EventKind
	Value    string
	Enabled  bool
	Preset   Preset
	Original Dimensions
}

// Resolve applies ev to s and returns the new state. It never mutates s and
// has no side effects, so replaying the same events gives the same result.
func Resolve(s State, ev Event) State {
	switch ev.Kind {
	case EventLoad:
		return SetOriginal(s, ev.Original.Width, ev.Original.Height)
	case EventWidth:
		return SetWidth(s, ev.Value)
	case EventHeight:
		return SetHeight(s, ev.Value)
	case EventLock:
		return SetLock(s, ev.Enabled)
	case EventPreset:
		return ApplyPreset(s, ev.Preset)
	case EventQuality:
		return SetQuality(s, ev.Value)
	default:
		return s
	}
}
