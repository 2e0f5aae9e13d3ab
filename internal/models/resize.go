package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/image-resizer/internal/resolver"
)

// EventRequest is one edit from the client. Value is whatever the user typed;
// numbers and strings are both accepted.
type EventRequest struct {
	Type    string     `json:"type" binding:"required,oneof=width height lock preset quality"`
	Value   FieldValue `json:"value"`
	Enabled bool       `json:"enabled"`
	Name    string     `json:"name"`
}

// FieldValue holds the raw text of a form field.
type FieldValue string

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FieldValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value must be a string or a number")
	}
	*v = FieldValue(n.String())
	return nil
}

type WorkspaceState struct {
	Loaded          bool                `json:"loaded"`
	ImageID         string              `json:"image_id,omitempty"`
	Filename        string              `json:"filename,omitempty"`
	Format          string              `json:"format,omitempty"`
	Original        resolver.Dimensions `json:"original"`
	Target          resolver.Dimensions `json:"target"`
	AspectRatio     float64             `json:"aspect_ratio"`
	LockAspectRatio bool                `json:"lock_aspect_ratio"`
	Quality         int                 `json:"quality"`
}

type EventResponse struct {
	Changed bool           `json:"changed"`
	State   WorkspaceState `json:"state"`
}

type PresetSize struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
