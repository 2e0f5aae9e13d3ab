package preset

import (
	"fmt"
	"os"

	"github.com/phambaophuc/image-resizer/internal/resolver"
	"gopkg.in/yaml.v3"
)

type file struct {
	Presets []resolver.Preset `yaml:"presets"`
}

// LoadFile reads a presets file of the form
//
//	presets:
//	  - name: HD
//	    width: 1920
//	    height: 1080
func LoadFile(path string) ([]resolver.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]resolver.Preset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	if len(f.Presets) == 0 {
		return nil, fmt.Errorf("%w: no presets defined", ErrInvalidPreset)
	}

	if err := Validate(f.Presets); err != nil {
		return nil, err
	}
	return f.Presets, nil
}
