package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// presetHeader is decoded first to select the base preset the file overlays.
type presetHeader struct {
	PresetBase string `yaml:"PRESET_BASE"`
}

// LoadFromFile loads a ChainSpec from a YAML preset file.
func LoadFromFile(path string) (*ChainSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain config: %w", err)
	}
	return LoadFromYAML(data)
}

// LoadFromYAML decodes UPPER_SNAKE_CASE keys on top of the preset named by
// PRESET_BASE (mainnet when absent) and validates the result.
func LoadFromYAML(data []byte) (*ChainSpec, error) {
	var header presetHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parse chain config: %w", err)
	}

	spec, err := Preset(header.PresetBase)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("parse chain config: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
