package activity

import (
	"fmt"

	"github.com/arloliu/fuda"
)

// LoadConfig loads a TelemetryConfig from a YAML or JSON file.
// Environment variables override file values; defaults and validation come
// from the struct tags.
func LoadConfig(path string) (*TelemetryConfig, error) {
	var cfg TelemetryConfig
	if err := fuda.LoadFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load telemetry config %q: %w", path, err)
	}

	return &cfg, nil
}

// ParseConfig parses a TelemetryConfig from YAML or JSON bytes.
// Environment variables override the parsed values.
func ParseConfig(data []byte) (*TelemetryConfig, error) {
	var cfg TelemetryConfig
	if err := fuda.LoadBytes(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse telemetry config: %w", err)
	}

	return &cfg, nil
}
