package scenario

import (
	"fmt"

	"github.com/arloliu/fuda"
)

// LoadFromFile loads a scenario from a YAML file using fuda for parsing.
func LoadFromFile(path string) (*Scenario, error) {
	var s Scenario
	if err := fuda.LoadFile(path, &s); err != nil {
		return nil, fmt.Errorf("failed to load scenario file: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}
