package countries

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"eurometrics/internal/model"
)

// File is the YAML layout of a countries override file. Weights listed in
// the file replace or extend the reference table; a non-empty groups list
// replaces the default groups.
type File struct {
	Weights []model.CountryWeight `yaml:"weights"`
	Groups  []model.CountryGroup  `yaml:"groups"`
}

// Load returns the reference table and groups, merged with the optional
// override file at path.
func Load(path string) (*Table, []model.CountryGroup, error) {
	if path == "" {
		return Default(), DefaultGroups(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read countries file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Table, []model.CountryGroup, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse countries file: %w", err)
	}

	weights := make([]model.CountryWeight, 0, len(defaultWeights)+len(file.Weights))
	weights = append(weights, defaultWeights...)
	weights = append(weights, file.Weights...)

	groups := DefaultGroups()
	if len(file.Groups) > 0 {
		for _, group := range file.Groups {
			if group.Key == "" {
				return nil, nil, fmt.Errorf("countries file: group without key")
			}
			if len(group.Members) == 0 {
				return nil, nil, fmt.Errorf("countries file: group %s has no members", group.Key)
			}
		}
		groups = file.Groups
	}

	return NewTable(weights), groups, nil
}
