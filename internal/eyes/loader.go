package eyes

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Eyes map[string]catalogEntry `yaml:"eyes"`
}

type catalogEntry struct {
	Version               string   `yaml:"version"`
	Description           string   `yaml:"description"`
	Phase                 string   `yaml:"phase"`
	AcceptsWorkKinds      []string `yaml:"accepts_work_kinds"`
	ReturnsClarifications bool     `yaml:"returns_clarifications"`
	RequiresPhases        []string `yaml:"requires_phases"`
	ProvidesPhases        []string `yaml:"provides_phases"`
	CanRunParallel        bool     `yaml:"can_run_parallel"`
	IsEntryPoint          bool     `yaml:"is_entry_point"`
	RequiresReasoning     bool     `yaml:"requires_reasoning"`
}

// ParseCatalog decodes a catalog.yaml document into per-Eye capability
// metadata. Invocation logic is never part of the catalog; only the
// phase-gate metadata a Registry enforces is data-driven.
func ParseCatalog(data []byte) (map[string]Capability, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse eye catalog: %w", err)
	}

	caps := make(map[string]Capability, len(file.Eyes))
	for name, entry := range file.Eyes {
		requires := make([]PipelinePhase, 0, len(entry.RequiresPhases))
		for _, p := range entry.RequiresPhases {
			requires = append(requires, PipelinePhase(p))
		}
		provides := make([]PipelinePhase, 0, len(entry.ProvidesPhases))
		for _, p := range entry.ProvidesPhases {
			provides = append(provides, PipelinePhase(p))
		}

		caps[name] = Capability{
			Name:                  name,
			Version:               entry.Version,
			Description:           entry.Description,
			Phase:                 PipelinePhase(entry.Phase),
			AcceptsWorkKinds:      entry.AcceptsWorkKinds,
			ReturnsClarifications: entry.ReturnsClarifications,
			RequiresPhases:        NewPhaseSet(requires...),
			ProvidesPhases:        NewPhaseSet(provides...),
			CanRunParallel:        entry.CanRunParallel,
			IsEntryPoint:          entry.IsEntryPoint,
			RequiresReasoning:     entry.RequiresReasoning,
		}
	}
	return caps, nil
}

// DefaultCatalog returns the capability metadata baked into the binary,
// used before any on-disk catalog file has been loaded and as the
// fallback if the configured catalog path cannot be read.
func DefaultCatalog() (map[string]Capability, error) {
	return ParseCatalog(defaultCatalogYAML)
}
