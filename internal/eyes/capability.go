package eyes

// Capability is the static description an Eye returns from Describe(): its
// identity, the phase it belongs to, and the pipeline-enforcement metadata
// the Registry uses to gate Invoke.
type Capability struct {
	Name        string
	Version     string
	Description string
	Phase       PipelinePhase

	// AcceptsWorkKinds lists the `work` map keys this Eye knows how to
	// read; an empty slice means it accepts anything.
	AcceptsWorkKinds      []string
	ReturnsClarifications bool

	RequiresPhases PhaseSet
	ProvidesPhases PhaseSet

	CanRunParallel    bool
	IsEntryPoint      bool
	RequiresReasoning bool

	RequiresDataKeys map[string]struct{}
	ProvidesDataKeys map[string]struct{}
}
