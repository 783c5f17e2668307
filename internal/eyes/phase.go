package eyes

// PipelinePhase names a stage an Eye can require or provide, enforced by
// the Registry before an Eye is invoked.
type PipelinePhase string

const (
	PhaseEntry          PipelinePhase = "entry"
	PhaseClarification  PipelinePhase = "clarification"
	PhaseRefinement     PipelinePhase = "refinement"
	PhaseConfirmation   PipelinePhase = "confirmation"
	PhasePlanning       PipelinePhase = "planning"
	PhaseScaffolding    PipelinePhase = "scaffolding"
	PhaseImplementation PipelinePhase = "implementation"
	PhaseTesting        PipelinePhase = "testing"
	PhaseDocumentation  PipelinePhase = "documentation"
	PhaseValidation     PipelinePhase = "validation"
	PhaseConsistency    PipelinePhase = "consistency"
	PhaseApproval       PipelinePhase = "approval"
)

// PhaseSet is a small set of phases, used for capability requirement lists.
type PhaseSet map[PipelinePhase]struct{}

func NewPhaseSet(phases ...PipelinePhase) PhaseSet {
	s := make(PhaseSet, len(phases))
	for _, p := range phases {
		s[p] = struct{}{}
	}
	return s
}

// Subset reports whether every phase in s is present in other.
func (s PhaseSet) Subset(other PhaseSet) bool {
	for p := range s {
		if _, ok := other[p]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the phases in s not present in other.
func (s PhaseSet) Missing(other PhaseSet) []PipelinePhase {
	var missing []PipelinePhase
	for p := range s {
		if _, ok := other[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
