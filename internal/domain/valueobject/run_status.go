package valueobject

import "fmt"

// RunStatus records how a pairing run's repair loop ended.
type RunStatus struct {
	value string
}

var (
	// RunStatusConverged means the final assignment is conflict-free.
	RunStatusConverged = RunStatus{value: "CONVERGED"}
	// RunStatusUnconverged means the pass limit was hit and the caller
	// accepted the last attempted assignment.
	RunStatusUnconverged = RunStatus{value: "UNCONVERGED"}
)

// RunStatusFromString reconstructs a RunStatus from its string representation.
func RunStatusFromString(s string) (RunStatus, error) {
	switch s {
	case "CONVERGED":
		return RunStatusConverged, nil
	case "UNCONVERGED":
		return RunStatusUnconverged, nil
	default:
		return RunStatus{}, fmt.Errorf("invalid run status: %q", s)
	}
}

func (s RunStatus) String() string {
	return s.value
}

// Equal checks equality with another RunStatus.
func (s RunStatus) Equal(other RunStatus) bool {
	return s.value == other.value
}
