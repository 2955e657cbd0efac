package valueobject

import "fmt"

// Cohort is an immutable value object naming the surgical cohort a record belongs to.
type Cohort struct {
	value string
}

var (
	CohortSLNB = Cohort{value: "SLNB"}
	CohortELND = Cohort{value: "ELND"}
)

// CohortFromString reconstructs a Cohort from its string representation.
func CohortFromString(s string) (Cohort, error) {
	switch s {
	case "SLNB":
		return CohortSLNB, nil
	case "ELND":
		return CohortELND, nil
	default:
		return Cohort{}, fmt.Errorf("invalid cohort: %q", s)
	}
}

// String returns the string representation.
func (c Cohort) String() string {
	return c.value
}

// IsZero returns true if the Cohort has not been set.
func (c Cohort) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another Cohort.
func (c Cohort) Equal(other Cohort) bool {
	return c.value == other.value
}
