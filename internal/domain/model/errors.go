package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is matched by *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrInsufficientPool is matched by *InsufficientPoolError.
	ErrInsufficientPool = errors.New("insufficient ELND pool")
	// ErrResolutionExhausted is matched by *ResolutionExhaustedError.
	ErrResolutionExhausted = errors.New("conflict resolution exhausted")
	// ErrConvergenceLimit is matched by *ConvergenceLimitError.
	ErrConvergenceLimit = errors.New("repair pass limit reached")
	// ErrRunNotFound is returned by repositories holding no pairing run yet.
	ErrRunNotFound = errors.New("pairing run not found")
)

// ConfigurationError reports an inconsistent schema or ratio table.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InsufficientPoolError reports fewer usable ELND records than SLNB records.
type InsufficientPoolError struct {
	SLNB int
	ELND int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient ELND pool: %d usable SLNB records but only %d usable ELND records", e.SLNB, e.ELND)
}

func (e *InsufficientPoolError) Is(target error) bool { return target == ErrInsufficientPool }

// ResolutionExhaustedError reports a conflict band with no feasible repair.
type ResolutionExhaustedError struct {
	BandELNDID    int
	MemberSLNBIDs []int
}

func (e *ResolutionExhaustedError) Error() string {
	ids := make([]string, len(e.MemberSLNBIDs))
	for i, id := range e.MemberSLNBIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("conflict resolution exhausted for ELND:%d (SLNB members %s)", e.BandELNDID, strings.Join(ids, ","))
}

func (e *ResolutionExhaustedError) Is(target error) bool { return target == ErrResolutionExhausted }

// ConvergenceLimitError reports that the repair loop hit its pass limit while
// conflicts remained. Last is the last attempted assignment and may still be
// conflicted.
type ConvergenceLimitError struct {
	Last   Assignment
	Passes int
	Limit  int
}

func (e *ConvergenceLimitError) Error() string {
	return fmt.Sprintf("repair pass limit %d reached after %d passes with %d ELND records still conflicted",
		e.Limit, e.Passes, len(e.Last.ConflictedELNDIDs()))
}

func (e *ConvergenceLimitError) Is(target error) bool { return target == ErrConvergenceLimit }
