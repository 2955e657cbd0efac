package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/nodalpair/nodalpair/internal/domain/event"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
	"github.com/nodalpair/nodalpair/pkg/events"
)

// PairingRun is the aggregate root for one completed matching computation.
type PairingRun struct {
	events.EventCollector
	createdAt time.Time
	status    valueobject.RunStatus
	pairings  []Pairing
	stats     Stats
	passes    int
	id        uuid.UUID
}

// NewConvergedRun records a conflict-free assignment.
func NewConvergedRun(assignment Assignment, passes int) (*PairingRun, error) {
	if conflicted := assignment.ConflictedELNDIDs(); len(conflicted) > 0 {
		return nil, fmt.Errorf("assignment still claims ELND records %v more than once", conflicted)
	}
	return newRun(assignment, passes, valueobject.RunStatusConverged), nil
}

// NewUnconvergedRun records the last attempted assignment of a repair loop
// that hit its pass limit. Callers opt in to keeping such a run.
func NewUnconvergedRun(limitErr *ConvergenceLimitError) *PairingRun {
	return newRun(limitErr.Last, limitErr.Passes, valueobject.RunStatusUnconverged)
}

func newRun(assignment Assignment, passes int, status valueobject.RunStatus) *PairingRun {
	r := &PairingRun{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		status:    status,
		pairings:  assignment.Pairings(),
		stats:     assignment.Stats(),
		passes:    passes,
	}

	r.Record(event.NewPairingRunCompleted(
		r.id.String(), status.String(),
		len(r.pairings), r.stats.Perfect, r.stats.Imperfect, passes,
		r.stats.TotalDifference.StringFixed(3),
	))
	return r
}

// ReconstructRun rebuilds a PairingRun from persisted data (no validation, no events).
func ReconstructRun(
	id uuid.UUID,
	status valueobject.RunStatus,
	pairings []Pairing,
	passes int,
	createdAt time.Time,
) *PairingRun {
	ps := slices.Clone(pairings)
	slices.SortStableFunc(ps, func(a, b Pairing) int { return a.SLNBID - b.SLNBID })

	st := Stats{}
	for _, p := range ps {
		if p.Perfect {
			st.Perfect++
		} else {
			st.Imperfect++
		}
		st.TotalDifference = st.TotalDifference.Add(p.Difference)
	}

	return &PairingRun{
		id:        id,
		status:    status,
		pairings:  ps,
		stats:     st,
		passes:    passes,
		createdAt: createdAt,
	}
}

// PairingFor returns the pairing that involves the given record id, from
// either cohort.
func (r *PairingRun) PairingFor(recordID int) (Pairing, bool) {
	for _, p := range r.pairings {
		if p.SLNBID == recordID || p.ELNDID == recordID {
			return p, true
		}
	}
	return Pairing{}, false
}

// --- Accessors ---

func (r *PairingRun) ID() uuid.UUID                 { return r.id }
func (r *PairingRun) Status() valueobject.RunStatus { return r.status }
func (r *PairingRun) Pairings() []Pairing           { return slices.Clone(r.pairings) }
func (r *PairingRun) Stats() Stats                  { return r.stats }
func (r *PairingRun) Passes() int                   { return r.passes }
func (r *PairingRun) CreatedAt() time.Time          { return r.createdAt }
