package service

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/domain/model"
)

// DefaultMaxPasses bounds the repair loop when no limit is configured.
const DefaultMaxPasses = 1000

// Resolver turns the greedy index-0 assignment into a conflict-free one by
// repairing one conflict band per pass.
//
// Band repair is a depth-one local search: for each member i it tries "i keeps
// its pick, every other member moves to its next-ranked candidate" and keeps
// the cheapest feasible trial. It is locally improving only; bands of three or
// more members are not guaranteed their minimal-cost repair.
//
// Every pass moves at least one member one step down its list and never moves
// anyone back, so the loop always ends: either conflict-free, with an exhausted
// band, or at the pass limit.
type Resolver struct {
	lists     map[int]model.RankedList
	position  map[int]int
	observer  func(model.RepairPass)
	order     []int
	maxPasses int
	passes    int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxPasses sets the repair pass limit. Non-positive values are ignored.
func WithMaxPasses(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithPassObserver registers a callback invoked after every repair pass.
func WithPassObserver(fn func(model.RepairPass)) ResolverOption {
	return func(r *Resolver) {
		r.observer = fn
	}
}

// NewResolver seeds the assignment with every list's index-0 candidate.
// The lists are read-only for the lifetime of the resolver.
func NewResolver(lists map[int]model.RankedList, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lists:     lists,
		position:  make(map[int]int, len(lists)),
		order:     make([]int, 0, len(lists)),
		maxPasses: DefaultMaxPasses,
	}
	for id := range lists {
		r.order = append(r.order, id)
		r.position[id] = 0
	}
	slices.Sort(r.order)

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Passes returns the number of repair passes performed so far.
func (r *Resolver) Passes() int {
	return r.passes
}

// Resolve runs the repair loop and returns the conflict-free assignment.
func (r *Resolver) Resolve() (model.Assignment, error) {
	for _, id := range r.order {
		if len(r.lists[id]) == 0 {
			return model.Assignment{}, &model.InsufficientPoolError{SLNB: len(r.order), ELND: 0}
		}
	}

	for {
		bandID, band, _ := r.firstConflict()
		if band == nil {
			return r.Snapshot(), nil
		}

		if r.passes >= r.maxPasses {
			return model.Assignment{}, &model.ConvergenceLimitError{
				Last:   r.Snapshot(),
				Passes: r.passes,
				Limit:  r.maxPasses,
			}
		}

		replacement, err := r.resolveBand(bandID, band)
		if err != nil {
			return model.Assignment{}, err
		}
		for i, id := range band {
			r.position[id] = replacement[i]
		}
		r.passes++

		if r.observer != nil {
			_, _, left := r.firstConflict()
			r.observer(model.RepairPass{
				Pass:          r.passes,
				BandELNDID:    bandID,
				BandSize:      len(band),
				ConflictsLeft: left,
			})
		}
	}
}

// Snapshot returns an immutable copy of the current assignment.
func (r *Resolver) Snapshot() model.Assignment {
	chosen := make([]model.Candidate, 0, len(r.order))
	for _, id := range r.order {
		chosen = append(chosen, r.current(id))
	}
	return model.NewAssignment(chosen)
}

func (r *Resolver) current(slnbID int) model.Candidate {
	return r.lists[slnbID][r.position[slnbID]]
}

// firstConflict scans in ascending SLNB id order and returns the ELND id of the
// first conflicted candidate, the SLNB ids sharing it, and the total number
// of conflicted candidates. band is nil when the assignment is conflict-free.
func (r *Resolver) firstConflict() (bandID int, band []int, conflicted int) {
	claims := make(map[int]int, len(r.order))
	for _, id := range r.order {
		claims[r.current(id).ELND().ID()]++
	}

	found := false
	for _, id := range r.order {
		elndID := r.current(id).ELND().ID()
		if claims[elndID] < 2 {
			continue
		}
		conflicted++
		if !found {
			found = true
			bandID = elndID
		}
	}
	if !found {
		return 0, nil, 0
	}

	for _, id := range r.order {
		if r.current(id).ELND().ID() == bandID {
			band = append(band, id)
		}
	}
	return bandID, band, conflicted
}

// resolveBand returns new list positions for the band members, one per member
// in band order.
func (r *Resolver) resolveBand(bandID int, band []int) ([]int, error) {
	var (
		best      []int
		bestTotal decimal.Decimal
	)

	for keep := range band {
		trial := make([]int, len(band))
		total := decimal.Zero
		feasible := true

		for j, id := range band {
			pos := r.position[id]
			if j != keep {
				pos++
			}
			if pos >= len(r.lists[id]) {
				feasible = false
				break
			}
			trial[j] = pos
			total = total.Add(r.lists[id][pos].Difference())
		}

		if !feasible {
			continue
		}
		if best == nil || total.LessThan(bestTotal) {
			best, bestTotal = trial, total
		}
	}

	if best == nil {
		return nil, &model.ResolutionExhaustedError{
			BandELNDID:    bandID,
			MemberSLNBIDs: slices.Clone(band),
		}
	}
	return best, nil
}
