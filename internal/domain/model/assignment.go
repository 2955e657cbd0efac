package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Assignment is an immutable snapshot of chosen candidates ordered by
// ascending SLNB id.
type Assignment struct {
	pairs []Candidate
}

// NewAssignment copies and orders the chosen candidates.
func NewAssignment(chosen []Candidate) Assignment {
	pairs := slices.Clone(chosen)
	slices.SortStableFunc(pairs, func(a, b Candidate) int {
		return a.SLNB().ID() - b.SLNB().ID()
	})
	return Assignment{pairs: pairs}
}

// Candidates returns the chosen candidates ordered by SLNB id.
func (a Assignment) Candidates() []Candidate {
	return slices.Clone(a.pairs)
}

// Len returns the number of chosen candidates.
func (a Assignment) Len() int {
	return len(a.pairs)
}

// ConflictedELNDIDs returns, in ascending order, the ELND ids chosen by more
// than one SLNB record.
func (a Assignment) ConflictedELNDIDs() []int {
	counts := make(map[int]int, len(a.pairs))
	for _, c := range a.pairs {
		counts[c.ELND().ID()]++
	}
	ids := make([]int, 0)
	for id, n := range counts {
		if n > 1 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Stats aggregates the assignment.
func (a Assignment) Stats() Stats {
	st := Stats{TotalDifference: decimal.Zero}
	for _, c := range a.pairs {
		if c.Perfect() {
			st.Perfect++
		} else {
			st.Imperfect++
		}
		st.TotalDifference = st.TotalDifference.Add(c.Difference())
	}
	return st
}

// Pairings flattens the assignment into record ids and scores.
func (a Assignment) Pairings() []Pairing {
	out := make([]Pairing, len(a.pairs))
	for i, c := range a.pairs {
		out[i] = Pairing{
			SLNBID:     c.SLNB().ID(),
			ELNDID:     c.ELND().ID(),
			SLNBScore:  c.SLNBScore(),
			ELNDScore:  c.ELNDScore(),
			Difference: c.Difference(),
			Perfect:    c.Perfect(),
		}
	}
	return out
}

// Stats holds aggregate figures of an assignment.
type Stats struct {
	TotalDifference decimal.Decimal
	Perfect         int
	Imperfect       int
}

// Pairing is the persisted form of a chosen candidate.
type Pairing struct {
	SLNBScore  decimal.Decimal
	ELNDScore  decimal.Decimal
	Difference decimal.Decimal
	SLNBID     int
	ELNDID     int
	Perfect    bool
}

// RepairPass describes one completed pass of the conflict repair loop.
type RepairPass struct {
	Pass          int
	BandELNDID    int
	BandSize      int
	ConflictsLeft int
}
