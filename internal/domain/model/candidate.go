package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Candidate pairs one SLNB record with one ELND record. It is never mutated
// after creation.
type Candidate struct {
	slnb       *Record
	elnd       *Record
	slnbScore  decimal.Decimal
	elndScore  decimal.Decimal
	difference decimal.Decimal
	perfect    bool
}

// NewCandidate builds a Candidate; the difference is |slnbScore - elndScore|.
func NewCandidate(slnb, elnd *Record, slnbScore, elndScore decimal.Decimal, perfect bool) Candidate {
	return Candidate{
		slnb:       slnb,
		elnd:       elnd,
		slnbScore:  slnbScore,
		elndScore:  elndScore,
		difference: slnbScore.Sub(elndScore).Abs(),
		perfect:    perfect,
	}
}

func (c Candidate) SLNB() *Record               { return c.slnb }
func (c Candidate) ELND() *Record               { return c.elnd }
func (c Candidate) SLNBScore() decimal.Decimal  { return c.slnbScore }
func (c Candidate) ELNDScore() decimal.Decimal  { return c.elndScore }
func (c Candidate) Difference() decimal.Decimal { return c.difference }
func (c Candidate) Perfect() bool               { return c.perfect }

// String renders the candidate for logs.
func (c Candidate) String() string {
	s := fmt.Sprintf("SLNB:%d<->ELND:%d Hazard ratios: %s/%s Diff=%s",
		c.slnb.ID(), c.elnd.ID(),
		c.slnbScore.StringFixed(1), c.elndScore.StringFixed(1), c.difference.StringFixed(1),
	)
	if c.perfect {
		s += " (perfect)"
	}
	return s
}

// RankedList is the ordered candidate list of one SLNB record. Index 0 is the
// current best.
type RankedList []Candidate
