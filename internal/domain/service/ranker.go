package service

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/domain/model"
)

// Ranker builds deterministically ordered candidate lists for SLNB records.
type Ranker struct {
	scorer Scorer
}

// NewRanker creates a Ranker over the given scoring strategy.
func NewRanker(scorer Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

type scoredRecord struct {
	record *model.Record
	score  decimal.Decimal
}

// Rank pairs slnb with every non-discarded record of pool and orders the
// candidates by ascending difference, perfect matches first on ties, pool
// order otherwise. A positive limit truncates the list.
func (r *Ranker) Rank(slnb *model.Record, pool []*model.Record, limit int) model.RankedList {
	return r.rank(slnb, r.scoreUsable(pool), limit)
}

// RankAll ranks every non-discarded SLNB record against pool. Each list is
// capped at the number of usable SLNB records: a band of n members never
// needs to look past the n-th alternative of any member.
func (r *Ranker) RankAll(slnbPool, elndPool []*model.Record) map[int]model.RankedList {
	elnd := r.scoreUsable(elndPool)

	usable := make([]*model.Record, 0, len(slnbPool))
	for _, s := range slnbPool {
		if !s.Discard() {
			usable = append(usable, s)
		}
	}

	lists := make(map[int]model.RankedList, len(usable))
	for _, s := range usable {
		lists[s.ID()] = r.rank(s, elnd, len(usable))
	}
	return lists
}

func (r *Ranker) scoreUsable(pool []*model.Record) []scoredRecord {
	out := make([]scoredRecord, 0, len(pool))
	for _, rec := range pool {
		if rec.Discard() {
			continue
		}
		out = append(out, scoredRecord{record: rec, score: r.scorer.Score(rec)})
	}
	return out
}

func (r *Ranker) rank(slnb *model.Record, elnd []scoredRecord, limit int) model.RankedList {
	slnbScore := r.scorer.Score(slnb)

	list := make(model.RankedList, 0, len(elnd))
	for _, e := range elnd {
		list = append(list, model.NewCandidate(
			slnb, e.record,
			slnbScore, e.score,
			r.scorer.IsPerfectMatch(slnb, e.record),
		))
	}

	slices.SortStableFunc(list, compareCandidates)

	if limit > 0 && len(list) > limit {
		list = list[:limit:limit]
	}
	return list
}

// compareCandidates orders by difference, then perfect before imperfect.
func compareCandidates(a, b model.Candidate) int {
	if c := a.Difference().Cmp(b.Difference()); c != 0 {
		return c
	}
	switch {
	case a.Perfect() == b.Perfect():
		return 0
	case a.Perfect():
		return -1
	default:
		return 1
	}
}
