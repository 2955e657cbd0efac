package service

import (
	"fmt"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// Pipeline ranks both cohorts and drives the Resolver to a final assignment.
type Pipeline struct {
	scorer *RiskScorer
	ranker *Ranker
	opts   []ResolverOption
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	Assignment model.Assignment
	Stats      model.Stats
	Passes     int
}

// NewPipeline validates the configuration and prepares the scoring stages.
func NewPipeline(schema *model.VariableSchema, table *model.RatioTable, opts ...ResolverOption) (*Pipeline, error) {
	scorer, err := NewRiskScorer(schema, table)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		scorer: scorer,
		ranker: NewRanker(scorer),
		opts:   opts,
	}, nil
}

// Scorer returns the pipeline's risk scorer.
func (p *Pipeline) Scorer() *RiskScorer {
	return p.scorer
}

// Run pairs every usable SLNB record with a distinct usable ELND record.
// Extra options apply to this run only. It never returns a partial assignment:
// core failures come back as *InsufficientPoolError, *ResolutionExhaustedError
// or *ConvergenceLimitError.
func (p *Pipeline) Run(slnb, elnd []*model.Record, opts ...ResolverOption) (Result, error) {
	if err := checkPool(slnb, valueobject.CohortSLNB); err != nil {
		return Result{}, err
	}
	if err := checkPool(elnd, valueobject.CohortELND); err != nil {
		return Result{}, err
	}

	usableSLNB, usableELND := countUsable(slnb), countUsable(elnd)
	if usableELND < usableSLNB {
		return Result{}, &model.InsufficientPoolError{SLNB: usableSLNB, ELND: usableELND}
	}

	lists := p.ranker.RankAll(slnb, elnd)

	resolver := NewResolver(lists, append(append([]ResolverOption{}, p.opts...), opts...)...)
	assignment, err := resolver.Resolve()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Assignment: assignment,
		Stats:      assignment.Stats(),
		Passes:     resolver.Passes(),
	}, nil
}

func checkPool(pool []*model.Record, cohort valueobject.Cohort) error {
	seen := make(map[int]bool, len(pool))
	for _, r := range pool {
		if !r.Cohort().Equal(cohort) {
			return fmt.Errorf("record %d is tagged %s but was given as %s", r.ID(), r.Cohort(), cohort)
		}
		if seen[r.ID()] {
			return fmt.Errorf("duplicate %s record id %d", cohort, r.ID())
		}
		seen[r.ID()] = true
	}
	return nil
}

func countUsable(pool []*model.Record) int {
	n := 0
	for _, r := range pool {
		if !r.Discard() {
			n++
		}
	}
	return n
}
