package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/service"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// threeWayLists builds three SLNB records that all rank ELND:10 first and
// ELND:11 second, so one pass leaves a fresh conflict on ELND:11.
//
//	SLNB 2 (1.0): E10 0.1, E11 0.6, E12 2.0
//	SLNB 3 (1.1): E10 0.0, E11 0.5, E12 1.9
//	SLNB 4 (1.2): E10 0.1, E11 0.4, E12 1.8
func threeWayLists(t *testing.T) map[int]model.RankedList {
	t.Helper()

	schema, table := gradeStudy(t, map[int]string{1: "1.0", 2: "1.1", 3: "1.2", 4: "1.6", 5: "3.0"})
	scorer, err := service.NewRiskScorer(schema, table)
	require.NoError(t, err)

	slnb := []*model.Record{
		gradeRecord(t, schema, 2, valueobject.CohortSLNB, 1),
		gradeRecord(t, schema, 3, valueobject.CohortSLNB, 2),
		gradeRecord(t, schema, 4, valueobject.CohortSLNB, 3),
	}
	elnd := []*model.Record{
		gradeRecord(t, schema, 10, valueobject.CohortELND, 2),
		gradeRecord(t, schema, 11, valueobject.CohortELND, 4),
		gradeRecord(t, schema, 12, valueobject.CohortELND, 5),
	}
	return service.NewRanker(scorer).RankAll(slnb, elnd)
}

func assignedELND(a model.Assignment) map[int]int {
	out := make(map[int]int, a.Len())
	for _, c := range a.Candidates() {
		out[c.SLNB().ID()] = c.ELND().ID()
	}
	return out
}

func TestResolver_NoConflicts(t *testing.T) {
	schema, table := gradeStudy(t, map[int]string{1: "1.0", 2: "2.0"})
	scorer, err := service.NewRiskScorer(schema, table)
	require.NoError(t, err)

	lists := service.NewRanker(scorer).RankAll(
		[]*model.Record{
			gradeRecord(t, schema, 2, valueobject.CohortSLNB, 1),
			gradeRecord(t, schema, 3, valueobject.CohortSLNB, 2),
		},
		[]*model.Record{
			gradeRecord(t, schema, 10, valueobject.CohortELND, 2),
			gradeRecord(t, schema, 11, valueobject.CohortELND, 1),
		},
	)

	resolver := service.NewResolver(lists)
	assignment, err := resolver.Resolve()

	require.NoError(t, err)
	assert.Equal(t, 0, resolver.Passes())
	assert.Equal(t, map[int]int{2: 11, 3: 10}, assignedELND(assignment))
}

func TestResolver_CascadingConflicts(t *testing.T) {
	var passes []model.RepairPass
	resolver := service.NewResolver(threeWayLists(t), service.WithPassObserver(func(p model.RepairPass) {
		passes = append(passes, p)
	}))

	assignment, err := resolver.Resolve()

	require.NoError(t, err)
	assert.Equal(t, 2, resolver.Passes())
	assert.Empty(t, assignment.ConflictedELNDIDs())

	// Pass 1 ties 1.0/1.0 between keeping SLNB 2 and SLNB 3: the earliest trial wins.
	// Pass 2 ties 2.3/2.3 on ELND:11 and again keeps the earlier member.
	assert.Equal(t, map[int]int{2: 10, 3: 11, 4: 12}, assignedELND(assignment))

	require.Len(t, passes, 2)
	assert.Equal(t, model.RepairPass{Pass: 1, BandELNDID: 10, BandSize: 3, ConflictsLeft: 2}, passes[0])
	assert.Equal(t, model.RepairPass{Pass: 2, BandELNDID: 11, BandSize: 2, ConflictsLeft: 0}, passes[1])

	ids := make([]int, 0, assignment.Len())
	for _, c := range assignment.Candidates() {
		ids = append(ids, c.SLNB().ID())
	}
	assert.Equal(t, []int{2, 3, 4}, ids, "snapshot is ordered by SLNB id")
}

func TestResolver_ConvergenceLimit(t *testing.T) {
	resolver := service.NewResolver(threeWayLists(t), service.WithMaxPasses(1))

	_, err := resolver.Resolve()

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConvergenceLimit)

	var limitErr *model.ConvergenceLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 1, limitErr.Passes)
	assert.Equal(t, 1, limitErr.Limit)
	assert.Equal(t, []int{11}, limitErr.Last.ConflictedELNDIDs())
	assert.Equal(t, map[int]int{2: 10, 3: 11, 4: 11}, assignedELND(limitErr.Last))
}

func TestResolver_ResolutionExhausted(t *testing.T) {
	schema, table := gradeStudy(t, map[int]string{1: "1.0"})
	scorer, err := service.NewRiskScorer(schema, table)
	require.NoError(t, err)
	ranker := service.NewRanker(scorer)

	elnd := []*model.Record{
		gradeRecord(t, schema, 10, valueobject.CohortELND, 1),
		gradeRecord(t, schema, 11, valueobject.CohortELND, 1),
	}
	a := gradeRecord(t, schema, 2, valueobject.CohortSLNB, 1)
	b := gradeRecord(t, schema, 3, valueobject.CohortSLNB, 1)

	// Lists truncated to one entry leave nothing to move to.
	lists := map[int]model.RankedList{
		2: ranker.Rank(a, elnd, 1),
		3: ranker.Rank(b, elnd, 1),
	}

	_, err = service.NewResolver(lists).Resolve()

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrResolutionExhausted)

	var exhausted *model.ResolutionExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 10, exhausted.BandELNDID)
	assert.Equal(t, []int{2, 3}, exhausted.MemberSLNBIDs)
	assert.Contains(t, err.Error(), "ELND:10")
}

func TestResolver_BandTotalIsMinimal(t *testing.T) {
	lists := threeWayLists(t)
	assignment, err := service.NewResolver(lists).Resolve()
	require.NoError(t, err)

	total := decimal.Zero
	for _, c := range assignment.Candidates() {
		total = total.Add(c.Difference())
	}
	assert.True(t, decimal.RequireFromString("2.4").Equal(total), "total %s", total)
	assert.True(t, total.Equal(assignment.Stats().TotalDifference))
}
