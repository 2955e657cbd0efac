package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/application/usecase"
	"github.com/nodalpair/nodalpair/internal/domain/event"
	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/port"
	"github.com/nodalpair/nodalpair/internal/domain/service"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

type matchFixture struct {
	records   *mockRecordRepository
	primary   *mockPairingRepository
	secondary *mockPairingRepository
	publisher *mockEventPublisher
	recorder  *mockRunRecorder
}

func newMatch(t *testing.T, maxPasses int, slnb, elnd func(*model.VariableSchema) []*model.Record) (*usecase.MatchRecords, *matchFixture) {
	t.Helper()

	schema, table, _ := testStudy(t, false)
	pipeline, err := service.NewPipeline(schema, table)
	require.NoError(t, err)

	f := &matchFixture{
		records:   &mockRecordRepository{slnb: slnb(schema), elnd: elnd(schema)},
		primary:   &mockPairingRepository{},
		secondary: &mockPairingRepository{},
		publisher: &mockEventPublisher{},
		recorder:  &mockRunRecorder{},
	}
	uc := usecase.NewMatchRecords(
		f.records,
		[]port.PairingRepository{f.primary, f.secondary},
		f.publisher,
		f.recorder,
		pipeline,
		maxPasses,
		discardLogger(),
	)
	return uc, f
}

func cohort(c valueobject.Cohort, codes map[int][2]int) func(*model.VariableSchema) []*model.Record {
	return func(schema *model.VariableSchema) []*model.Record {
		var out []*model.Record
		for id := 0; id < 100; id++ {
			v, ok := codes[id]
			if !ok {
				continue
			}
			out = append(out, recordFor(schema, id, c, v))
		}
		return out
	}
}

func recordFor(schema *model.VariableSchema, id int, c valueobject.Cohort, v [2]int) *model.Record {
	r, err := model.NewRecord(schema, model.RecordParams{
		ID:     id,
		Cohort: c,
		Values: []valueobject.Code{valueobject.NewCode(v[0]), valueobject.NewCode(v[1])},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// identical builds n SLNB records (ids 2..) and n ELND records (ids 10..) that
// all carry the same codes, so every SLNB record first claims ELND 10 and
// the repair loop needs n-1 passes.
func identical(n int) (func(*model.VariableSchema) []*model.Record, func(*model.VariableSchema) []*model.Record) {
	slnb, elnd := map[int][2]int{}, map[int][2]int{}
	for i := 0; i < n; i++ {
		slnb[2+i] = [2]int{1, 0}
		elnd[10+i] = [2]int{1, 0}
	}
	return cohort(valueobject.CohortSLNB, slnb), cohort(valueobject.CohortELND, elnd)
}

func TestMatchRecords_Execute(t *testing.T) {
	t.Run("stores and announces a converged run", func(t *testing.T) {
		uc, f := newMatch(t, 1000,
			cohort(valueobject.CohortSLNB, map[int][2]int{2: {3, 1}, 3: {2, 0}}),
			cohort(valueobject.CohortELND, map[int][2]int{10: {3, 1}, 11: {2, 0}, 12: {1, 0}}),
		)

		resp, err := uc.Execute(context.Background(), dto.MatchRequest{})
		require.NoError(t, err)

		assert.Equal(t, "CONVERGED", resp.Status)
		assert.Equal(t, 2, resp.Perfect)
		assert.Equal(t, 0, resp.Imperfect)
		assert.True(t, resp.TotalDifference.IsZero())
		require.Len(t, resp.Pairings, 2)
		assert.Equal(t, 10, resp.Pairings[0].ELNDID)
		assert.Equal(t, 11, resp.Pairings[1].ELNDID)

		require.Len(t, f.primary.saved, 1)
		require.Len(t, f.secondary.saved, 1)
		assert.Same(t, f.primary.saved[0], f.secondary.saved[0])
		assert.Len(t, f.recorder.runs, 1)
		assert.Empty(t, f.recorder.passes)

		require.Len(t, f.publisher.published, 1)
		assert.Equal(t, event.EventTypePairingRunCompleted, f.publisher.published[0].EventType())
		assert.Equal(t, resp.ID.String(), f.publisher.published[0].AggregateID())
	})

	t.Run("reports every repair pass", func(t *testing.T) {
		slnb, elnd := identical(3)
		uc, f := newMatch(t, 1000, slnb, elnd)

		resp, err := uc.Execute(context.Background(), dto.MatchRequest{})
		require.NoError(t, err)

		assert.Equal(t, 2, resp.Passes)
		assert.Equal(t, []model.RepairPass{
			{Pass: 1, BandELNDID: 10, BandSize: 3, ConflictsLeft: 2},
			{Pass: 2, BandELNDID: 11, BandSize: 2, ConflictsLeft: 0},
		}, f.recorder.passes)
	})

	t.Run("publishes a failure for an insufficient pool", func(t *testing.T) {
		uc, f := newMatch(t, 1000,
			cohort(valueobject.CohortSLNB, map[int][2]int{2: {1, 0}, 3: {2, 0}}),
			cohort(valueobject.CohortELND, map[int][2]int{10: {1, 0}}),
		)

		_, err := uc.Execute(context.Background(), dto.MatchRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInsufficientPool)

		assert.Empty(t, f.primary.saved)
		assert.Empty(t, f.recorder.runs)
		require.Len(t, f.publisher.published, 1)
		failed, ok := f.publisher.published[0].(event.PairingRunFailed)
		require.True(t, ok)
		assert.Equal(t, "insufficient_pool", failed.Reason)
		assert.Equal(t, err.Error(), failed.Detail)
	})

	t.Run("fails at the pass limit unless unconverged runs are accepted", func(t *testing.T) {
		slnb, elnd := identical(3)

		uc, f := newMatch(t, 1, slnb, elnd)
		_, err := uc.Execute(context.Background(), dto.MatchRequest{})
		assert.ErrorIs(t, err, model.ErrConvergenceLimit)
		assert.Empty(t, f.primary.saved)
		require.Len(t, f.publisher.published, 1)
		assert.Equal(t, event.EventTypePairingRunFailed, f.publisher.published[0].EventType())

		uc, f = newMatch(t, 1, slnb, elnd)
		resp, err := uc.Execute(context.Background(), dto.MatchRequest{AcceptUnconverged: true})
		require.NoError(t, err)
		assert.Equal(t, "UNCONVERGED", resp.Status)
		assert.Equal(t, 1, resp.Passes)
		require.Len(t, f.primary.saved, 1)
		assert.Equal(t, valueobject.RunStatusUnconverged, f.primary.saved[0].Status())

		elndIDs := make([]int, 0, len(resp.Pairings))
		for _, p := range resp.Pairings {
			elndIDs = append(elndIDs, p.ELNDID)
		}
		assert.Equal(t, []int{10, 11, 11}, elndIDs)
	})

	t.Run("propagates infrastructure errors", func(t *testing.T) {
		slnb, elnd := identical(1)

		uc, f := newMatch(t, 1000, slnb, elnd)
		f.records.loadErr = errors.New("missing slnb.json")
		_, err := uc.Execute(context.Background(), dto.MatchRequest{})
		assert.ErrorContains(t, err, "missing slnb.json")
		assert.Empty(t, f.publisher.published)

		uc, f = newMatch(t, 1000, slnb, elnd)
		f.secondary.saveErr = errors.New("connection refused")
		_, err = uc.Execute(context.Background(), dto.MatchRequest{})
		assert.ErrorContains(t, err, "connection refused")
		assert.Empty(t, f.publisher.published)

		uc, f = newMatch(t, 1000, slnb, elnd)
		f.publisher.publishErr = errors.New("broker down")
		_, err = uc.Execute(context.Background(), dto.MatchRequest{})
		assert.ErrorContains(t, err, "broker down")
		assert.Len(t, f.primary.saved, 1)
	})
}
