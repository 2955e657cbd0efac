package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/application/usecase"
)

func TestGenerateDataset_Execute(t *testing.T) {
	t.Run("writes header and well-formed rows", func(t *testing.T) {
		schema, _, layout := testStudy(t, false)
		sink := &mockSink{}
		uc := usecase.NewGenerateDataset(sink, schema, layout, discardLogger())

		resp, err := uc.Execute(context.Background(), dto.GenerateDatasetRequest{Seed: 7, Rows: 60})
		require.NoError(t, err)

		assert.Equal(t, []string{"Gender Code", "Date of Surgery", "Depth Code", "LVI", "SLNB", "ELND"}, sink.header)
		require.Len(t, sink.rows, 60)
		assert.Equal(t, 60, resp.Rows)
		assert.Equal(t, 60, resp.SLNB+resp.ELND)
		assert.Equal(t, uint64(7), resp.Seed)

		slnb := 0
		for _, row := range sink.rows {
			require.Len(t, row, 6)
			assert.Contains(t, []string{"1", "2"}, row[0])

			date, err := time.Parse(time.RFC3339, row[1])
			require.NoError(t, err)
			assert.True(t, date.Year() >= 2001 && date.Year() <= 2020, "date %s out of range", row[1])

			assert.Contains(t, []string{"1", "2", "3"}, row[2])
			assert.Contains(t, []string{"0", "1"}, row[3])

			flags := row[4] + row[5]
			assert.Contains(t, []string{"10", "01"}, flags)
			if flags == "10" {
				slnb++
			}
		}
		assert.Equal(t, resp.SLNB, slnb)
	})

	t.Run("same seed reproduces the dataset", func(t *testing.T) {
		schema, _, layout := testStudy(t, false)
		first, second := &mockSink{}, &mockSink{}

		_, err := usecase.NewGenerateDataset(first, schema, layout, discardLogger()).
			Execute(context.Background(), dto.GenerateDatasetRequest{Seed: 42})
		require.NoError(t, err)
		_, err = usecase.NewGenerateDataset(second, schema, layout, discardLogger()).
			Execute(context.Background(), dto.GenerateDatasetRequest{Seed: 42})
		require.NoError(t, err)

		assert.Equal(t, first.rows, second.rows)
	})

	t.Run("random row count stays within bounds", func(t *testing.T) {
		schema, _, layout := testStudy(t, false)
		for seed := uint64(1); seed <= 5; seed++ {
			sink := &mockSink{}
			resp, err := usecase.NewGenerateDataset(sink, schema, layout, discardLogger()).
				Execute(context.Background(), dto.GenerateDatasetRequest{Seed: seed})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, resp.Rows, 100, "seed "+strconv.FormatUint(seed, 10))
			assert.LessOrEqual(t, resp.Rows, 200, "seed "+strconv.FormatUint(seed, 10))
		}
	})

	t.Run("propagates sink errors", func(t *testing.T) {
		schema, _, layout := testStudy(t, false)
		sink := &mockSink{err: errors.New("file exists")}
		uc := usecase.NewGenerateDataset(sink, schema, layout, discardLogger())

		_, err := uc.Execute(context.Background(), dto.GenerateDatasetRequest{Seed: 1})
		assert.ErrorContains(t, err, "file exists")
	})
}
