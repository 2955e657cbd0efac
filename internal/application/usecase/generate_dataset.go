package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/port"
	"github.com/nodalpair/nodalpair/pkg/observability"
)

const (
	minGeneratedRows = 100
	maxGeneratedRows = 200
)

// Surgery dates are drawn from this window.
var (
	earliestSurgery = time.UnixMilli(1_000_000_000_000).UTC()
	latestSurgery   = time.UnixMilli(1_600_000_000_000).UTC()
)

// GenerateDataset writes a synthetic dataset for trying out the pipeline.
type GenerateDataset struct {
	sink   port.DatasetSink
	schema *model.VariableSchema
	logger *slog.Logger
	layout Layout
}

// NewGenerateDataset creates a new GenerateDataset use case.
func NewGenerateDataset(sink port.DatasetSink, schema *model.VariableSchema, layout Layout, logger *slog.Logger) *GenerateDataset {
	return &GenerateDataset{
		sink:   sink,
		schema: schema,
		layout: layout,
		logger: logger,
	}
}

// Execute generates rows and writes them to the sink. ELND rows are twice as
// likely as SLNB rows.
func (uc *GenerateDataset) Execute(ctx context.Context, req dto.GenerateDatasetRequest) (resp dto.GenerateDatasetResponse, err error) {
	ctx, stage := observability.StartStage(ctx, uc.logger, "generate")
	defer func() { stage.End(err) }()

	if err := uc.layout.Validate(uc.schema); err != nil {
		return dto.GenerateDatasetResponse{}, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	n := req.Rows
	if n <= 0 {
		n = minGeneratedRows + rng.IntN(maxGeneratedRows-minGeneratedRows+1)
	}

	resp = dto.GenerateDatasetResponse{Seed: seed, Rows: n}
	rows := make([][]string, n)
	for i := range rows {
		slnb := rng.IntN(3) == 0
		if slnb {
			resp.SLNB++
		} else {
			resp.ELND++
		}
		rows[i] = uc.generateRow(rng, slnb)
	}

	if err := uc.sink.WriteRows(ctx, uc.layout.Header(), rows); err != nil {
		return dto.GenerateDatasetResponse{}, fmt.Errorf("failed to write dataset: %w", err)
	}

	uc.logger.Info("dataset generated", "rows", resp.Rows, "slnb", resp.SLNB, "elnd", resp.ELND, "seed", seed)
	return resp, nil
}

func (uc *GenerateDataset) generateRow(rng *rand.Rand, slnb bool) []string {
	row := make([]string, 0, uc.schema.Len()+4)

	span := latestSurgery.Sub(earliestSurgery)
	date := earliestSurgery.Add(time.Duration(rng.Int64N(int64(span))))
	row = append(row, strconv.Itoa(1+rng.IntN(2)), date.Format(time.RFC3339))

	for _, v := range uc.schema.Variables() {
		codes := v.Codes
		if len(codes) == 0 {
			codes = []int{0, 1}
		}
		row = append(row, strconv.Itoa(codes[rng.IntN(len(codes))]))
	}

	if slnb {
		return append(row, "1", "0")
	}
	return append(row, "0", "1")
}
