package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
)

// PairingDTO is the stored JSON shape of one chosen candidate.
type PairingDTO struct {
	SLNBScore  decimal.Decimal `json:"slnbHazard"`
	ELNDScore  decimal.Decimal `json:"elndHazard"`
	Difference decimal.Decimal `json:"difference"`
	SLNBID     int             `json:"slnbId"`
	ELNDID     int             `json:"elndId"`
	Perfect    bool            `json:"perfect"`
}

// PairingRunDTO is the stored JSON shape of a pairing run.
type PairingRunDTO struct {
	CreatedAt       time.Time       `json:"createdAt"`
	TotalDifference decimal.Decimal `json:"totalDifference"`
	Status          string          `json:"status"`
	Pairings        []PairingDTO    `json:"pairings"`
	ID              uuid.UUID       `json:"id"`
	Passes          int             `json:"passes"`
	Perfect         int             `json:"perfect"`
	Imperfect       int             `json:"imperfect"`
}

// FromPairingRun maps a pairing run to its stored shape.
func FromPairingRun(run *model.PairingRun) PairingRunDTO {
	pairings := run.Pairings()
	out := make([]PairingDTO, len(pairings))
	for i, p := range pairings {
		out[i] = PairingDTO(p)
	}
	stats := run.Stats()
	return PairingRunDTO{
		ID:              run.ID(),
		Status:          run.Status().String(),
		CreatedAt:       run.CreatedAt(),
		Passes:          run.Passes(),
		TotalDifference: stats.TotalDifference,
		Perfect:         stats.Perfect,
		Imperfect:       stats.Imperfect,
		Pairings:        out,
	}
}

// ToModel rebuilds the pairing run. Stats are recomputed from the pairings.
func (d PairingRunDTO) ToModel() (*model.PairingRun, error) {
	status, err := valueobject.RunStatusFromString(d.Status)
	if err != nil {
		return nil, fmt.Errorf("pairing run %s: %w", d.ID, err)
	}
	pairings := make([]model.Pairing, len(d.Pairings))
	for i, p := range d.Pairings {
		pairings[i] = model.Pairing(p)
	}
	return model.ReconstructRun(d.ID, status, pairings, d.Passes, d.CreatedAt), nil
}
