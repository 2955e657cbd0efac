package service

import (
	"github.com/shopspring/decimal"

	"github.com/nodalpair/nodalpair/internal/domain/model"
)

// Scorer defines what ranking needs from a risk scoring strategy.
type Scorer interface {
	Score(r *model.Record) decimal.Decimal
	IsPerfectMatch(a, b *model.Record) bool
}
