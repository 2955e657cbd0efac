package event

import (
	"github.com/nodalpair/nodalpair/pkg/events"
)

const (
	// EventTypePairingRunCompleted is emitted when a pairing run produced an assignment.
	EventTypePairingRunCompleted = "pairing.run.completed"

	// EventTypePairingRunFailed is emitted when the matching core refused to
	// produce an assignment.
	EventTypePairingRunFailed = "pairing.run.failed"

	aggregateType = "PairingRun"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// PairingRunCompleted is published once a run's assignment has been stored.
type PairingRunCompleted struct {
	events.BaseEvent
	Status          string `json:"status"`
	TotalDifference string `json:"total_difference"`
	Pairs           int    `json:"pairs"`
	Perfect         int    `json:"perfect"`
	Imperfect       int    `json:"imperfect"`
	Passes          int    `json:"passes"`
}

func NewPairingRunCompleted(runID, status string, pairs, perfect, imperfect, passes int, totalDifference string) PairingRunCompleted {
	return PairingRunCompleted{
		BaseEvent:       events.NewBaseEvent(EventTypePairingRunCompleted, runID, aggregateType),
		Status:          status,
		Pairs:           pairs,
		Perfect:         perfect,
		Imperfect:       imperfect,
		Passes:          passes,
		TotalDifference: totalDifference,
	}
}

// PairingRunFailed is published when a run ends with a core error.
type PairingRunFailed struct {
	events.BaseEvent
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func NewPairingRunFailed(runID, reason, detail string) PairingRunFailed {
	return PairingRunFailed{
		BaseEvent: events.NewBaseEvent(EventTypePairingRunFailed, runID, aggregateType),
		Reason:    reason,
		Detail:    detail,
	}
}
