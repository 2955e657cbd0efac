package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed identifiers and times for deterministic testing.
var (
	TestRunID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestRunID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	// TestTime has microsecond precision so it survives a Postgres round trip.
	TestTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)
