package dto

// GenerateDatasetRequest is the input DTO for the GenerateDataset use case.
type GenerateDatasetRequest struct {
	// Seed makes the dataset reproducible. Zero picks a random seed.
	Seed uint64 `json:"seed"`
	// Rows overrides the random row count when positive.
	Rows int `json:"rows"`
}

// GenerateDatasetResponse summarises a generated dataset.
type GenerateDatasetResponse struct {
	Seed uint64 `json:"seed"`
	Rows int    `json:"rows"`
	SLNB int    `json:"slnb"`
	ELND int    `json:"elnd"`
}

// ImportSummary summarises an import.
type ImportSummary struct {
	Rows      int `json:"rows"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Discarded int `json:"discarded"`
	SLNB      int `json:"slnb"`
	ELND      int `json:"elnd"`
}

// MatchRequest is the input DTO for the MatchRecords use case.
type MatchRequest struct {
	// AcceptUnconverged keeps the last attempted assignment when the repair
	// loop hits its pass limit instead of failing the run.
	AcceptUnconverged bool `json:"accept_unconverged"`
}

// ExportSummary summarises a written report.
type ExportSummary struct {
	Rows     int `json:"rows"`
	Pairings int `json:"pairings"`
}
