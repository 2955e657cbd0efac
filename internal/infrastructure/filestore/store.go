package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/domain/model"
)

// RecordStore implements port.RecordRepository with one JSON file per cohort.
type RecordStore struct {
	slnbPath string
	elndPath string
}

// NewRecordStore creates a JSON-backed record store.
func NewRecordStore(slnbPath, elndPath string) *RecordStore {
	return &RecordStore{slnbPath: slnbPath, elndPath: elndPath}
}

// SaveCohorts writes both cohorts, replacing any previous files.
func (s *RecordStore) SaveCohorts(_ context.Context, schema *model.VariableSchema, slnb, elnd []*model.Record) error {
	if err := writeJSON(s.slnbPath, toDTOs(schema, slnb)); err != nil {
		return err
	}
	return writeJSON(s.elndPath, toDTOs(schema, elnd))
}

// LoadCohorts reads both cohorts and validates them against the schema.
func (s *RecordStore) LoadCohorts(_ context.Context, schema *model.VariableSchema) ([]*model.Record, []*model.Record, error) {
	slnb, err := loadRecords(s.slnbPath, schema)
	if err != nil {
		return nil, nil, err
	}
	elnd, err := loadRecords(s.elndPath, schema)
	if err != nil {
		return nil, nil, err
	}
	return slnb, elnd, nil
}

func toDTOs(schema *model.VariableSchema, records []*model.Record) []dto.RecordDTO {
	out := make([]dto.RecordDTO, len(records))
	for i, r := range records {
		out[i] = dto.FromRecord(schema, r)
	}
	return out
}

func loadRecords(path string, schema *model.VariableSchema) ([]*model.Record, error) {
	var stored []dto.RecordDTO
	if err := readJSON(path, &stored); err != nil {
		return nil, err
	}
	records := make([]*model.Record, len(stored))
	for i, d := range stored {
		r, err := d.ToModel(schema)
		if err != nil {
			return nil, fmt.Errorf("filestore: %s: %w", path, err)
		}
		records[i] = r
	}
	return records, nil
}

// PairingStore implements port.PairingRepository with a single JSON file
// holding the latest run.
type PairingStore struct {
	path string
}

// NewPairingStore creates a JSON-backed pairing store.
func NewPairingStore(path string) *PairingStore {
	return &PairingStore{path: path}
}

// Save overwrites the stored run.
func (s *PairingStore) Save(_ context.Context, run *model.PairingRun) error {
	return writeJSON(s.path, dto.FromPairingRun(run))
}

// FindLatest reads the stored run.
func (s *PairingStore) FindLatest(_ context.Context) (*model.PairingRun, error) {
	var stored dto.PairingRunDTO
	if err := readJSON(s.path, &stored); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrRunNotFound
		}
		return nil, err
	}
	run, err := stored.ToModel()
	if err != nil {
		return nil, fmt.Errorf("filestore: %s: %w", s.path, err)
	}
	return run, nil
}

// writeJSON replaces path atomically so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("filestore: decode %s: %w", path, err)
	}
	return nil
}
