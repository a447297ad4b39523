// Package storage keeps closed-loop runs on disk: one directory per run
// holding metadata.json and series.csv, catalogued in a sqlite index.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/san-kum/speedctl/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
	index   *Index
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// Init creates the base directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	idx, err := OpenIndex(filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return err
	}
	s.index = idx
	return nil
}

func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Plugin     string             `json:"plugin"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Samples    int                `json:"samples"`
	Rejections int                `json:"rejections"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes result under a fresh run ID. ID, Timestamp, Samples,
// Rejections and Metrics in meta are filled in from the run.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if s.index == nil {
		return "", errors.New("storage: store not initialized")
	}

	meta.ID = uuid.NewString()
	meta.Timestamp = s.now().UTC()
	meta.Samples = len(result.Samples)
	meta.Rejections = result.Rejections
	meta.Metrics = result.Metrics
	if meta.Scenario == "" {
		meta.Scenario = result.Scenario
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return "", err
	}
	if err := s.index.Record(meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSeries(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sim.Columns); err != nil {
		return err
	}
	row := make([]string, len(sim.Columns))
	for _, sample := range result.Samples {
		for i, v := range sample.Row() {
			row[i] = strconv.FormatFloat(v, 'g', 10, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every saved run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	return s.ListScenario("")
}

func (s *Store) ListScenario(scenario string) ([]RunMetadata, error) {
	if s.index == nil {
		return []RunMetadata{}, nil
	}
	return s.index.Query(scenario)
}

// Best returns the ID of the scenario run with the lowest metric value.
func (s *Store) Best(scenario, metric string) (string, float64, error) {
	if s.index == nil {
		return "", 0, errors.Wrap(ErrRunNotFound, "store not initialized")
	}
	return s.index.Best(scenario, metric)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrRunNotFound, "%s", runID)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

// Series is a loaded series.csv.
type Series struct {
	Columns []string
	Rows    [][]float64
}

// Column returns one named column, or nil.
func (s *Series) Column(name string) []float64 {
	idx := -1
	for i, c := range s.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(s.Rows))
	for _, row := range s.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrRunNotFound, "%s", runID)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s series", runID)
	}
	if len(records) == 0 {
		return &Series{}, nil
	}

	series := &Series{Columns: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "run %s series", runID)
			}
		}
		series.Rows = append(series.Rows, row)
	}
	return series, nil
}

// Delete removes a run from the index and from disk.
func (s *Store) Delete(runID string) error {
	if s.index != nil {
		if err := s.index.Delete(runID); err != nil {
			return err
		}
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}
