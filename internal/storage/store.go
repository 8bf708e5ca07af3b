package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/modalstream/internal/series"
)

var ErrNotFound = errors.New("storage: recording not found")

// Store keeps recordings as <baseDir>/<id>/metadata.json plus one CSV per
// mode.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Stories   int                `json:"stories"`
	Periods   []float64          `json:"periods"`
	Dt        float64            `json:"dt"`
	Force     string             `json:"force"`
	ForceHz   float64            `json:"force_hz"`
	Samples   int                `json:"samples"`
	Duration  float64            `json:"duration"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes every series of set under a fresh id. Periods, Samples and
// Duration are filled from the set.
func (s *Store) Save(meta RunMetadata, set *series.Set) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Periods = set.Periods()
	meta.Samples = 0
	meta.Duration = 0
	if set.Len() > 0 {
		meta.Samples = set.At(0).Len()
		if last, ok := set.At(0).Last(); ok {
			meta.Duration = last.T * set.At(0).Period
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	for _, sr := range set.All() {
		if err := writeSeries(filepath.Join(runDir, modeFile(sr.Index)), sr.Period, sr.Points()); err != nil {
			return "", fmt.Errorf("storage: mode %d: %w", sr.Index, err)
		}
	}

	return meta.ID, nil
}

func modeFile(i int) string {
	return fmt.Sprintf("mode_%d.csv", i)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, period float64, points []series.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"tau", "t", "x", "v", "a"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			formatFloat(p.T),
			formatFloat(p.T * period),
			formatFloat(p.X),
			formatFloat(p.V),
			formatFloat(p.A),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// List returns every readable recording, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads back the points of every mode, indexed like Periods.
func (s *Store) LoadSeries(runID string) ([][]series.Point, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	modes := make([][]series.Point, len(meta.Periods))
	for i := range modes {
		points, err := readSeries(filepath.Join(s.baseDir, runID, modeFile(i)))
		if err != nil {
			return nil, fmt.Errorf("storage: mode %d: %w", i, err)
		}
		modes[i] = points
	}
	return modes, nil
}

func readSeries(path string) ([]series.Point, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []series.Point{}, nil
	}

	points := make([]series.Point, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 5 {
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		points = append(points, series.Point{T: vals[0], X: vals[2], V: vals[3], A: vals[4]})
	}
	return points, nil
}
