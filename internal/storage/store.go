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

	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/particulator"
)

var ErrMalformedRun = errors.New("storage: malformed run")

const (
	metadataFile = "metadata.json"
	productsFile = "products.csv"
	configFile   = "config.yaml"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	NSD       int                `json:"n_sd"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Duration  float64            `json:"duration"`
	Products  []string           `json:"products"`
	Units     map[string]string  `json:"units"`
	Final     map[string]float64 `json:"final"`
}

// Save writes metadata.json, the configuration as config.yaml and every
// product series to products.csv under a new run directory.
func (s *Store) Save(cfg *config.Config, preset string, res *particulator.Result) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", cfg.Scenario, ts.UnixNano())
	if preset != "" {
		runID = fmt.Sprintf("%s_%d", preset, ts.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  cfg.Scenario,
		Preset:    preset,
		Timestamp: ts,
		Seed:      res.Seed,
		NSD:       cfg.NSD,
		Dt:        res.Dt,
		Steps:     res.Steps,
		Duration:  float64(res.Steps) * res.Dt,
		Products:  res.Order,
		Units:     res.Units,
		Final:     make(map[string]float64, len(res.Order)),
	}
	for _, name := range res.Order {
		if series := res.Products[name]; len(series) > 0 {
			meta.Final[name] = series[len(series)-1]
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, productsFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteCSV(f, res); err != nil {
		return "", err
	}
	return runID, nil
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

// List returns the metadata of every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig reads back the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadResult rebuilds the recorded product series of a run.
func (s *Store) LoadResult(runID string) (*particulator.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, productsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "time" {
		return nil, fmt.Errorf("%w: %s has no header", ErrMalformedRun, productsFile)
	}

	header := records[0][1:]
	res := &particulator.Result{
		Seed:     meta.Seed,
		Steps:    meta.Steps,
		Dt:       meta.Dt,
		Times:    make([]float64, 0, len(records)-1),
		Products: make(map[string][]float64, len(header)),
		Units:    meta.Units,
		Order:    header,
	}
	for _, name := range header {
		res.Products[name] = make([]float64, 0, len(records)-1)
	}

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRun, i+1, err)
		}
		res.Times = append(res.Times, t)
		for j, name := range header {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, %s: %v", ErrMalformedRun, i+1, name, err)
			}
			res.Products[name] = append(res.Products[name], v)
		}
	}
	return res, nil
}
