package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/integrators"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type BodyMeta struct {
	Name string  `json:"name"`
	Mass float64 `json:"mass"`
}

type RunMetadata struct {
	ID          string     `json:"id"`
	Scenario    string     `json:"scenario"`
	Timestamp   time.Time  `json:"timestamp"`
	Method      string     `json:"method"`
	StepSize    float64    `json:"step_size"`
	RTol        float64    `json:"rtol"`
	ATol        float64    `json:"atol"`
	T0          float64    `json:"t0"`
	Tf          float64    `json:"tf"`
	Bodies      []BodyMeta `json:"bodies"`
	Samples     int        `json:"samples"`
	Evaluations int        `json:"evaluations"`
}

// Save writes metadata.json and states.csv under a new run directory and
// returns the run ID.
func (s *Store) Save(cfg *config.Config, result *integrators.Result) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    cfg.Name,
		Timestamp:   now,
		Method:      result.Method.String(),
		StepSize:    cfg.StepSize,
		RTol:        cfg.RTol,
		ATol:        cfg.ATol,
		T0:          cfg.T0,
		Tf:          cfg.Tf,
		Bodies:      make([]BodyMeta, len(cfg.Bodies)),
		Samples:     result.Len(),
		Evaluations: result.Evaluations,
	}
	for i, b := range cfg.Bodies {
		meta.Bodies[i] = BodyMeta{Name: cfg.BodyName(i), Mass: b.Mass}
	}

	err := writeJSON(filepath.Join(runDir, "metadata.json"), meta)
	if err == nil {
		err = writeStates(filepath.Join(runDir, "states.csv"), meta.Bodies, result)
	}
	if err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("save %s: %w", runID, err)
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

// Header returns the states.csv column names: time, every body's position,
// then every body's velocity, in state vector order.
func Header(bodies []BodyMeta) []string {
	header := make([]string, 0, 1+4*len(bodies))
	header = append(header, "time")
	for _, b := range bodies {
		header = append(header, b.Name+"_x", b.Name+"_y")
	}
	for _, b := range bodies {
		header = append(header, b.Name+"_vx", b.Name+"_vy")
	}
	return header
}

func writeStates(path string, bodies []BodyMeta, result *integrators.Result) error {
	if len(result.Times) != len(result.States) {
		return fmt.Errorf("%d times for %d states", len(result.Times), len(result.States))
	}
	for i, st := range result.States {
		if len(st) != 4*len(bodies) {
			return fmt.Errorf("state %d has %d values for %d bodies", i, len(st), len(bodies))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header(bodies)); err != nil {
		return err
	}

	for i, st := range result.States {
		row := make([]string, 0, 1+len(st))
		row = append(row, strconv.FormatFloat(result.Times[i], 'g', -1, 64))
		for _, val := range st {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first.
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
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads a run's samples back. Rows that fail to parse are
// reported as errors with their line number.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", csvPath, i+1, err)
		}

		state := make([]float64, len(record)-1)
		for j := 1; j < len(record); j++ {
			state[j-1], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %w", csvPath, i+1, err)
			}
		}
		times = append(times, t)
		states = append(states, state)
	}

	return states, times, nil
}
