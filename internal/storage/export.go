package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	ID       string      `json:"id"`
	Scenario string      `json:"scenario"`
	Method   string      `json:"method"`
	StepSize float64     `json:"step_size"`
	T0       float64     `json:"t0"`
	Tf       float64     `json:"tf"`
	Bodies   []BodyMeta  `json:"bodies"`
	Columns  []string    `json:"columns"`
	Samples  int         `json:"samples"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
}

// Export writes a stored run, metadata and samples, as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, meta, states, times)
}

func ExportJSON(w io.Writer, meta *RunMetadata, states [][]float64, times []float64) error {
	data := ExportData{
		ID:       meta.ID,
		Scenario: meta.Scenario,
		Method:   meta.Method,
		StepSize: meta.StepSize,
		T0:       meta.T0,
		Tf:       meta.Tf,
		Bodies:   meta.Bodies,
		Columns:  Header(meta.Bodies),
		Samples:  len(times),
		Times:    times,
		States:   states,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
