package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/grabsim/internal/sim"
)

type ExportSample struct {
	Time         float64    `json:"t"`
	Step         int        `json:"step"`
	Body         string     `json:"body"`
	Position     [3]float64 `json:"position"`
	Velocity     [3]float64 `json:"velocity"`
	AngularSpeed float64    `json:"angular_speed"`
	Held         bool       `json:"held"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

func NewExportData(meta RunMetadata, samples []sim.Sample) ExportData {
	data := ExportData{Run: meta, Samples: make([]ExportSample, len(samples))}
	for i, s := range samples {
		data.Samples[i] = ExportSample{
			Time:         s.Time,
			Step:         s.Step,
			Body:         s.Body,
			Position:     [3]float64(s.Position),
			Velocity:     [3]float64(s.Velocity),
			AngularSpeed: s.AngularSpeed,
			Held:         s.Held,
		}
	}
	return data
}

// WriteJSON encodes a run and its samples as indented JSON.
func WriteJSON(w io.Writer, meta RunMetadata, samples []sim.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, samples))
}

// ExportJSON writes a stored run to path, or to stdout when path is empty.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	if path == "" {
		return WriteJSON(os.Stdout, *meta, samples)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, *meta, samples)
}

// ExportCSV copies a stored run's samples.csv to w.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	f, err := os.Open(s.samplesPath(runID))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
