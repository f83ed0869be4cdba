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

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

var sampleHeader = []string{"time", "step", "body", "id", "x", "y", "z", "vx", "vy", "vz", "angular", "held"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes the scenario a result came from.
type RunInfo struct {
	Scenario string
	Source   []byte
	FrameDt  float64
	FixedDt  float64
	Duration float64
}

type ReleaseRecord struct {
	Time     float64    `json:"time"`
	Driver   string     `json:"driver"`
	Body     string     `json:"body"`
	Velocity [3]float64 `json:"velocity"`
	Speed    float64    `json:"speed"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Fingerprint string             `json:"fingerprint"`
	Timestamp   time.Time          `json:"timestamp"`
	FrameDt     float64            `json:"frame_dt"`
	FixedDt     float64            `json:"fixed_dt"`
	Duration    float64            `json:"duration"`
	Frames      int                `json:"frames"`
	Steps       int                `json:"steps"`
	Metrics     map[string]float64 `json:"metrics"`
	Releases    []ReleaseRecord    `json:"releases"`
	Errors      []string           `json:"errors,omitempty"`
}

// Fingerprint identifies a scenario source so runs of the same script can be
// grouped.
func Fingerprint(source []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(source))
}

// NewMetadata builds the metadata for result without writing anything.
func NewMetadata(info RunInfo, result *sim.Result) RunMetadata {
	now := time.Now()
	meta := RunMetadata{
		ID:          fmt.Sprintf("%s_%d_%s", info.Scenario, now.Unix(), uuid.NewString()[:8]),
		Scenario:    info.Scenario,
		Fingerprint: Fingerprint(info.Source),
		Timestamp:   now,
		FrameDt:     info.FrameDt,
		FixedDt:     info.FixedDt,
		Duration:    info.Duration,
		Frames:      result.Frames,
		Steps:       result.Steps,
		Metrics:     result.Metrics,
		Releases:    make([]ReleaseRecord, 0, len(result.Releases)),
	}
	for _, r := range result.Releases {
		meta.Releases = append(meta.Releases, ReleaseRecord{
			Time:     r.Time,
			Driver:   r.Driver,
			Body:     r.Body,
			Velocity: [3]float64(r.Velocity),
			Speed:    r.Speed(),
		})
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	return meta
}

// Save writes metadata.json and samples.csv under a new run directory and
// returns the run ID.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	meta := NewMetadata(info, result)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(s.samplesPath(meta.ID))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(sampleHeader); err != nil {
		return "", err
	}
	for _, smp := range result.Samples {
		if err := w.Write(sampleRow(smp)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func sampleRow(s sim.Sample) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		f(s.Time),
		strconv.Itoa(s.Step),
		s.Body,
		s.ID,
		f(s.Position[0]), f(s.Position[1]), f(s.Position[2]),
		f(s.Velocity[0]), f(s.Velocity[1]), f(s.Velocity[2]),
		f(s.AngularSpeed),
		strconv.FormatBool(s.Held),
	}
}

// List returns the stored runs, newest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
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
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadSamples reads samples.csv back. Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(s.samplesPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]sim.Sample, 0, len(records))
	for i := 1; i < len(records); i++ {
		smp, ok := parseRow(records[i])
		if !ok {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseRow(rec []string) (sim.Sample, bool) {
	if len(rec) != len(sampleHeader) {
		return sim.Sample{}, false
	}
	var nums [8]float64
	for i, col := range []int{0, 4, 5, 6, 7, 8, 9, 10} {
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			return sim.Sample{}, false
		}
		nums[i] = v
	}
	step, err := strconv.Atoi(rec[1])
	if err != nil {
		return sim.Sample{}, false
	}
	held, err := strconv.ParseBool(rec[11])
	if err != nil {
		return sim.Sample{}, false
	}
	return sim.Sample{
		Time:         nums[0],
		Step:         step,
		Body:         rec[2],
		ID:           rec[3],
		Position:     mgl64.Vec3{nums[1], nums[2], nums[3]},
		Velocity:     mgl64.Vec3{nums[4], nums[5], nums[6]},
		AngularSpeed: nums[7],
		Held:         held,
	}, true
}

// ReleaseEvents converts stored release records back into release events.
func (m *RunMetadata) ReleaseEvents() []sim.ReleaseEvent {
	out := make([]sim.ReleaseEvent, 0, len(m.Releases))
	for _, r := range m.Releases {
		out = append(out, sim.ReleaseEvent{
			Time: r.Time,
			Release: grab.Release{
				Driver:   r.Driver,
				Body:     r.Body,
				Velocity: mgl64.Vec3(r.Velocity),
			},
		})
	}
	return out
}

func (s *Store) samplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "samples.csv")
}
