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
	"strings"
	"time"

	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/pid"
	"github.com/san-kum/pidctl/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Plant       string             `json:"plant"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Controller  string             `json:"controller"`
	Setpoint    float64            `json:"setpoint"`
	PID         pid.Config         `json:"pid"`
	PlantParams map[string]float64 `json:"plant_params,omitempty"`
	Steps       int                `json:"steps"`
	Metrics     map[string]float64 `json:"metrics"`
}

// MetadataFor describes a run of cfg.
func MetadataFor(cfg *config.Config) RunMetadata {
	return RunMetadata{
		Plant:       cfg.Plant,
		Seed:        cfg.Seed,
		Duration:    cfg.Duration,
		Integrator:  cfg.Integrator,
		Controller:  cfg.Controller,
		Setpoint:    cfg.Setpoint,
		PID:         cfg.PID,
		PlantParams: cfg.PlantParams,
	}
}

// Save writes the run under a new directory and returns its id. ID and
// Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Plant, meta.Timestamp.UnixNano())
	}
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return "", fmt.Errorf("write series: %w", err)
	}
	return meta.ID, nil
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSeries(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	nx := len(result.States[0])
	nu := 0
	if len(result.Controls) > 0 {
		nu = len(result.Controls[0])
	}

	header := []string{"time", "setpoint"}
	for i := 0; i < nx; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < nu; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, x := range result.States {
		sp := 0.0
		if i < len(result.Setpoints) {
			sp = result.Setpoints[i]
		}
		row := []string{formatFloat(result.Times[i]), formatFloat(sp)}
		for _, v := range x {
			row = append(row, formatFloat(v))
		}
		// the final state has no control applied after it
		for j := 0; j < nu; j++ {
			v := 0.0
			if i < len(result.Controls) {
				v = result.Controls[i][j]
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads a run's series.csv back into a result. Controls has one
// entry per step, so the padded final row is dropped.
func (s *Store) LoadSeries(runID string) (*sim.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", runID, err)
	}

	result := &sim.Result{Metrics: make(map[string]float64)}
	if len(records) < 2 {
		return result, nil
	}

	header := records[0]
	if len(header) < 2 || header[0] != "time" || header[1] != "setpoint" {
		return nil, fmt.Errorf("series %s: malformed header %v", runID, header)
	}

	nx, nu := 0, 0
	for _, col := range header[2:] {
		switch {
		case strings.HasPrefix(col, "x"):
			nx++
		case strings.HasPrefix(col, "u"):
			nu++
		}
	}

	rows := records[1:]
	for i, record := range rows {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("series %s row %d: %w", runID, i+1, err)
			}
			vals[j] = v
		}

		result.Times = append(result.Times, vals[0])
		result.Setpoints = append(result.Setpoints, vals[1])
		result.States = append(result.States, sim.State(vals[2:2+nx]))
		if nu > 0 && i < len(rows)-1 {
			result.Controls = append(result.Controls, sim.Control(vals[2+nx:2+nx+nu]))
		}
	}
	result.StepsTaken = len(rows) - 1

	if meta, err := s.Load(runID); err == nil {
		result.Metrics = meta.Metrics
	}
	return result, nil
}
