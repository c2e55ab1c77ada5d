// Package storage persists simulation runs: one directory per run with a
// metadata.json and a samples.csv holding the recorded trajectory.
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

	"github.com/san-kum/blocksim/internal/sim"
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

type RunMetadata struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Duration  float64   `json:"duration"`
	RTol      float64   `json:"rtol"`
	ATol      float64   `json:"atol"`
	XTol      float64   `json:"xtol"`
	NumStates int       `json:"num_states"`
	Samples   int       `json:"samples"`
	Events    int       `json:"events"`
	Status    string    `json:"status"`
}

// Save persists a run and returns its id. The CSV layout is one row per
// sample: time, the state lines, the output lines, and the index of the
// triggered event (-1 for none).
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Samples = result.Len()
	meta.Events = countEvents(result)

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

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	w := csv.NewWriter(csvFile)
	defer w.Flush()

	for i := 0; i < result.Len(); i++ {
		state := result.State(i)
		output := result.Output(i)
		row := make([]string, 0, 2+len(state)+len(output))
		row = append(row, strconv.FormatFloat(result.Times()[i], 'g', -1, 64))
		for _, v := range state {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, v := range output {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, strconv.Itoa(triggeredEvent(result, i)))
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func countEvents(result *sim.Result) int {
	n := 0
	for i := 0; i < result.Len(); i++ {
		if triggeredEvent(result, i) >= 0 {
			n++
		}
	}
	return n
}

func triggeredEvent(result *sim.Result, i int) int {
	for j, set := range result.EventRow(i) {
		if set {
			return j
		}
	}
	return -1
}

// Load reads a run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Run holds a loaded trajectory.
type Run struct {
	Times   []float64
	States  [][]float64
	Outputs [][]float64
	Events  []int
}

// LoadSamples reads a run's trajectory back, splitting the state and
// output columns using the state count recorded in the metadata.
func (s *Store) LoadSamples(runID string) (*Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	numStates := meta.NumStates

	f, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	run := &Run{}
	for _, row := range rows {
		if len(row) < 2+numStates {
			return nil, fmt.Errorf("storage: malformed sample row with %d columns", len(row))
		}
		vals := make([]float64, len(row)-1)
		for i := 0; i < len(row)-1; i++ {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		event, err := strconv.Atoi(row[len(row)-1])
		if err != nil {
			return nil, err
		}
		run.Times = append(run.Times, vals[0])
		run.States = append(run.States, vals[1:1+numStates])
		run.Outputs = append(run.Outputs, vals[1+numStates:])
		run.Events = append(run.Events, event)
	}
	return run, nil
}

// List returns the metadata of all stored runs, newest first.
func (s *Store) List() ([]*RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []*RunMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

// ExportData is the JSON export layout of a run.
type ExportData struct {
	Meta    RunMetadata `json:"meta"`
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
	Outputs [][]float64 `json:"outputs"`
	Events  []int       `json:"events"`
}

// ExportJSON writes a stored run as indented JSON to the given file, or
// to stdout when path is empty.
func (s *Store) ExportJSON(runID string, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	run, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	data := ExportData{
		Meta:    *meta,
		Times:   run.Times,
		States:  run.States,
		Outputs: run.Outputs,
		Events:  run.Events,
	}

	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
