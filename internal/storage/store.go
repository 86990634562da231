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

	"github.com/google/uuid"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
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

// RunMetadata describes one stored integration. Samples, Batch, Points and
// Dim give the [L,N,T,d] shape of the trajectory.
type RunMetadata struct {
	ID          string             `json:"id"`
	Field       string             `json:"field"`
	Timestamp   time.Time          `json:"timestamp"`
	Method      string             `json:"method"`
	RTol        float64            `json:"rtol"`
	ATol        float64            `json:"atol"`
	Samples     int                `json:"samples"`
	Batch       int                `json:"batch"`
	Points      int                `json:"points"`
	Dim         int                `json:"dim"`
	Params      map[string]float64 `json:"params,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	ElapsedSecs float64            `json:"elapsed_secs"`
}

// Save writes the metadata and the trajectory traj [L,N,T,d] sampled at ts
// under a new run id, which it returns.
func (s *Store) Save(meta RunMetadata, ts []float64, traj *dynamo.Tensor) (string, error) {
	if traj.NDim() != 4 {
		return "", dynamo.Mismatch("trajectory must be [L,N,T,d], got %v", traj.Shape)
	}
	if traj.Dim(2) != len(ts) {
		return "", dynamo.Mismatch("trajectory has %d time points, grid has %d", traj.Dim(2), len(ts))
	}

	meta.ID = fmt.Sprintf("%s_%s", meta.Field, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Samples, meta.Batch, meta.Points, meta.Dim = traj.Dim(0), traj.Dim(1), traj.Dim(2), traj.Dim(3)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), ts, traj); err != nil {
		return "", fmt.Errorf("write trajectory: %w", err)
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

func writeTrajectory(path string, ts []float64, traj *dynamo.Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	L, N, T, d := traj.Dim(0), traj.Dim(1), traj.Dim(2), traj.Dim(3)
	header := []string{"sample", "sequence", "time"}
	for j := 0; j < d; j++ {
		header = append(header, fmt.Sprintf("x%d", j))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 3+d)
	for l := 0; l < L; l++ {
		for n := 0; n < N; n++ {
			for k := 0; k < T; k++ {
				row[0] = strconv.Itoa(l)
				row[1] = strconv.Itoa(n)
				row[2] = strconv.FormatFloat(ts[k], 'g', -1, 64)
				for j := 0; j < d; j++ {
					row[3+j] = strconv.FormatFloat(traj.At(l, n, k, j), 'g', -1, 64)
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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

// LoadTrajectory rebuilds the time grid and the [L,N,T,d] trajectory of a
// stored run.
func (s *Store) LoadTrajectory(runID string) ([]float64, *dynamo.Tensor, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	L, N, T, d := meta.Samples, meta.Batch, meta.Points, meta.Dim
	if L < 0 || N < 0 || T < 0 || d < 0 {
		return nil, nil, dynamo.Bounds("metadata shape [%d,%d,%d,%d] has a negative axis", L, N, T, d)
	}
	if len(records) != 1+L*N*T {
		return nil, nil, dynamo.Mismatch("%s has %d rows, metadata implies %d", trajectoryFile, len(records)-1, L*N*T)
	}

	// Rows are written sample-major, then sequence, then time.
	ts := make([]float64, T)
	traj := dynamo.NewTensor(L, N, T, d)
	for i, record := range records[1:] {
		row := i + 1
		if len(record) != 3+d {
			return nil, nil, dynamo.Mismatch("row %d has %d columns, want %d", row, len(record), 3+d)
		}
		l, n, k := i/(N*T), (i/T)%N, i%T

		gotL, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d sample: %w", row, err)
		}
		gotN, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d sequence: %w", row, err)
		}
		if gotL != l || gotN != n {
			return nil, nil, dynamo.Mismatch("row %d holds sample %d sequence %d, want sample %d sequence %d", row, gotL, gotN, l, n)
		}

		tk, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d time: %w", row, err)
		}
		if l == 0 && n == 0 {
			if k > 0 && !(tk > ts[k-1]) {
				return nil, nil, &dynamo.SimulationError{Step: k, Time: tk, Wrapped: dynamo.ErrTimeGrid}
			}
			ts[k] = tk
		} else if tk != ts[k] {
			return nil, nil, dynamo.Mismatch("row %d has time %g, want %g", row, tk, ts[k])
		}

		for j := 0; j < d; j++ {
			v, err := strconv.ParseFloat(record[3+j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %d: %w", row, 3+j, err)
			}
			traj.Set(v, l, n, k, j)
		}
	}

	return ts, traj, nil
}
