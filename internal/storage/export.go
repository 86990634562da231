package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Grid         []float64       `json:"times"`
	Trajectories [][][][]float64 `json:"trajectories"`
}

// Export loads a run and nests its trajectory as [L][N][T][d].
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	ts, traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{RunMetadata: *meta, Grid: ts}
	data.Trajectories = make([][][][]float64, meta.Samples)
	for l := range data.Trajectories {
		data.Trajectories[l] = make([][][]float64, meta.Batch)
		for n := range data.Trajectories[l] {
			data.Trajectories[l][n] = make([][]float64, meta.Points)
			for k := range data.Trajectories[l][n] {
				row := make([]float64, meta.Dim)
				for j := range row {
					row[j] = traj.At(l, n, k, j)
				}
				data.Trajectories[l][n][k] = row
			}
		}
	}
	return data, nil
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.WriteJSON(file, runID)
}

func (s *Store) WriteJSON(w io.Writer, runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
