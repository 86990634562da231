package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/config"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/fields"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/integrators"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/storage"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// table renders rows in left aligned columns, the first row as a header.
func table(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := cellStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Inherit(headerStyle)
			}
			cells[i] = style.Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteByte('\n')
	}
	return b.String()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	rows := [][]string{{"ID", "FIELD", "TIME", "SHAPE", "METHOD", "RTOL", "ATOL"}}
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Field,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%dx%dx%dx%d", run.Samples, run.Batch, run.Points, run.Dim),
			run.Method,
			fmt.Sprintf("%.0e", run.RTol),
			fmt.Sprintf("%.0e", run.ATol),
		})
	}
	fmt.Print(table(rows))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	ts, traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	if sampleIdx < 0 || sampleIdx >= meta.Samples {
		return fmt.Errorf("sample %d out of range [0,%d)", sampleIdx, meta.Samples)
	}
	if seqIdx < 0 || seqIdx >= meta.Batch {
		return fmt.Errorf("sequence %d out of range [0,%d)", seqIdx, meta.Batch)
	}
	if len(ts) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(titleStyle.Render("run: " + meta.ID))
	fmt.Printf("field: %s\n", meta.Field)
	fmt.Printf("sample %d, sequence %d, t=[%.4g, %.4g]\n\n", sampleIdx, seqIdx, ts[0], ts[len(ts)-1])

	numVars := meta.Dim
	maxPlots := 6
	if numVars > maxPlots {
		numVars = maxPlots
	}

	for j := 0; j < numVars; j++ {
		data := make([]float64, meta.Points)
		for k := range data {
			data[k] = traj.At(sampleIdx, seqIdx, k, j)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("x%d vs time", j)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).WriteJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	rows := [][]string{{"PRESET", "METHOD", "RTOL", "ATOL", "MAX STEPS", "STEP"}}
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		rows = append(rows, []string{
			name, p.Method,
			fmt.Sprintf("%g", p.RTol), fmt.Sprintf("%g", p.ATol),
			fmt.Sprintf("%d", p.MaxSteps), fmt.Sprintf("%g", p.StepSize),
		})
	}
	fmt.Print(table(rows))
	fmt.Println(dimStyle.Render("methods: " + strings.Join(integrators.Methods(), ", ")))
	return nil
}

func listFields(cmd *cobra.Command, args []string) error {
	registry := fields.NewRegistry()
	rows := [][]string{{"FIELD", "DIM", "PARAMS"}}
	for _, name := range registry.List() {
		m, err := registry.Get(name)
		if err != nil {
			return err
		}
		params := m.GetParams()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%g", k, params[k])
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", m.Dim()), strings.Join(parts, " ")})
	}
	fmt.Print(table(rows))
	return nil
}
