package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir string

	fieldParams map[string]string
	x0Flag      string
	batch       int
	samples     int
	spread      float64
	jitter      float64
	t0          float64
	t1          float64
	points      int
	method      string
	rtol        float64
	atol        float64
	firstStep   float64
	configFile  string
	preset      string

	nsub int
	tsub int
	seed int64

	sampleIdx int
	seqIdx    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "odevae",
		Short:        "ode integration and minibatching for ode-vae training",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odevae", "data directory")

	integrateCmd := &cobra.Command{
		Use:   "integrate [field]",
		Short: "integrate a vector field and save the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runIntegrate,
	}
	addSolveFlags(integrateCmd)
	integrateCmd.Flags().IntVar(&samples, "samples", 1, "number of field samples (L)")
	integrateCmd.Flags().Float64Var(&spread, "spread", 0, "relative parameter noise per field sample")

	minibatchCmd := &cobra.Command{
		Use:   "minibatch [field]",
		Short: "synthesize a dataset and draw one minibatch from it",
		Args:  cobra.ExactArgs(1),
		RunE:  runMinibatch,
	}
	addSolveFlags(minibatchCmd)
	minibatchCmd.Flags().IntVar(&nsub, "nsub", 0, "sequences per minibatch (0 keeps all)")
	minibatchCmd.Flags().IntVar(&tsub, "tsub", 0, "time points per minibatch (0 keeps all)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one trajectory of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&sampleIdx, "sample", 0, "field sample index")
	plotCmd.Flags().IntVar(&seqIdx, "seq", 0, "sequence index")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list solver presets",
		RunE:  listPresets,
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list built-in vector fields",
		RunE:  listFields,
	}

	rootCmd.AddCommand(integrateCmd, minibatchCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, fieldsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringToStringVar(&fieldParams, "param", nil, "field parameters (name=value)")
	cmd.Flags().StringVar(&x0Flag, "x0", "", "initial state, comma separated (default: field default)")
	cmd.Flags().IntVar(&batch, "batch", 16, "number of sequences (N)")
	cmd.Flags().Float64Var(&jitter, "jitter", 0.1, "std of the gaussian offset added to each sequence's initial state")
	cmd.Flags().Float64Var(&t0, "t0", 0, "start time")
	cmd.Flags().Float64Var(&t1, "t1", 10, "end time")
	cmd.Flags().IntVar(&points, "points", 101, "number of time points (T)")
	cmd.Flags().StringVar(&method, "method", "dopri5", "solver method")
	cmd.Flags().Float64Var(&rtol, "rtol", 1e-6, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", 1e-7, "absolute tolerance")
	cmd.Flags().Float64Var(&firstStep, "first-step", 0, "initial step of adaptive methods (0 picks it automatically)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "solver preset")
}
