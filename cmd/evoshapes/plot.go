package main

import (
	"fmt"

	"github.com/cwbudde/evoshapes/internal/report"
	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/spf13/cobra"
)

var (
	plotOut   string
	plotTrace string
)

var plotCmd = &cobra.Command{
	Use:   "plot [run-id]",
	Short: "Chart best, mean and worst fitness per generation",
	Long: `Reads a run's trace.jsonl (from --data-dir, or any file given with
--trace) and saves a fitness-over-generations chart. The output format
follows the extension of --out (png, svg, pdf).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&plotOut, "out", "fitness.png", "Output chart path")
	plotCmd.Flags().StringVar(&plotTrace, "trace", "", "Trace file to plot instead of a stored run")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	path := plotTrace
	title := path
	switch {
	case path != "" && len(args) > 0:
		return fmt.Errorf("give either a run id or --trace, not both")
	case path == "" && len(args) == 0:
		return fmt.Errorf("a run id or --trace is required")
	case path == "":
		path = store.TracePath(dataDir, args[0])
		title = "Run " + displayID(args[0])
	}

	entries, err := store.ReadTrace(path)
	if err != nil {
		return err
	}
	if err := report.SaveFitnessPlot(entries, title, plotOut); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d generations)\n", plotOut, len(entries))
	return nil
}
