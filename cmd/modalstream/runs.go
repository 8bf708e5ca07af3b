package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/modalstream/internal/analysis"
	"github.com/san-kum/modalstream/internal/config"
	"github.com/san-kum/modalstream/internal/export"
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/storage"
	"github.com/san-kum/modalstream/internal/viz"
)

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTORIES\tFORCE\tFREQ")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		freq := "-"
		if cfg.Simulation.Force.Type != config.ForceEarthquake {
			freq = fmt.Sprintf("%.2f Hz", cfg.Simulation.Force.FrequencyHz)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, cfg.Model.Stories, cfg.Simulation.Force.Type, freq)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(settings.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no recordings found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTORIES\tFORCE\tDURATION\tSAMPLES\tT1")

	for _, run := range runs {
		t1 := "-"
		if len(run.Periods) > 0 {
			t1 = fmt.Sprintf("%.3fs", run.Periods[0])
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.2fs\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Stories,
			run.Force,
			run.Duration,
			run.Samples,
			t1,
		)
	}

	return w.Flush()
}

// loadMode returns the metadata and the points of the 1-based mode index.
func loadMode(runID string, index int) (*storage.RunMetadata, []series.Point, error) {
	st := storage.New(settings.GetString("data"))
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	modes, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	if index < 1 || index > len(modes) {
		return nil, nil, fmt.Errorf("mode %d out of range (recording has %d)", index, len(modes))
	}
	if len(modes[index-1]) == 0 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, modes[index-1], nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, points, err := loadMode(args[0], mode)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %d (T = %.4f s)\n", mode, meta.Periods[mode-1])
	fmt.Printf("samples: %d\n\n", len(points))

	for q := viz.Displacement; q <= viz.Acceleration; q++ {
		data := make([]float64, len(points))
		for i, p := range points {
			data[i] = q.Value(p)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs t/T", q)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgOut != "" {
		if err := export.WriteFile(svgOut, export.SeriesToSVG(points, viz.Displacement, 800, 300, "")); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, points, err := loadMode(args[0], mode)
	if err != nil {
		return err
	}
	if meta.Dt <= 0 {
		return fmt.Errorf("recording has no time step")
	}

	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.X
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("mode %d natural period: %.4f s\n\n", mode, meta.Periods[mode-1])

	if ps := analysis.PowerSpectrum(data); len(ps) >= 8 {
		graph := asciigraph.Plot(ps[:len(ps)/4],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (x)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if period, ok := analysis.DominantPeriod(data, meta.Dt); ok {
		fmt.Printf("dominant period: %.4f s (%.3f Hz)\n", period, 1/period)
	} else {
		fmt.Println("dominant period: none (signal too short or flat)")
	}
	if period, ok := analysis.CrossingPeriod(data, meta.Dt); ok {
		fmt.Printf("zero-crossing period: %.4f s\n", period)
	}

	portrait := analysis.PhasePortrait(points)
	xMax, vMax := portrait.Peaks()
	canvas := viz.NewCanvas(60, 20)
	viz.DrawPortrait(canvas, portrait.X, portrait.V, xMax, vMax)
	fmt.Println()
	fmt.Printf("phase portrait (x peak %.3e, v peak %.3e)\n", xMax, vMax)
	fmt.Print(canvas.String())
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(settings.GetString("data"))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	modes, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	switch exportFormat {
	case "csv":
		return storage.ExportCSV(os.Stdout, meta, modes)
	case "json":
		return storage.ExportJSON(os.Stdout, meta, modes)
	default:
		return fmt.Errorf("unknown format %q (csv or json)", exportFormat)
	}
}
