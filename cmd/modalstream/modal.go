package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/modalstream/internal/modal"
)

func runModal(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := cfg.ModelRequest()
	if err != nil {
		return err
	}

	client := modal.NewClient(cfg.Server.URL, logger)
	if cfg.Server.ModalPath != "" {
		client.Path = cfg.Server.ModalPath
	}
	a, err := client.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	summary := a.Summary()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tOMEGA [rad/s]\tFREQ [Hz]\tPERIOD [s]\tSHAPE")
	for i, omega := range a.Frequencies {
		shape := "-"
		if i < len(a.Modes) {
			parts := make([]string, len(a.Modes[i]))
			for j, v := range a.Modes[i] {
				parts[j] = fmt.Sprintf("%+.3f", v)
			}
			shape = strings.Join(parts, " ")
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%s\n", i+1, omega, a.FrequencyHz(i), summary.Periods[i], shape)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	printMatrix("mass matrix [t]", a.M, 1e-3)
	printMatrix("stiffness matrix [kN/m]", a.K, 1e-3)

	area := 0.0
	for _, b := range cfg.Model.Bays {
		area += b
	}
	area *= cfg.Model.Depth
	if loads := a.FloorLoads(area); len(loads) > 0 {
		fmt.Printf("\nequivalent floor load over %.1f m²:\n", area)
		for i, q := range loads {
			fmt.Printf("  floor %d: %.2f kN/m²\n", i+1, q)
		}
	}
	return nil
}

func printMatrix(title string, m [][]float64, scale float64) {
	if len(m) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, row := range m {
		for _, v := range row {
			fmt.Fprintf(w, "%.3f\t", v*scale)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
