package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile  string
	preset      string
	serverURL   string
	dataDir     string
	logLevel    string
	logJSON     bool
	logFile     string
	metricsAddr string
	record      bool

	// stream
	streamFor   float64
	streamEvery int

	// plot, analyze, export
	mode         int
	svgOut       string
	exportFormat string
)

var settings = viper.New()

func main() {
	rootCmd := &cobra.Command{
		Use:           "modalstream",
		Short:         "live modal response of shear buildings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "building config file (yaml or toml)")
	pf.StringVar(&preset, "preset", "", "start from a preset configuration")
	pf.StringVar(&serverURL, "server", "", "simulation server base url")
	pf.StringVar(&dataDir, "data", ".modalstream", "recordings directory")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&logJSON, "log-json", false, "log as json")
	pf.StringVar(&logFile, "log-file", "", "log file (defaults to stderr, or <data>/modalstream.log for the tui)")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	pf.BoolVar(&record, "record", false, "save the received series when the session ends")

	settings.SetEnvPrefix("MODALSTREAM")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(pf); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive session (default)",
		RunE:  runLive,
	}

	streamCmd := &cobra.Command{
		Use:   "stream",
		Short: "stream a session to stdout without the tui",
		RunE:  runStream,
	}
	streamCmd.Flags().Float64Var(&streamFor, "for", 0, "stop after this many simulated seconds (0 runs until the server closes)")
	streamCmd.Flags().IntVar(&streamEvery, "every", 1, "print every nth sample")

	modalCmd := &cobra.Command{
		Use:   "modal",
		Short: "print the modal analysis of the configured building",
		RunE:  runModal,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recordings",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded mode",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&mode, "mode", 1, "mode to plot (1-based)")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the displacement plot to this svg file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate the dominant response period of a recording",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&mode, "mode", 1, "mode to analyze (1-based)")

	exportCmd := &cobra.Command{
		Use:     "export [run_id]",
		Aliases: []string{"export-csv"},
		Short:   "export a recording to stdout",
		Args:    cobra.ExactArgs(1),
		RunE:    exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv or json)")

	rootCmd.AddCommand(liveCmd, streamCmd, modalCmd, presetsCmd, listCmd, plotCmd, analyzeCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
