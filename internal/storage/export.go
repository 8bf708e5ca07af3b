package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/modalstream/internal/series"
)

type ExportData struct {
	RunMetadata
	Modes []ModeData `json:"modes"`
}

type ModeData struct {
	Index  int       `json:"index"`
	Period float64   `json:"period"`
	Tau    []float64 `json:"tau"`
	X      []float64 `json:"x"`
	V      []float64 `json:"v"`
	A      []float64 `json:"a"`
}

func exportData(meta *RunMetadata, modes [][]series.Point) ExportData {
	data := ExportData{RunMetadata: *meta, Modes: make([]ModeData, len(modes))}
	for i, points := range modes {
		md := ModeData{Index: i}
		if i < len(meta.Periods) {
			md.Period = meta.Periods[i]
		}
		md.Tau = make([]float64, len(points))
		md.X = make([]float64, len(points))
		md.V = make([]float64, len(points))
		md.A = make([]float64, len(points))
		for j, p := range points {
			md.Tau[j], md.X[j], md.V[j], md.A[j] = p.T, p.X, p.V, p.A
		}
		data.Modes[i] = md
	}
	return data
}

func ExportJSON(w io.Writer, meta *RunMetadata, modes [][]series.Point) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData(meta, modes))
}

// ExportCSV writes one wide table: simulated time, the response channel and
// the normalized time of every mode. Every mode carries the same samples, so
// the first one drives the rows.
func ExportCSV(w io.Writer, meta *RunMetadata, modes [][]series.Point) error {
	cw := csv.NewWriter(w)
	header := []string{"t", "x", "v", "a"}
	for i := range modes {
		header = append(header, "tau"+strconv.Itoa(i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	if len(modes) > 0 && len(meta.Periods) > 0 {
		period := meta.Periods[0]
		for j, p := range modes[0] {
			row := []string{formatFloat(p.T * period), formatFloat(p.X), formatFloat(p.V), formatFloat(p.A)}
			for _, m := range modes {
				if j < len(m) {
					row = append(row, formatFloat(m[j].T))
				} else {
					row = append(row, "")
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
