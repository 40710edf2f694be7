package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pidctl/internal/sim"
)

type ExportData struct {
	RunMetadata
	Times     []float64   `json:"times"`
	Setpoints []float64   `json:"setpoints"`
	States    [][]float64 `json:"states"`
	Controls  [][]float64 `json:"controls"`
}

// ExportJSON writes the run metadata and its full series as one document.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		Setpoints:   result.Setpoints,
		States:      make([][]float64, len(result.States)),
		Controls:    make([][]float64, len(result.Controls)),
	}
	data.Steps = result.StepsTaken
	data.Metrics = result.Metrics

	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
