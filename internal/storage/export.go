package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/sdmsim/internal/particulator"
)

type ExportData struct {
	Scenario string               `json:"scenario"`
	Seed     int64                `json:"seed"`
	NSD      int                  `json:"n_sd"`
	Dt       float64              `json:"dt"`
	Duration float64              `json:"duration"`
	Steps    int                  `json:"steps"`
	Times    []float64            `json:"times"`
	Products map[string][]float64 `json:"products"`
	Units    map[string]string    `json:"units"`
}

// ExportJSON writes a run as a single indented JSON document.
func ExportJSON(w io.Writer, scenario string, nSD int, res *particulator.Result) error {
	data := ExportData{
		Scenario: scenario,
		Seed:     res.Seed,
		NSD:      nSD,
		Dt:       res.Dt,
		Duration: float64(res.Steps) * res.Dt,
		Steps:    res.Steps,
		Times:    res.Times,
		Products: res.Products,
		Units:    res.Units,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV writes one row per sample: time followed by every product in
// recording order.
func WriteCSV(w io.Writer, res *particulator.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, res.Order...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, t := range res.Times {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(t))
		for _, name := range res.Order {
			row = append(row, formatFloat(res.Products[name][i]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
