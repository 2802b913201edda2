package present

import (
	"encoding/json"
	"io"

	"spreadscan/pkg/model"
)

// JSON renders reports as indented JSON
type JSON struct{}

// RenderRows encodes the report as is
func (j *JSON) RenderRows(w io.Writer, report *model.ScanReport) error {
	return encode(w, report)
}

// RenderMatrix adds the period header and the list-of-rows shape
func (j *JSON) RenderMatrix(w io.Writer, report *model.ScanReport) error {
	out := struct {
		*model.ScanReport
		Periods []string            `json:"periods"`
		Records []map[string]string `json:"records"`
	}{ScanReport: report}
	if report.Matrix != nil {
		out.Periods = report.Matrix.Periods()
		out.Records = report.Matrix.Records()
	}
	return encode(w, out)
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// EncodeChart writes a candle pair as indented JSON
func EncodeChart(w io.Writer, pair *model.CandlePair) error {
	return encode(w, pair)
}
