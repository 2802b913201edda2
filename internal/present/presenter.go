// Package present renders scan reports and candle charts.
package present

import (
	"fmt"
	"io"
	"strings"

	"spreadscan/pkg/model"
)

// Presenter renders scan reports
type Presenter interface {
	// RenderRows renders a pairwise or full report
	RenderRows(w io.Writer, report *model.ScanReport) error
	// RenderMatrix renders a windowed matrix report
	RenderMatrix(w io.Writer, report *model.ScanReport) error
}

// Formats lists the accepted output formats
var Formats = []string{"table", "markdown", "html", "json"}

// New returns the presenter for format
func New(format string, styles Styles) (Presenter, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return &Table{Styles: styles}, nil
	case "markdown", "md":
		return &Markdown{Styles: styles}, nil
	case "html":
		return &HTML{Styles: styles}, nil
	case "json":
		return &JSON{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (available: %v)", format, Formats)
}

// Render dispatches on the report mode
func Render(p Presenter, w io.Writer, report *model.ScanReport) error {
	if report.Mode == model.ModeMatrix {
		return p.RenderMatrix(w, report)
	}
	return p.RenderRows(w, report)
}

// sharedPeriods returns the period labels when every row has the same pair
func sharedPeriods(rows []model.ScanRow) (prev, curr string, ok bool) {
	if len(rows) == 0 {
		return "", "", false
	}
	prev, curr = rows[0].PreviousPeriod, rows[0].CurrentPeriod
	for _, r := range rows[1:] {
		if r.PreviousPeriod != prev || r.CurrentPeriod != curr {
			return "", "", false
		}
	}
	return prev, curr, true
}

func formatPrice(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *p)
}

func skippedTickers(skips []model.Skip) string {
	names := make([]string, len(skips))
	for i, s := range skips {
		if s.Granularity != "" {
			names[i] = s.Ticker + "/" + s.Granularity.Name()
		} else {
			names[i] = s.Ticker
		}
	}
	return strings.Join(names, ", ")
}
