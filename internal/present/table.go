package present

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"spreadscan/pkg/model"
)

const maxNameLen = 18

// Table renders reports as a terminal grid
type Table struct {
	Styles Styles
}

// RenderRows renders one row per ticker (per ticker and timeframe for full scans)
func (t *Table) RenderRows(w io.Writer, report *model.ScanReport) error {
	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No results.")
		t.footer(w, report)
		return nil
	}

	prevLabel, currLabel, shared := sharedPeriods(report.Rows)
	full := report.Mode == model.ModeFull

	header := []string{"Symbol", "Name", "Price"}
	if full {
		header = append(header, "Timeframe")
	}
	if shared {
		header = append(header, fmt.Sprintf("Previous (%s)", prevLabel), fmt.Sprintf("Current (%s)", currLabel))
	} else {
		header = append(header, "Previous", "Current")
	}

	table := tablewriter.NewTable(w, tablewriter.WithHeader(header))
	for _, r := range report.Rows {
		row := []string{r.Ticker, truncate(r.Name), formatPrice(r.Price)}
		if full {
			row = append(row, r.Granularity.Name())
		}
		prev, curr := t.Styles.Cell(r.Previous), t.Styles.Cell(r.Current)
		if !shared {
			prev = r.PreviousPeriod + ": " + prev
			curr = r.CurrentPeriod + ": " + curr
		}
		row = append(row, prev, curr)
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	t.footer(w, report)
	return nil
}

// RenderMatrix renders one row per ticker and one column per period
func (t *Table) RenderMatrix(w io.Writer, report *model.ScanReport) error {
	m := report.Matrix
	if m == nil || m.Len() == 0 {
		fmt.Fprintln(w, "No results.")
		t.footer(w, report)
		return nil
	}

	periods := m.Periods()
	header := append([]string{"Symbol", "Name"}, periods...)

	table := tablewriter.NewTable(w, tablewriter.WithHeader(header))
	for _, r := range m.Rows {
		row := []string{r.Ticker, truncate(r.Name)}
		for _, p := range periods {
			if l, ok := m.Lookup(r.Ticker, p); ok {
				row = append(row, t.Styles.Cell(l))
			} else {
				row = append(row, "-")
			}
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	t.footer(w, report)
	return nil
}

func (t *Table) footer(w io.Writer, report *model.ScanReport) {
	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "\nNo data for %d: %s\n", len(report.Skipped), skippedTickers(report.Skipped))
	}
	fmt.Fprintf(w, "\nScanned %d in %s\n", report.TotalScanned, report.ScanTime.Round(time.Millisecond))
}

func truncate(name string) string {
	r := []rune(name)
	if len(r) > maxNameLen {
		return string(r[:maxNameLen]) + "..."
	}
	return name
}
