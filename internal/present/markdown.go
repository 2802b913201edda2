package present

import (
	"fmt"
	"io"
	"strings"

	"spreadscan/pkg/model"
)

// Markdown renders reports as markdown tables. With Boxes set, result cells
// are coloured HTML badges; otherwise icon tokens.
type Markdown struct {
	Styles Styles
	Boxes  bool
}

func (m *Markdown) cell(l model.Label) string {
	if m.Boxes {
		return m.Styles.Box(l)
	}
	return m.Styles.Cell(l)
}

func (m *Markdown) instrument(r model.ScanRow) string {
	if m.Boxes {
		return fmt.Sprintf("**%s**<br><small>(%s)</small>", escape(r.Name), formatPrice(r.Price))
	}
	return fmt.Sprintf("**%s** (%s)", escape(r.Name), formatPrice(r.Price))
}

// RenderRows writes the instrument / previous / current table
func (m *Markdown) RenderRows(w io.Writer, report *model.ScanReport) error {
	_, err := io.WriteString(w, m.rowsMarkdown(report))
	return err
}

// RenderMatrix writes one column per period
func (m *Markdown) RenderMatrix(w io.Writer, report *model.ScanReport) error {
	_, err := io.WriteString(w, m.matrixMarkdown(report))
	return err
}

func (m *Markdown) rowsMarkdown(report *model.ScanReport) string {
	var b strings.Builder
	if len(report.Rows) == 0 {
		b.WriteString("_No results._\n")
		m.footer(&b, report)
		return b.String()
	}

	prevLabel, currLabel, shared := sharedPeriods(report.Rows)
	full := report.Mode == model.ModeFull

	switch {
	case full:
		b.WriteString("| Instrument | Timeframe | Previous | Current |\n")
		b.WriteString("| :--- | :---: | :---: | :---: |\n")
	case shared:
		fmt.Fprintf(&b, "| Instrument | Previous (%s) | Current (%s) |\n", escape(prevLabel), escape(currLabel))
		b.WriteString("| :--- | :---: | :---: |\n")
	default:
		b.WriteString("| Instrument | Previous | Current |\n")
		b.WriteString("| :--- | :---: | :---: |\n")
	}

	for _, r := range report.Rows {
		prev, curr := m.cell(r.Previous), m.cell(r.Current)
		if full || !shared {
			prev = escape(r.PreviousPeriod) + " " + prev
			curr = escape(r.CurrentPeriod) + " " + curr
		}
		if full {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", m.instrument(r), r.Granularity.Name(), prev, curr)
		} else {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", m.instrument(r), prev, curr)
		}
	}

	m.footer(&b, report)
	return b.String()
}

func (m *Markdown) matrixMarkdown(report *model.ScanReport) string {
	var b strings.Builder
	mx := report.Matrix
	if mx == nil || mx.Len() == 0 {
		b.WriteString("_No results._\n")
		m.footer(&b, report)
		return b.String()
	}

	periods := mx.Periods()
	b.WriteString("| Instrument |")
	for _, p := range periods {
		fmt.Fprintf(&b, " %s |", escape(p))
	}
	b.WriteString("\n| :--- |")
	b.WriteString(strings.Repeat(" :---: |", len(periods)))
	b.WriteString("\n")

	for _, r := range mx.Rows {
		fmt.Fprintf(&b, "| **%s** |", escape(r.Name))
		for _, p := range periods {
			if l, ok := mx.Lookup(r.Ticker, p); ok {
				fmt.Fprintf(&b, " %s |", m.cell(l))
			} else {
				b.WriteString(" - |")
			}
		}
		b.WriteString("\n")
	}

	m.footer(&b, report)
	return b.String()
}

func (m *Markdown) footer(b *strings.Builder, report *model.ScanReport) {
	if len(report.Skipped) > 0 {
		fmt.Fprintf(b, "\n_No data for: %s_\n", escape(skippedTickers(report.Skipped)))
	}
}

// cellEscaper neutralises table pipes, raw HTML and link syntax in names,
// period labels and tickers. HTML output renders goldmark in unsafe mode for
// the result badges, so user text must never reach it as markup.
var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
)

func escape(s string) string {
	return cellEscaper.Replace(s)
}
