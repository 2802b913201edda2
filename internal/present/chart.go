package present

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"spreadscan/pkg/model"
)

const chartRows = 16

// bounds returns the price range covered by both candles, padded when flat
func bounds(pair *model.CandlePair) (lo, hi float64) {
	lo = math.Min(pair.Bars[0].Low, pair.Bars[1].Low)
	hi = math.Max(pair.Bars[0].High, pair.Bars[1].High)
	if hi <= lo {
		pad := math.Max(math.Abs(hi)*0.01, 1)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

func rising(b model.Bar) bool {
	return b.Close >= b.Open
}

// RenderChartText draws the two candles as a text chart
func RenderChartText(w io.Writer, pair *model.CandlePair, styles Styles) error {
	lo, hi := bounds(pair)
	step := (hi - lo) / float64(chartRows-1)

	var b strings.Builder
	b.WriteString(pair.Title() + "\n\n")

	for row := 0; row < chartRows; row++ {
		price := hi - float64(row)*step
		fmt.Fprintf(&b, "%12.2f │", price)
		for _, bar := range pair.Bars {
			b.WriteString("     ")
			b.WriteString(glyph(bar, price, step))
			b.WriteString("     ")
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat(" ", 13) + "└" + strings.Repeat("─", 22) + "\n")
	fmt.Fprintf(&b, "%14s%-11s%-11s\n", "", center(pair.Labels[0], 11), center(pair.Labels[1], 11))
	for i, bar := range pair.Bars {
		dir := "down"
		if rising(bar) {
			dir = "up"
		}
		fmt.Fprintf(&b, "\n%s  O %.2f  H %.2f  L %.2f  C %.2f  (%s)", pair.Labels[i], bar.Open, bar.High, bar.Low, bar.Close, dir)
	}
	fmt.Fprintf(&b, "\n\nResult: %s\n", styles.Cell(pair.Result))

	_, err := io.WriteString(w, b.String())
	return err
}

// glyph picks the body, wick or blank cell for one candle at one price row
func glyph(bar model.Bar, price, step float64) string {
	half := step / 2
	top, bottom := math.Max(bar.Open, bar.Close), math.Min(bar.Open, bar.Close)
	switch {
	case price-half <= top && price+half >= bottom:
		if rising(bar) {
			return "█"
		}
		return "▒"
	case price-half <= bar.High && price+half >= bar.Low:
		return "│"
	}
	return " "
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// RenderChartPDF draws the two candles on a landscape A4 page
func RenderChartPDF(w io.Writer, pair *model.CandlePair, styles Styles) error {
	const (
		left, right  = 35.0, 270.0
		top, bottom  = 35.0, 175.0
		bodyWidth    = 36.0
		axisTicks    = 5
		defaultShade = 128
	)

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(pair.Title()), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr(pair.Title()), "", 1, "C", false, 0, "")

	lo, hi := bounds(pair)
	y := func(p float64) float64 {
		return top + (hi-p)/(hi-lo)*(bottom-top)
	}

	// axes
	pdf.SetDrawColor(defaultShade, defaultShade, defaultShade)
	pdf.SetLineWidth(0.2)
	pdf.Line(left, top, left, bottom)
	pdf.Line(left, bottom, right, bottom)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for i := 0; i < axisTicks; i++ {
		price := lo + (hi-lo)*float64(i)/float64(axisTicks-1)
		py := y(price)
		pdf.Line(left-2, py, left, py)
		pdf.Text(left-25, py+1, fmt.Sprintf("%.2f", price))
	}

	up := colour(styles.Green, 9, 171, 59)
	down := colour(styles.Red, 255, 75, 75)

	slot := (right - left) / 2
	for i, bar := range pair.Bars {
		cx := left + slot*(float64(i)+0.5)
		c := down
		if rising(bar) {
			c = up
		}
		pdf.SetDrawColor(c[0], c[1], c[2])
		pdf.SetFillColor(c[0], c[1], c[2])

		pdf.SetLineWidth(0.6)
		pdf.Line(cx, y(bar.High), cx, y(bar.Low))

		bodyTop := y(math.Max(bar.Open, bar.Close))
		bodyHeight := math.Max(y(math.Min(bar.Open, bar.Close))-bodyTop, 0.5)
		pdf.Rect(cx-bodyWidth/2, bodyTop, bodyWidth, bodyHeight, "FD")

		pdf.SetTextColor(60, 60, 60)
		pdf.SetXY(cx-slot/2, bottom+3)
		pdf.CellFormat(slot, 6, tr(pair.Labels[i]), "", 0, "C", false, 0, "")
		pdf.SetXY(cx-slot/2, bottom+9)
		pdf.CellFormat(slot, 6, fmt.Sprintf("O %.2f  H %.2f  L %.2f  C %.2f", bar.Open, bar.High, bar.Low, bar.Close), "", 0, "C", false, 0, "")
	}

	rc := colour(styles.Color(pair.Result), defaultShade, defaultShade, defaultShade)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(rc[0], rc[1], rc[2])
	pdf.SetXY(left, bottom+18)
	pdf.CellFormat(right-left, 8, "Result: "+string(pair.Result), "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("drawing chart: %w", err)
	}
	return pdf.Output(w)
}

// colour resolves a hex token, falling back to the given rgb
func colour(token string, r, g, b int) [3]int {
	if cr, cg, cb, ok := rgb(token); ok {
		return [3]int{cr, cg, cb}
	}
	return [3]int{r, g, b}
}
