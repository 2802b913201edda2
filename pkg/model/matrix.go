package model

import (
	"sort"
	"time"
)

// MatrixCell is one evaluated period for a ticker
type MatrixCell struct {
	Period string    `json:"period"`
	Time   time.Time `json:"time"`
	Result Label     `json:"result"`
}

// MatrixRow holds a ticker's cells in chronological order
type MatrixRow struct {
	Ticker string       `json:"ticker"`
	Name   string       `json:"name"`
	Cells  []MatrixCell `json:"cells"`
}

// ScanMatrix maps ticker -> period label -> result.
// Ticker order is insertion order; period order within a row is insertion order.
type ScanMatrix struct {
	Rows  []MatrixRow `json:"rows"`
	index map[string]int
}

// NewScanMatrix creates an empty matrix
func NewScanMatrix() *ScanMatrix {
	return &ScanMatrix{index: make(map[string]int)}
}

func (m *ScanMatrix) rowIndex(ticker string) (int, bool) {
	if m.index == nil {
		m.index = make(map[string]int, len(m.Rows))
		for i, r := range m.Rows {
			m.index[r.Ticker] = i
		}
	}
	i, ok := m.index[ticker]
	return i, ok
}

// AddRow appends an empty row for ticker if it is not present yet
func (m *ScanMatrix) AddRow(ticker, name string) {
	if _, ok := m.rowIndex(ticker); ok {
		return
	}
	m.index[ticker] = len(m.Rows)
	m.Rows = append(m.Rows, MatrixRow{Ticker: ticker, Name: name})
}

// Set records a result. Setting an existing period replaces its result in place.
func (m *ScanMatrix) Set(ticker, period string, t time.Time, result Label) {
	m.AddRow(ticker, ticker)
	i, _ := m.rowIndex(ticker)
	row := &m.Rows[i]
	for c := range row.Cells {
		if row.Cells[c].Period == period {
			row.Cells[c].Time = t
			row.Cells[c].Result = result
			return
		}
	}
	row.Cells = append(row.Cells, MatrixCell{Period: period, Time: t, Result: result})
}

// Lookup returns the result recorded for ticker at period
func (m *ScanMatrix) Lookup(ticker, period string) (Label, bool) {
	i, ok := m.rowIndex(ticker)
	if !ok {
		return "", false
	}
	for _, c := range m.Rows[i].Cells {
		if c.Period == period {
			return c.Result, true
		}
	}
	return "", false
}

// Tickers returns tickers in row order
func (m *ScanMatrix) Tickers() []string {
	out := make([]string, len(m.Rows))
	for i, r := range m.Rows {
		out[i] = r.Ticker
	}
	return out
}

// Len returns the number of rows
func (m *ScanMatrix) Len() int {
	return len(m.Rows)
}

// Periods returns the union of period labels across rows, oldest first
func (m *ScanMatrix) Periods() []string {
	first := make(map[string]time.Time)
	var labels []string
	for _, r := range m.Rows {
		for _, c := range r.Cells {
			if t, ok := first[c.Period]; ok {
				if c.Time.Before(t) {
					first[c.Period] = c.Time
				}
				continue
			}
			first[c.Period] = c.Time
			labels = append(labels, c.Period)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return first[labels[i]].Before(first[labels[j]])
	})
	return labels
}

// Records returns the matrix as a list of rows, each keyed "Ticker" plus one key per period
func (m *ScanMatrix) Records() []map[string]string {
	out := make([]map[string]string, 0, len(m.Rows))
	for _, r := range m.Rows {
		rec := make(map[string]string, len(r.Cells)+1)
		rec["Ticker"] = r.Ticker
		for _, c := range r.Cells {
			rec[c.Period] = string(c.Result)
		}
		out = append(out, rec)
	}
	return out
}
