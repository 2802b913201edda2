package model

import (
	"fmt"
	"strings"
	"time"
)

// Bar represents a single OHLCV observation for one period
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Granularity is the sampling period of bars
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
)

// AllGranularities lists granularities in the order a full scan visits them
var AllGranularities = []Granularity{Daily, Weekly, Monthly, Quarterly}

// Interval returns the chart interval code (1d, 1wk, 1mo, 3mo)
func (g Granularity) Interval() string {
	switch g {
	case Daily:
		return "1d"
	case Weekly:
		return "1wk"
	case Monthly:
		return "1mo"
	case Quarterly:
		return "3mo"
	default:
		return string(g)
	}
}

// Name returns the human-readable granularity name
func (g Granularity) Name() string {
	switch g {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	case Quarterly:
		return "Quarterly"
	default:
		return string(g)
	}
}

// ParseGranularity accepts a granularity name ("monthly") or interval code ("1mo")
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "1d", "d":
		return Daily, nil
	case "weekly", "1wk", "w":
		return Weekly, nil
	case "monthly", "1mo", "m":
		return Monthly, nil
	case "quarterly", "3mo", "q":
		return Quarterly, nil
	}
	return "", fmt.Errorf("unknown granularity %q (want daily, weekly, monthly, quarterly)", s)
}

// Label is the outcome of evaluating a pair of bars
type Label string

// NoSetup is returned when no rule fires
const NoSetup Label = "RED"

// IsSetup reports whether the label marks a found setup
func (l Label) IsSetup() bool {
	return l != "" && l != NoSetup
}

// Instrument is a ticker symbol with its display name
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// DisplayName returns the name, falling back to the symbol
func (i Instrument) DisplayName() string {
	if i.Name == "" {
		return i.Symbol
	}
	return i.Name
}

// ScanRow is one ticker's previous/current evaluation at the latest period boundary
type ScanRow struct {
	Ticker         string      `json:"ticker"`
	Name           string      `json:"name"`
	Granularity    Granularity `json:"granularity"`
	PreviousPeriod string      `json:"previous_period"`
	CurrentPeriod  string      `json:"current_period"`
	Previous       Label       `json:"previous"`
	Current        Label       `json:"current"`
	Price          *float64    `json:"price,omitempty"`
}

// Skip records a ticker (or ticker+granularity) dropped from the output
type Skip struct {
	Ticker      string      `json:"ticker"`
	Granularity Granularity `json:"granularity"`
	Err         error       `json:"-"`
	Reason      string      `json:"reason"`
}

// NewSkip builds a Skip from an error
func NewSkip(ticker string, g Granularity, err error) Skip {
	return Skip{Ticker: ticker, Granularity: g, Err: err, Reason: err.Error()}
}

// ScanMode identifies which engine operation produced a report
type ScanMode string

const (
	ModePairwise ScanMode = "pairwise"
	ModeMatrix   ScanMode = "matrix"
	ModeFull     ScanMode = "full"
)

// ScanReport is the result of one scan invocation
type ScanReport struct {
	ID           string        `json:"id"`
	Mode         ScanMode      `json:"mode"`
	Granularity  Granularity   `json:"granularity,omitempty"`
	Rows         []ScanRow     `json:"rows,omitempty"`
	Matrix       *ScanMatrix   `json:"matrix,omitempty"`
	Skipped      []Skip        `json:"skipped,omitempty"`
	TotalScanned int           `json:"total_scanned"`
	ScanTime     time.Duration `json:"scan_time"`
}

// CandlePair is the latest two bars of one ticker, for charting
type CandlePair struct {
	Ticker      string      `json:"ticker"`
	Name        string      `json:"name"`
	Granularity Granularity `json:"granularity"`
	Labels      [2]string   `json:"labels"`
	Bars        [2]Bar      `json:"bars"`
	Result      Label       `json:"result"`
}

// Title is the chart heading, e.g. "S&P 500 Chart: September 2026 vs October 2026"
func (c CandlePair) Title() string {
	return fmt.Sprintf("%s Chart: %s vs %s", c.Name, c.Labels[0], c.Labels[1])
}
