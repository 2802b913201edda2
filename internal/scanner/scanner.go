package scanner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"spreadscan/internal/period"
	"spreadscan/internal/provider"
	"spreadscan/internal/rules"
	"spreadscan/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// FetchResult is the outcome of fetching one ticker: Bars on success, Err otherwise
type FetchResult struct {
	Instrument model.Instrument
	Bars       []model.Bar
	Err        error
}

// OK reports whether the fetch produced bars
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Engine evaluates rules across a ticker list
type Engine struct {
	provider     provider.Provider
	rules        *rules.RuleSet
	labeler      *period.Labeler
	workers      int
	withPrice    bool
	progressFunc ProgressCallback
}

// NewEngine creates a scan engine. workers <= 1 scans tickers one at a time.
func NewEngine(p provider.Provider, rs *rules.RuleSet, lb *period.Labeler, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		provider: p,
		rules:    rs,
		labeler:  lb,
		workers:  workers,
	}
}

// SetProgressCallback sets the progress callback function
func (e *Engine) SetProgressCallback(fn ProgressCallback) {
	e.progressFunc = fn
}

// SetPriceLookup enables the last-price lookup on pairwise rows
func (e *Engine) SetPriceLookup(enabled bool) {
	e.withPrice = enabled
}

// Labeler returns the engine's period labeler
func (e *Engine) Labeler() *period.Labeler {
	return e.labeler
}

// Fetch retrieves bars for every instrument. Results keep the input order.
func (e *Engine) Fetch(ctx context.Context, instruments []model.Instrument, g model.Granularity, count int) []FetchResult {
	results := make([]FetchResult, len(instruments))
	errs := e.run(ctx, len(instruments), func(ctx context.Context, i int) error {
		inst := instruments[i]
		bars, err := e.provider.Bars(ctx, inst.Symbol, g, count)
		if err == nil && len(bars) == 0 {
			err = fmt.Errorf("%s: no rows: %w", inst.Symbol, model.ErrDataUnavailable)
		}
		results[i] = FetchResult{Instrument: inst, Bars: bars, Err: err}
		return err
	})
	for i, err := range errs {
		if err != nil && results[i].Err == nil {
			results[i] = FetchResult{Instrument: instruments[i], Err: err}
		}
	}
	return results
}

// Pairwise evaluates the latest two period boundaries for each ticker
func (e *Engine) Pairwise(ctx context.Context, instruments []model.Instrument, g model.Granularity) *model.ScanReport {
	report := e.newReport(model.ModePairwise, g, len(instruments))
	start := time.Now()

	src := provider.NewCachingProvider(e.provider)
	rows := make([]*model.ScanRow, len(instruments))
	errs := e.run(ctx, len(instruments), func(ctx context.Context, i int) error {
		var err error
		rows[i], err = e.pairwise(ctx, src, instruments[i], g)
		return err
	})

	for i, inst := range instruments {
		if errs[i] != nil {
			report.Skipped = append(report.Skipped, e.skip(report.ID, inst.Symbol, g, errs[i]))
			continue
		}
		report.Rows = append(report.Rows, *rows[i])
	}

	e.finish(report, start)
	return report
}

// Full runs a pairwise scan for every ticker at every granularity.
// Rows are ordered by ticker, then by granularity.
func (e *Engine) Full(ctx context.Context, instruments []model.Instrument) *model.ScanReport {
	grans := model.AllGranularities
	total := len(instruments) * len(grans)
	report := e.newReport(model.ModeFull, "", total)
	start := time.Now()

	src := provider.NewCachingProvider(e.provider)
	rows := make([]*model.ScanRow, total)
	errs := e.run(ctx, total, func(ctx context.Context, k int) error {
		var err error
		rows[k], err = e.pairwise(ctx, src, instruments[k/len(grans)], grans[k%len(grans)])
		return err
	})

	for k := 0; k < total; k++ {
		if errs[k] != nil {
			report.Skipped = append(report.Skipped,
				e.skip(report.ID, instruments[k/len(grans)].Symbol, grans[k%len(grans)], errs[k]))
			continue
		}
		report.Rows = append(report.Rows, *rows[k])
	}

	e.finish(report, start)
	return report
}

// Matrix fetches historyBuffer bars per ticker and evaluates the trailing
// window, one matrix cell per evaluated bar.
func (e *Engine) Matrix(ctx context.Context, instruments []model.Instrument, g model.Granularity, historyBuffer, window int) (*model.ScanReport, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if historyBuffer > 0 && window > historyBuffer {
		return nil, fmt.Errorf("window %d exceeds history buffer %d", window, historyBuffer)
	}

	report := e.newReport(model.ModeMatrix, g, len(instruments))
	start := time.Now()

	fetched := e.Fetch(ctx, instruments, g, historyBuffer)

	matrix := model.NewScanMatrix()
	for _, res := range fetched {
		if !res.OK() {
			report.Skipped = append(report.Skipped, e.skip(report.ID, res.Instrument.Symbol, g, res.Err))
			continue
		}
		var evals []Evaluation
		err := guard(func() error {
			var err error
			evals, err = EvaluateWindow(e.rules, res.Bars, window)
			return err
		})
		if err != nil {
			report.Skipped = append(report.Skipped, e.skip(report.ID, res.Instrument.Symbol, g, err))
			continue
		}

		matrix.AddRow(res.Instrument.Symbol, res.Instrument.DisplayName())
		for _, ev := range evals {
			matrix.Set(res.Instrument.Symbol, e.labeler.Label(ev.Bar.Time, g), ev.Bar.Time, ev.Result)
		}
	}
	report.Matrix = matrix

	e.finish(report, start)
	return report, nil
}

// Chart returns the latest two bars of one ticker with their labels
func (e *Engine) Chart(ctx context.Context, inst model.Instrument, g model.Granularity) (*model.CandlePair, error) {
	bars, err := e.provider.Bars(ctx, inst.Symbol, g, 0)
	if err != nil {
		return nil, err
	}
	n := len(bars)
	if n < 2 {
		return nil, fmt.Errorf("%s: have %d bars, need 2: %w", inst.Symbol, n, model.ErrInsufficientHistory)
	}

	prev, curr := bars[n-2], bars[n-1]
	return &model.CandlePair{
		Ticker:      inst.Symbol,
		Name:        inst.DisplayName(),
		Granularity: g,
		Labels:      [2]string{e.labeler.Label(prev.Time, g), e.labeler.Label(curr.Time, g)},
		Bars:        [2]model.Bar{prev, curr},
		Result:      e.rules.Evaluate(prev, curr),
	}, nil
}

func (e *Engine) pairwise(ctx context.Context, src provider.Provider, inst model.Instrument, g model.Granularity) (*model.ScanRow, error) {
	bars, err := src.Bars(ctx, inst.Symbol, g, 0)
	if err != nil {
		return nil, err
	}

	prev, curr, err := EvaluatePair(e.rules, bars)
	if err != nil {
		return nil, err
	}

	n := len(bars)
	row := &model.ScanRow{
		Ticker:         inst.Symbol,
		Name:           inst.DisplayName(),
		Granularity:    g,
		PreviousPeriod: e.labeler.Label(bars[n-2].Time, g),
		CurrentPeriod:  e.labeler.Label(bars[n-1].Time, g),
		Previous:       prev,
		Current:        curr,
	}

	if e.withPrice {
		if price, err := src.LastPrice(ctx, inst.Symbol); err == nil {
			row.Price = &price
		} else {
			log.Debug().Str("ticker", inst.Symbol).Err(err).Msg("last price unavailable")
		}
	}

	return row, nil
}

// run calls fn for indices [0, n) on up to e.workers goroutines and returns
// each unit's error. A panicking unit fails alone; the others still run.
func (e *Engine) run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var scanned int64
	var wg sync.WaitGroup
	for w := 0; w < min(e.workers, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = guard(func() error { return fn(ctx, i) })

				count := atomic.AddInt64(&scanned, 1)
				if e.progressFunc != nil {
					e.progressFunc(int(count), n)
				}
			}
		}()
	}
	wg.Wait()
	return errs
}

// guard runs fn, turning a panic into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error().Str("panic", fmt.Sprint(r)).Msg("scan unit panicked")
		}
	}()
	return fn()
}

func (e *Engine) newReport(mode model.ScanMode, g model.Granularity, total int) *model.ScanReport {
	id := uuid.NewString()
	log.Info().
		Str("scan_id", id).
		Str("mode", string(mode)).
		Str("granularity", string(g)).
		Int("units", total).
		Int("workers", e.workers).
		Msg("scan started")
	return &model.ScanReport{ID: id, Mode: mode, Granularity: g, TotalScanned: total}
}

func (e *Engine) skip(scanID, ticker string, g model.Granularity, err error) model.Skip {
	log.Warn().
		Str("scan_id", scanID).
		Str("ticker", ticker).
		Str("granularity", string(g)).
		Err(err).
		Msg("skipped")
	return model.NewSkip(ticker, g, err)
}

func (e *Engine) finish(report *model.ScanReport, start time.Time) {
	report.ScanTime = time.Since(start)

	results := len(report.Rows)
	if report.Matrix != nil {
		results = report.Matrix.Len()
	}
	log.Info().
		Str("scan_id", report.ID).
		Int("results", results).
		Int("skipped", len(report.Skipped)).
		Dur("duration", report.ScanTime).
		Msg("scan complete")
}
