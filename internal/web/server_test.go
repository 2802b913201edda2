package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadscan/internal/config"
	"spreadscan/internal/period"
	"spreadscan/internal/rules"
	"spreadscan/internal/scanner"
	"spreadscan/pkg/model"
)

// stubProvider serves the same monthly series for every known symbol
type stubProvider struct {
	bars map[string][]model.Bar
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Bars(_ context.Context, symbol string, _ model.Granularity, count int) ([]model.Bar, error) {
	bars, ok := p.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, model.ErrDataUnavailable)
	}
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

func (p *stubProvider) LastPrice(_ context.Context, symbol string) (float64, error) {
	bars, ok := p.bars[symbol]
	if !ok || len(bars) == 0 {
		return 0, model.ErrDataUnavailable
	}
	return bars[len(bars)-1].Close, nil
}

func monthly(oc ...float64) []model.Bar {
	bars := make([]model.Bar, 0, len(oc)/2)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i+1 < len(oc); i += 2 {
		o, c := oc[i], oc[i+1]
		bars = append(bars, model.Bar{
			Time: start.AddDate(0, i/2, 0), Open: o, Close: c,
			High: max(o, c) + 1, Low: min(o, c) - 1,
		})
	}
	return bars
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Tickers = []string{"^GSPC", "QQQ"}
	cfg.Names = map[string]string{"^GSPC": "S&P 500"}

	p := &stubProvider{bars: map[string][]model.Bar{
		// last pair: 10/8 then 7/12 -> R1-CALL
		"^GSPC": monthly(11, 10, 10, 8, 7, 12),
		// last pair: 7/12 then 14/9 -> R2-PUT
		"QQQ": monthly(5, 6, 7, 12, 14, 9),
		"IWM": monthly(1, 2),
	}}
	engine := scanner.NewEngine(p, rules.Default(), period.NewLabeler("", ""), 2)
	engine.SetPriceLookup(true)

	insts := []model.Instrument{{Symbol: "^GSPC", Name: "S&P 500"}, {Symbol: "QQQ", Name: "QQQ"}}
	return NewServer(cfg, engine, insts).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScan(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scan?granularity=monthly")
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.ScanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "^GSPC", report.Rows[0].Ticker)
	assert.Equal(t, model.Label(rules.LabelCall), report.Rows[0].Current)
	assert.Equal(t, "March 2026", report.Rows[0].CurrentPeriod)
	assert.Equal(t, model.Label(rules.LabelPut), report.Rows[1].Current)
	require.NotNil(t, report.Rows[0].Price)
	assert.Equal(t, 12.0, *report.Rows[0].Price)
	assert.NotEmpty(t, report.ID)
}

func TestScan_SymbolsOverrideAndSkips(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scan?symbols=iwm,nope")
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.ScanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Empty(t, report.Rows)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "IWM", report.Skipped[0].Ticker)
	assert.Equal(t, "NOPE", report.Skipped[1].Ticker)
}

func TestScan_BadGranularity(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scan?granularity=hourly")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestMatrix(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/matrix?window=2&buffer=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Periods []string            `json:"periods"`
		Records []map[string]string `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []string{"February 2026", "March 2026"}, out.Periods)
	require.Len(t, out.Records, 2)
	assert.Equal(t, string(rules.LabelCall), out.Records[0]["March 2026"])
}

func TestMatrix_InvalidWindow(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/matrix?window=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/matrix?window=x").Code)
}

func TestFull(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/full?symbols=^GSPC")
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.ScanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, model.ModeFull, report.Mode)
	require.Len(t, report.Rows, len(model.AllGranularities))
	for i, g := range model.AllGranularities {
		assert.Equal(t, g, report.Rows[i].Granularity)
	}
}

func TestChart(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/api/chart/qqq")
	require.Equal(t, http.StatusOK, rec.Code)
	var pair model.CandlePair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.Equal(t, "QQQ", pair.Ticker)
	assert.Equal(t, [2]string{"February 2026", "March 2026"}, pair.Labels)
	assert.Equal(t, model.Label(rules.LabelPut), pair.Result)

	rec = get(t, h, "/api/chart/qqq?format=pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = get(t, h, "/api/chart/qqq?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chart: February 2026 vs March 2026")
}

func TestChart_NotFound(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/chart/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/chart/iwm").Code)
}

func TestIndex(t *testing.T) {
	h := newTestServer(t)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<h1>Master Credit Spread Scanner</h1>")
	assert.Contains(t, body, "<strong>Monthly</strong>")
	assert.Contains(t, body, `href="/?granularity=weekly"`)
	assert.Contains(t, body, "R1-CALL")
	assert.Contains(t, body, "<table>")

	rec = get(t, h, "/?view=full")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>All</strong>")
	assert.Contains(t, rec.Body.String(), "Quarterly")
}

func TestIndex_EscapesRequestSymbols(t *testing.T) {
	h := newTestServer(t)

	symbols := url.QueryEscape("<img src=x onerror=alert(1)>,[x](javascript:alert(1)),^GSPC")
	rec := get(t, h, "/?symbols="+symbols)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "<IMG")
	assert.NotContains(t, strings.ToLower(body), `href="javascript:`)
	assert.Contains(t, body, "&lt;IMG SRC=X ONERROR=ALERT(1)&gt;")
	assert.Contains(t, body, "R1-CALL")
}

func TestShutdownBeforeStart(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	engine := scanner.NewEngine(&stubProvider{}, rules.Default(), period.NewLabeler("", ""), 1)
	srv := NewServer(cfg, engine, nil)

	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server kept running after shutdown")
	}
}

func TestStartThenShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	engine := scanner.NewEngine(&stubProvider{}, rules.Default(), period.NewLabeler("", ""), 1)
	srv := NewServer(cfg, engine, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestUniverses(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/universes")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Universes []UniverseInfo `json:"universes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Universes)
	assert.Equal(t, "indices", out.Universes[0].ID)
	assert.Equal(t, len(out.Universes[0].Symbols), out.Universes[0].Count)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/scan", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
