package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/phuslu/log"
	"github.com/tidwall/gjson"

	"spreadscan/internal/ratelimit"
	"spreadscan/pkg/model"
)

// DefaultYahooBaseURL is the public chart endpoint
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooConfig configures the Yahoo Finance provider
type YahooConfig struct {
	BaseURL   string
	Proxy     string
	RateLimit int // requests per minute, 0 disables pacing
	Timeout   time.Duration
}

// YahooProvider implements Provider over the Yahoo Finance chart API (unofficial)
type YahooProvider struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(cfg YahooConfig) *YahooProvider {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warn().Err(err).Str("proxy", cfg.Proxy).Msg("ignoring invalid proxy url")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &YahooProvider{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter: ratelimit.NewLimiter("yahoo", cfg.RateLimit),
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// Bars fetches bars for symbol at granularity g
func (p *YahooProvider) Bars(ctx context.Context, symbol string, g model.Granularity, count int) ([]model.Bar, error) {
	body, err := p.fetchChart(ctx, symbol, g.Interval(), chartRange(g, count))
	if err != nil {
		return nil, err
	}

	bars, err := parseChart(body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}

	bars = collapse(bars, g)
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}

	log.Debug().
		Str("symbol", symbol).
		Str("interval", g.Interval()).
		Int("bars", len(bars)).
		Msg("fetched bars")

	return bars, nil
}

// LastPrice returns the regular market price, falling back to the last daily close
func (p *YahooProvider) LastPrice(ctx context.Context, symbol string) (float64, error) {
	body, err := p.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return 0, err
	}

	if price := gjson.GetBytes(body, "chart.result.0.meta.regularMarketPrice"); price.Exists() && price.Float() > 0 {
		return price.Float(), nil
	}

	bars, err := parseChart(body)
	if err != nil {
		return 0, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}
	return bars[len(bars)-1].Close, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, interval, rng string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}

	u := fmt.Sprintf("%s/%s?interval=%s&range=%s&includePrePost=false",
		p.baseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.Throttled()
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, StatusCode: resp.StatusCode, Err: errors.New("rate limited")}
	}
	if resp.StatusCode != http.StatusOK {
		desc := gjson.GetBytes(body, "chart.error.description").String()
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return nil, &ProviderError{Provider: p.Name(), Symbol: symbol, StatusCode: resp.StatusCode, Err: errors.New(desc)}
	}

	p.limiter.Succeeded()
	return body, nil
}

// parseChart extracts bars from a chart response, dropping null rows
func parseChart(body []byte) ([]model.Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid json")
	}
	if e := gjson.GetBytes(body, "chart.error"); e.Exists() && e.Type != gjson.Null {
		return nil, fmt.Errorf("api error: %s", e.Get("description").String())
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, errors.New("no data available")
	}

	loc := exchangeLocation(result.Get("meta"))
	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	bars := make([]model.Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(opens) || i >= len(highs) || i >= len(lows) || i >= len(closes) {
			break
		}
		if opens[i].Type == gjson.Null || highs[i].Type == gjson.Null ||
			lows[i].Type == gjson.Null || closes[i].Type == gjson.Null {
			continue
		}

		var volume int64
		if i < len(volumes) {
			volume = volumes[i].Int()
		}

		bars = append(bars, model.Bar{
			Time:   naiveDate(ts.Int(), loc),
			Open:   opens[i].Float(),
			High:   highs[i].Float(),
			Low:    lows[i].Float(),
			Close:  closes[i].Float(),
			Volume: volume,
		})
	}

	if len(bars) == 0 {
		return nil, errors.New("no data available")
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// exchangeLocation resolves the exchange time zone so bar dates follow its
// daylight saving rules. gmtoffset is the offset at query time only and is
// used when the zone name is missing or unknown.
func exchangeLocation(meta gjson.Result) *time.Location {
	if name := meta.Get("exchangeTimezoneName").String(); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		log.Debug().Str("timezone", name).Msg("unknown exchange timezone, using gmtoffset")
	}
	return time.FixedZone("exchange", int(meta.Get("gmtoffset").Int()))
}

// naiveDate converts a unix timestamp to the exchange-local calendar date, stored as UTC
func naiveDate(unix int64, loc *time.Location) time.Time {
	t := time.Unix(unix, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// collapse merges adjacent bars that fall in the same period. Yahoo appends the
// in-progress period as an extra bar dated today (e.g. Oct 1 and Oct 17 monthly).
func collapse(bars []model.Bar, g model.Granularity) []model.Bar {
	if len(bars) < 2 {
		return bars
	}
	out := make([]model.Bar, 0, len(bars))
	out = append(out, bars[0])
	for _, b := range bars[1:] {
		last := &out[len(out)-1]
		if bucket(last.Time, g) != bucket(b.Time, g) {
			out = append(out, b)
			continue
		}
		last.High = max(last.High, b.High)
		last.Low = min(last.Low, b.Low)
		last.Close = b.Close
		last.Volume += b.Volume
	}
	return out
}

func bucket(t time.Time, g model.Granularity) string {
	switch g {
	case model.Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%d", y, w)
	case model.Monthly:
		return fmt.Sprintf("%d-%d", t.Year(), t.Month())
	case model.Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return t.Format("2006-01-02")
	}
}

var chartRanges = []struct {
	name  string
	years int
}{
	{"1y", 1}, {"2y", 2}, {"5y", 5}, {"10y", 10},
}

// chartRange picks the smallest range that covers count bars, never shorter
// than the granularity default (1y for daily/weekly, 5y for monthly/quarterly).
func chartRange(g model.Granularity, count int) string {
	minYears := 1
	perYear := 252
	switch g {
	case model.Weekly:
		perYear = 52
	case model.Monthly:
		minYears, perYear = 5, 12
	case model.Quarterly:
		minYears, perYear = 5, 4
	}

	need := minYears
	if count > 0 {
		if y := count/perYear + 1; y > need {
			need = y
		}
	}
	for _, r := range chartRanges {
		if r.years >= need {
			return r.name
		}
	}
	return "max"
}
