package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"spreadscan/internal/config"
	"spreadscan/internal/period"
	"spreadscan/internal/present"
	"spreadscan/internal/provider"
	"spreadscan/internal/rules"
	"spreadscan/internal/scanner"
	"spreadscan/internal/schedule"
	"spreadscan/internal/symbols"
	"spreadscan/internal/web"
	"spreadscan/pkg/model"
)

var (
	cfgFile     string
	format      string
	symbolList  string
	universe    string
	workers     int
	verbose     bool
	outFile     string
	granularity string
	window      int
	buffer      int
	pdfFile     string
	cronSpec    string
	watchMode   string
	port        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spreadscan",
		Short: "Candlestick reversal scanner for credit spread setups",
		Long: `spreadscan compares consecutive period candles of a ticker list and labels
each period R1-CALL (bullish reversal), R2-PUT (bearish reversal) or RED (no setup).

Examples:
  spreadscan scan --granularity weekly
  spreadscan matrix --window 3 --buffer 12 --format markdown
  spreadscan full --symbols SPY,QQQ --format html --out report.html
  spreadscan chart ^GSPC --pdf gspc.pdf
  spreadscan serve --port 8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "config.yaml", "config file path (.yaml or .toml)")
	pf.StringVar(&format, "format", "table", "output format: "+strings.Join(present.Formats, ", "))
	pf.StringVar(&symbolList, "symbols", "", "comma-separated tickers (overrides config)")
	pf.StringVar(&universe, "universe", "", "preset ticker list instead of config: indices, sectors, megacap")
	pf.IntVar(&workers, "workers", 0, "number of parallel fetches (default from config)")
	pf.BoolVar(&verbose, "verbose", false, "debug logging")
	pf.StringVar(&outFile, "out", "", "write output to file instead of stdout")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Evaluate the latest two period boundaries per ticker",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&granularity, "granularity", "", "daily, weekly, monthly, quarterly (default from config)")

	matrixCmd := &cobra.Command{
		Use:   "matrix",
		Short: "Evaluate a trailing window of periods per ticker",
		Args:  cobra.NoArgs,
		RunE:  runMatrix,
	}
	matrixCmd.Flags().StringVar(&granularity, "granularity", "", "daily, weekly, monthly, quarterly (default from config)")
	matrixCmd.Flags().IntVar(&window, "window", 0, "periods to evaluate (default months_to_test)")
	matrixCmd.Flags().IntVar(&buffer, "buffer", 0, "bars to fetch (default history_buffer)")

	fullCmd := &cobra.Command{
		Use:   "full",
		Short: "Run the pairwise scan at every granularity",
		Args:  cobra.NoArgs,
		RunE:  runFull,
	}

	chartCmd := &cobra.Command{
		Use:   "chart <ticker>",
		Short: "Draw the latest two candles of one ticker",
		Args:  cobra.ExactArgs(1),
		RunE:  runChart,
	}
	chartCmd.Flags().StringVar(&granularity, "granularity", "", "daily, weekly, monthly, quarterly (default from config)")
	chartCmd.Flags().StringVar(&pdfFile, "pdf", "", "write the chart as PDF to this path")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a scan on a cron schedule",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&cronSpec, "cron", "", "cron expression (default from config)")
	watchCmd.Flags().StringVar(&watchMode, "mode", "scan", "scan, matrix or full")
	watchCmd.Flags().StringVar(&granularity, "granularity", "", "daily, weekly, monthly, quarterly (default from config)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scans over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")

	rootCmd.AddCommand(scanCmd, matrixCmd, fullCmd, chartCmd, watchCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a subcommand needs, built once from config and flags
type app struct {
	cfg         *config.Config
	engine      *scanner.Engine
	instruments []model.Instrument
	styles      present.Styles
}

func setup(cmd *cobra.Command, tickers ...string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	// Override config with CLI flags
	loader := symbols.NewLoader(cfg.Names)
	switch {
	case len(tickers) > 0:
		cfg.Tickers = tickers
	case symbolList != "":
		cfg.Tickers = strings.Split(symbolList, ",")
	case universe != "":
		insts, err := loader.LoadUniverse(universe)
		if err != nil {
			return nil, err
		}
		cfg.Tickers = make([]string, len(insts))
		for i, inst := range insts {
			cfg.Tickers[i] = inst.Symbol
		}
	}
	if workers > 0 {
		cfg.Scanner.Workers = workers
	}
	if g := cmd.Flags().Lookup("granularity"); g != nil && g.Changed {
		cfg.Granularity = granularity
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	instruments := loader.Load(cfg.Tickers)
	if len(instruments) == 0 {
		return nil, fmt.Errorf("tickers: %w", model.ErrConfigurationMissing)
	}

	rs, err := rules.Build(cfg.Rules)
	if err != nil {
		return nil, err
	}
	weekly, err := period.ParseWeeklyStyle(cfg.Labels.WeeklyStyle)
	if err != nil {
		return nil, err
	}

	p := provider.NewYahooProvider(provider.YahooConfig{
		BaseURL:   cfg.Yahoo.BaseURL,
		Proxy:     cfg.Yahoo.Proxy,
		RateLimit: cfg.Yahoo.RateLimit,
		Timeout:   cfg.Yahoo.Timeout.Duration,
	})

	engine := scanner.NewEngine(p, rs, period.NewLabeler(cfg.Labels.MonthlyFormat, weekly), cfg.Scanner.Workers)
	engine.SetPriceLookup(cfg.Scanner.WithPrice)

	log.Debug().
		Str("config", cfgFile).
		Int("tickers", len(instruments)).
		Strs("rules", rs.Names()).
		Str("granularity", cfg.Granularity).
		Int("workers", cfg.Scanner.Workers).
		Msg("configured")

	return &app{
		cfg:         cfg,
		engine:      engine,
		instruments: instruments,
		styles:      present.NewStyles(cfg.UI.RedStyle, cfg.UI.GreenStyle, cfg.UI.RedIcon, cfg.UI.GreenIcon),
	}, nil
}

func setupLogging(level string) {
	if verbose {
		level = "debug"
	}
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         os.Stderr,
			ColorOutput:    true,
			EndWithMessage: true,
		},
	}
}

// signalContext is cancelled on SIGINT/SIGTERM, and after timeout when positive
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// withProgress shows a progress bar on stderr for interactive table output
func (a *app) withProgress(description string) func() {
	if format != "table" || outFile != "" || verbose {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	a.engine.SetProgressCallback(func(scanned, total int) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		bar.Set(scanned)
	})

	return func() {
		a.engine.SetProgressCallback(nil)
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

// output renders report to --out or stdout
func (a *app) output(report *model.ScanReport) error {
	p, err := present.New(format, a.styles)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := present.Render(p, &buf, report); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return writeOut(buf.Bytes())
}

func writeOut(data []byte) error {
	if outFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outFile, err)
	}
	log.Info().Str("path", outFile).Int("bytes", len(data)).Msg("report written")
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.cfg.Scanner.Timeout.Duration)
	defer cancel()

	g := a.cfg.ScanGranularity()
	done := a.withProgress("Scanning " + g.Name())
	report := a.engine.Pairwise(ctx, a.instruments, g)
	done()

	return a.output(report)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	if window > 0 {
		a.cfg.MonthsToTest = window
	}
	if buffer > 0 {
		a.cfg.HistoryBuffer = buffer
	}

	ctx, cancel := signalContext(a.cfg.Scanner.Timeout.Duration)
	defer cancel()

	g := a.cfg.ScanGranularity()
	done := a.withProgress("Fetching " + g.Name())
	report, err := a.engine.Matrix(ctx, a.instruments, g, a.cfg.HistoryBuffer, a.cfg.MonthsToTest)
	done()
	if err != nil {
		return err
	}

	return a.output(report)
}

func runFull(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.cfg.Scanner.Timeout.Duration)
	defer cancel()

	done := a.withProgress("Scanning all timeframes")
	report := a.engine.Full(ctx, a.instruments)
	done()

	return a.output(report)
}

func runChart(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.cfg.Scanner.Timeout.Duration)
	defer cancel()

	pair, err := a.engine.Chart(ctx, a.instruments[0], a.cfg.ScanGranularity())
	if err != nil {
		return fmt.Errorf("charting %s: %w", a.instruments[0].Symbol, err)
	}

	if pdfFile != "" {
		f, err := os.Create(pdfFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := present.RenderChartPDF(f, pair, a.styles); err != nil {
			return err
		}
		log.Info().Str("path", pdfFile).Str("ticker", pair.Ticker).Msg("chart written")
		return nil
	}

	var buf bytes.Buffer
	if format == "json" {
		err = present.EncodeChart(&buf, pair)
	} else {
		err = present.RenderChartText(&buf, pair, a.styles)
	}
	if err != nil {
		return err
	}
	return writeOut(buf.Bytes())
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	if cronSpec == "" {
		cronSpec = a.cfg.Watch.Cron
	}

	sched, err := schedule.New(cronSpec, a.cfg.Scanner.Timeout.Duration)
	if err != nil {
		return err
	}
	sched.SkipClosedMarket(a.cfg.Watch.TradingDaysOnly)

	ctx, cancel := signalContext(0)
	defer cancel()

	g := a.cfg.ScanGranularity()
	job := func(ctx context.Context) error {
		var (
			report *model.ScanReport
			err    error
		)
		switch watchMode {
		case "matrix":
			report, err = a.engine.Matrix(ctx, a.instruments, g, a.cfg.HistoryBuffer, a.cfg.MonthsToTest)
			if err != nil {
				return err
			}
		case "full":
			report = a.engine.Full(ctx, a.instruments)
		default:
			report = a.engine.Pairwise(ctx, a.instruments, g)
		}
		return a.output(report)
	}

	return sched.Run(ctx, job, true)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	if port > 0 {
		a.cfg.Server.Port = port
	}

	srv := web.NewServer(a.cfg, a.engine, a.instruments)

	ctx, cancel := signalContext(0)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
