package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"spreadscan/internal/present"
	"spreadscan/internal/symbols"
	"spreadscan/pkg/model"
)

const pageTitle = "Master Credit Spread Scanner"

// UniverseInfo describes a preset ticker list
type UniverseInfo struct {
	ID      string   `json:"id"`
	Count   int      `json:"count"`
	Symbols []string `json:"symbols"`
}

// errorResponse writes {"error": msg}
func errorResponse(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// scanContext bounds a request by the configured scan timeout
func (s *Server) scanContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if d := s.config.Scanner.Timeout.Duration; d > 0 {
		return context.WithTimeout(c.Request.Context(), d)
	}
	return context.WithCancel(c.Request.Context())
}

// requestInstruments resolves ?symbols= or ?universe=, falling back to the configured list
func (s *Server) requestInstruments(c *gin.Context) ([]model.Instrument, error) {
	if list := c.Query("symbols"); list != "" {
		insts := s.loader.LoadList(list)
		if len(insts) == 0 {
			return nil, fmt.Errorf("no valid symbols in %q", list)
		}
		return insts, nil
	}
	if u := c.Query("universe"); u != "" {
		return s.loader.LoadUniverse(u)
	}
	if len(s.instruments) == 0 {
		return nil, fmt.Errorf("tickers: %w", model.ErrConfigurationMissing)
	}
	return s.instruments, nil
}

func (s *Server) requestGranularity(c *gin.Context) (model.Granularity, error) {
	if v := c.Query("granularity"); v != "" {
		return model.ParseGranularity(v)
	}
	return s.config.ScanGranularity(), nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

// handleScan runs a pairwise scan: GET /api/scan?granularity=weekly
func (s *Server) handleScan(c *gin.Context) {
	g, err := s.requestGranularity(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	insts, err := s.requestInstruments(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.scanContext(c)
	defer cancel()

	c.JSON(http.StatusOK, s.engine.Pairwise(ctx, insts, g))
}

// handleMatrix runs a windowed scan: GET /api/matrix?granularity=monthly&window=3&buffer=12
func (s *Server) handleMatrix(c *gin.Context) {
	g, err := s.requestGranularity(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	insts, err := s.requestInstruments(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	window, err := queryInt(c, "window", s.config.MonthsToTest)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	buffer, err := queryInt(c, "buffer", s.config.HistoryBuffer)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.scanContext(c)
	defer cancel()

	report, err := s.engine.Matrix(ctx, insts, g, buffer, window)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	var buf bytes.Buffer
	if err := (&present.JSON{}).RenderMatrix(&buf, report); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// handleFull scans every granularity: GET /api/full
func (s *Server) handleFull(c *gin.Context) {
	insts, err := s.requestInstruments(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.scanContext(c)
	defer cancel()

	c.JSON(http.StatusOK, s.engine.Full(ctx, insts))
}

// handleChart returns the latest two candles of a ticker.
// ?format=pdf and ?format=text render the chart; the default is JSON.
func (s *Server) handleChart(c *gin.Context) {
	insts := s.loader.Load([]string{c.Param("ticker")})
	if len(insts) == 0 {
		errorResponse(c, http.StatusBadRequest, errors.New("ticker required"))
		return
	}
	g, err := s.requestGranularity(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.scanContext(c)
	defer cancel()

	pair, err := s.engine.Chart(ctx, insts[0], g)
	if err != nil {
		errorResponse(c, chartStatus(err), err)
		return
	}

	var buf bytes.Buffer
	switch strings.ToLower(c.Query("format")) {
	case "pdf":
		if err := present.RenderChartPDF(&buf, pair, s.styles); err != nil {
			errorResponse(c, http.StatusInternalServerError, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", symbols.FileName(pair.Ticker)+".pdf"))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	case "text", "txt":
		if err := present.RenderChartText(&buf, pair, s.styles); err != nil {
			errorResponse(c, http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	default:
		c.JSON(http.StatusOK, pair)
	}
}

func chartStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrInsufficientHistory), errors.Is(err, model.ErrDataUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleIndex renders the pairwise scan as an HTML page with a timeframe selector.
// ?view=full shows every timeframe at once.
func (s *Server) handleIndex(c *gin.Context) {
	g, err := s.requestGranularity(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}
	insts, err := s.requestInstruments(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.scanContext(c)
	defer cancel()

	full := c.Query("view") == "full"
	var report *model.ScanReport
	if full {
		report = s.engine.Full(ctx, insts)
	} else {
		report = s.engine.Pairwise(ctx, insts, g)
	}

	page := &present.HTML{Styles: s.styles, Title: pageTitle, Preamble: timeframeLinks(g, full)}
	var buf bytes.Buffer
	if err := present.Render(page, &buf, report); err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// timeframeLinks is the markdown selector line, with the current choice in bold
func timeframeLinks(current model.Granularity, full bool) string {
	parts := make([]string, 0, len(model.AllGranularities)+1)
	for _, g := range model.AllGranularities {
		if g == current && !full {
			parts = append(parts, "**"+g.Name()+"**")
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s](/?granularity=%s)", g.Name(), g))
	}
	if full {
		parts = append(parts, "**All**")
	} else {
		parts = append(parts, "[All](/?view=full)")
	}
	return "Timeframe: " + strings.Join(parts, " · ")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUniverses lists the preset ticker lists
func (s *Server) handleUniverses(c *gin.Context) {
	available := symbols.Universes()
	universes := make([]UniverseInfo, len(available))
	for i, u := range available {
		syms := symbols.GetUniverse(u)
		universes[i] = UniverseInfo{ID: string(u), Count: len(syms), Symbols: syms}
	}
	c.JSON(http.StatusOK, gin.H{"universes": universes})
}
