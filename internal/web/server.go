package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"spreadscan/internal/config"
	"spreadscan/internal/present"
	"spreadscan/internal/scanner"
	"spreadscan/internal/symbols"
	"spreadscan/pkg/model"
)

// Server represents the web server
type Server struct {
	config      *config.Config
	engine      *scanner.Engine
	loader      *symbols.Loader
	instruments []model.Instrument
	styles      present.Styles
	srv         *http.Server
}

// NewServer creates a new web server on cfg.Server.Port, scanning instruments by default
func NewServer(cfg *config.Config, engine *scanner.Engine, instruments []model.Instrument) *Server {
	s := &Server{
		config:      cfg,
		engine:      engine,
		loader:      symbols.NewLoader(cfg.Names),
		instruments: instruments,
		styles:      present.NewStyles(cfg.UI.RedStyle, cfg.UI.GreenStyle, cfg.UI.RedIcon, cfg.UI.GreenIcon),
	}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Scanner.Timeout.Duration + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler builds the gin router
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors())

	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/scan", s.handleScan)
	api.GET("/matrix", s.handleMatrix)
	api.GET("/full", s.handleFull)
	api.GET("/chart/:ticker", s.handleChart)
	api.GET("/universes", s.handleUniverses)

	return r
}

// Start serves until Shutdown. It returns nil right away if Shutdown already ran.
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Server.Port).Msgf("serving scanner at http://localhost:%d", s.config.Server.Port)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// cors adds CORS headers for local development
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
