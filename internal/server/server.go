// Package server exposes option x-ray operations over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/contactkeval/option-xray/internal/data"
	"github.com/contactkeval/option-xray/internal/logger"
	"github.com/contactkeval/option-xray/internal/metrics"
	"github.com/contactkeval/option-xray/internal/pricing"
	"github.com/contactkeval/option-xray/internal/scenario"
)

// Config carries everything the handlers need. Zero fields fall back to
// defaults in New.
type Config struct {
	Addr           string
	Mode           string
	AllowedOrigins []string
	Model          string

	Solver  *pricing.Solver
	Engine  scenario.Engine
	Quotes  data.QuoteProvider
	Metrics *metrics.Metrics

	// Now is used to turn quote expiries into maturities.
	Now func() time.Time
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	router  *gin.Engine
	handler http.Handler
}

// New builds the router and wraps it with CORS.
func New(cfg Config) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Solver == nil {
		cfg.Solver = pricing.DefaultSolver()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Model == "" {
		cfg.Model = "bs"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{cfg: cfg}

	router := gin.New()
	router.Use(RequestLogger(cfg.Metrics))
	router.Use(ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/xray", s.handleXRay)
		v1.POST("/price", s.handlePrice)
		v1.POST("/greeks", s.handleGreeks)
		v1.POST("/implied-vol", s.handleImpliedVol)
		v1.POST("/scenarios", s.handleScenarios)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "NOT_FOUND", Message: "route not found"}})
	})

	s.router = router
	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)
	return s
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting REST server on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down REST server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
