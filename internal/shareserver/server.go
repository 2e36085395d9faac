// Package shareserver is the HTTP service behind "Share with Doctor":
// it mints single-use, expiring tokens over a snapshot of a report and
// serves each snapshot exactly once.
package shareserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/config"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/health"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/logging"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/metrics"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/ratelimit"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/security"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/share"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/validation"
)

const sweepInterval = 10 * time.Minute

// Server wraps the HTTP server and dependencies.
type Server struct {
	cfg          *config.Config
	store        *Store
	healthReg    *health.Registry
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc

	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets a custom store (for testing).
func WithStore(store *Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a new server instance.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = NewStore(share.TTL)
	}

	start := time.Now()
	s.healthReg = health.NewRegistry()
	s.healthReg.Register("uptime", health.Uptime(start))
	s.healthReg.Register("store", func(context.Context) health.Status {
		return health.Status{
			Name:    "store",
			Healthy: true,
			Detail:  fmt.Sprintf("%d links held", s.store.Len()),
		}
	})

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)
	return s, nil
}

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers and CORS
	s.router.Use(security.HeadersMiddleware())
	s.router.Use(security.CORSMiddleware([]string{strings.TrimRight(s.cfg.ShareBaseURL, "/")}))

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	s.router.POST("/api/share-links",
		ratelimit.MiddlewareWithConfig(ratelimit.DefaultConfig()),
		validation.RequestSizeMiddleware(validation.MaxRequestSize),
		s.createShareLink,
	)
	s.router.GET("/secure-report/:token", validation.TokenParamMiddleware(), s.serveSharedReport)
}

// createShareLink handles POST /api/share-links
func (s *Server) createShareLink(c *gin.Context) {
	var req struct {
		ReportID  string         `json:"report_id" binding:"required"`
		RiskLevel string         `json:"risk_level"`
		RiskScore int            `json:"risk_score"`
		Payload   map[string]any `json:"payload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ShareLinksTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "report_id is required",
		})
		return
	}

	token, expiresAt := s.store.Mint(Snapshot{
		ReportID:  req.ReportID,
		RiskLevel: req.RiskLevel,
		RiskScore: req.RiskScore,
		Payload:   req.Payload,
	})

	metrics.ShareLinksTotal.WithLabelValues("minted").Inc()
	logging.L(c.Request.Context()).Info("share link minted",
		"report_id", req.ReportID,
		"expires_at", expiresAt,
	)

	c.JSON(http.StatusCreated, gin.H{
		"url":        fmt.Sprintf("%s/secure-report/%s?expires=72h", strings.TrimRight(s.cfg.ShareBaseURL, "/"), token),
		"token":      token,
		"expires_at": expiresAt.UTC(),
	})
}

// serveSharedReport handles GET /secure-report/:token
func (s *Server) serveSharedReport(c *gin.Context) {
	token := c.Param("token")

	snap, err := s.store.Consume(token)
	switch {
	case errors.Is(err, ErrTokenNotFound):
		metrics.ShareLinksTotal.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "This link does not exist",
		})
		return
	case errors.Is(err, ErrTokenExpired):
		metrics.ShareLinksTotal.WithLabelValues("expired").Inc()
		c.JSON(http.StatusGone, gin.H{
			"error":   "expired",
			"message": "This link has expired",
		})
		return
	case errors.Is(err, ErrTokenConsumed):
		metrics.ShareLinksTotal.WithLabelValues("consumed").Inc()
		c.JSON(http.StatusGone, gin.H{
			"error":   "consumed",
			"message": "This link has already been used",
		})
		return
	case err != nil:
		logging.L(c.Request.Context()).Error("failed to consume share token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load shared report",
		})
		return
	}

	metrics.ShareLinksTotal.WithLabelValues("served").Inc()
	c.JSON(http.StatusOK, gin.H{"report": snap})
}

// HealthResponse for health check endpoints.
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)
	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Run starts the HTTP server with graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.SharePort,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting share-link service", "port", s.cfg.SharePort)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.store.StartSweeper(runCtx, sweepInterval)

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("share-link service ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	s.logger.Info("share-link service stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
