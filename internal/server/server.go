// Package server exposes the verification pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
	"go.uber.org/zap"
)

// HealthMessage is returned by GET /health
const HealthMessage = "AI Reality Integrity Engine backend running"

const rootPage = "<h1>AI Reality Integrity Engine</h1><p>Backend running.</p>"

// Runner executes one verification
type Runner interface {
	Run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error)
}

// Server is the HTTP transport
type Server struct {
	runner Runner
	config model.ServerConfig
	logger *zap.Logger
	engine *gin.Engine
}

// New creates a server and registers its routes
func New(cfg model.ServerConfig, runner Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		runner: runner,
		config: cfg,
		logger: logger,
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	s.engine.GET("/", s.root)
	s.engine.GET("/health", s.health)
	s.engine.POST("/verify", s.verify)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) root(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rootPage))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": HealthMessage})
}

func (s *Server) verify(c *gin.Context) {
	var req model.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body: " + err.Error()})
		return
	}

	run, err := s.runner.Run(c.Request.Context(), req)
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("verify failed", zap.Int("status", status), zap.Error(err))
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, run)
}

// errorResponse maps the error taxonomy onto HTTP statuses
func errorResponse(err error) (int, gin.H) {
	var (
		cfgErr    *fault.ConfigurationError
		svcErr    *fault.ServiceError
		malformed *fault.MalformedResponseError
	)
	switch {
	case errors.Is(err, fault.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"detail": err.Error()}
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, gin.H{"detail": err.Error()}
	case errors.As(err, &malformed):
		return http.StatusBadGateway, gin.H{"detail": "JSON parse error", "raw": malformed.Raw}
	case isTimeout(err):
		return http.StatusGatewayTimeout, gin.H{"detail": err.Error()}
	case errors.As(err, &svcErr):
		return http.StatusBadGateway, gin.H{"detail": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"detail": err.Error()}
	}
}

// isTimeout matches deadlines anywhere in the chain, including those
// wrapped in a ServiceError by the providers
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
