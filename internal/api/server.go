// Package api serves the pair overview and the calculator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pairScope/internal/calc"
	"pairScope/internal/model"
	"pairScope/internal/overview"
	"pairScope/internal/present"
)

// HTTPObserver records request metrics. *metrics.Metrics implements it.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
	SetSnapshotBlock(block uint64)
}

// Config wires the router.
type Config struct {
	Calculator  *calc.Calculator
	Overview    *overview.Service
	Metrics     HTTPObserver
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *zap.Logger
}

type handler struct {
	calculator *calc.Calculator
	overview   *overview.Service
	metrics    HTTPObserver
	logger     *zap.Logger
}

// NewRouter builds the gin engine.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		calculator: cfg.Calculator,
		overview:   cfg.Overview,
		metrics:    cfg.Metrics,
		logger:     logger,
	}

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(zapLogger(logger, cfg.Metrics))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/pair", h.getPair)
		apiGroup.POST("/calculate", h.calculate)
		apiGroup.GET("/calculation", h.getCalculation)
		apiGroup.DELETE("/calculation", h.dismiss)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	} else {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return router
}

func zapLogger(logger *zap.Logger, observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, route, status, elapsed)
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

func (h *handler) getPair(c *gin.Context) {
	ov, err := h.overview.Overview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SetSnapshotBlock(ov.BlockNumber)
	}
	c.JSON(http.StatusOK, present.NewOverviewView(ov))
}

func (h *handler) calculate(c *gin.Context) {
	var req model.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": present.Notification{Level: present.LevelError, Kind: "bad_request", Message: "invalid request body"}})
		return
	}
	result, err := h.calculator.Calculate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SetSnapshotBlock(result.Snapshot.BlockNumber)
	}
	c.JSON(http.StatusOK, present.NewCalculationView(result))
}

func (h *handler) getCalculation(c *gin.Context) {
	c.JSON(http.StatusOK, present.NewLifecycleView(h.calculator.Lifecycle().Snapshot()))
}

func (h *handler) dismiss(c *gin.Context) {
	h.calculator.Dismiss()
	c.JSON(http.StatusOK, present.NewLifecycleView(h.calculator.Lifecycle().Snapshot()))
}

func (h *handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": present.Notify(err)})
}

func statusFor(err error) int {
	var verr *calc.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calc.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, calc.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
