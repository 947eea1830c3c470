package server

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/agenthands/casegraph/internal/core/view"
	"github.com/agenthands/casegraph/internal/metrics"
)

type Options struct {
	Views   *view.Manager
	Metrics *metrics.Registry
	Logger  *log.Logger
	// RequestsPerSecond limits the filter-apply route. Zero disables the limit.
	RequestsPerSecond float64
	Burst             int
}

type Server struct {
	views   *view.Manager
	metrics *metrics.Registry
	logger  *log.Logger
	limiter *rate.Limiter
}

func NewServer(opts Options) *Server {
	s := &Server{
		views:   opts.Views,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return s
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger(), s.instrument())

	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})))

	cases := r.Group("/api/cases/:id/graph")
	cases.GET("", s.withRateLimit(), s.ApplyFilter)
	cases.DELETE("", s.DiscardCase)
	cases.GET("/snapshot", s.GetSnapshot)
	cases.GET("/nodes/:nodeId", s.SelectNode)
	cases.GET("/selection", s.GetSelection)
	cases.DELETE("/selection", s.ClearSelection)
	cases.PUT("/raw", s.ImportGraph)

	return r
}
