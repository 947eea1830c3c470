package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// writeError writes a standardised JSON error response and aborts the chain.
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		s.logger.Error("panic recovered", "error", err, "path", c.Request.URL.Path)
		writeError(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	})
}

func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// withRateLimit applies the shared token bucket. It is a per-server limiter,
// not per client.
func (s *Server) withRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.Header("Retry-After", "1")
			writeError(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many filter requests")
			return
		}
		c.Next()
	}
}
