package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"github.com/project-tktt/job-dashboard/internal/telemetry"
)

const (
	requestIDHeader = "X-Request-ID"
	sessionHeader   = "X-Session-ID"
	requestIDKey    = "request_id"
)

// requestIDMiddleware keeps an inbound X-Request-ID or generates a uuid
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// loggerMiddleware logs one line per request
func loggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
			logger.String("request_id", requestID(c)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, logger.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case strings.HasPrefix(path, "/healthz") || path == "/metrics":
			log.Debug("http request", fields...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("http request", fields...)
		case len(c.Errors) > 0:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// recoveryMiddleware turns a panic into a 500 error envelope
func recoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					logger.Any("panic", r),
					logger.String("path", c.Request.URL.Path),
					logger.String("request_id", requestID(c)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errorBody{
					Code:      codeInternal,
					Message:   "an unexpected error occurred",
					RequestID: requestID(c),
				}})
			}
		}()
		c.Next()
	}
}

// metricsMiddleware records status and latency per route template
func metricsMiddleware(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTP(route, c.Writer.Status(), time.Since(start))
	}
}

// sessionKey identifies the browser session for request supersession
func sessionKey(c *gin.Context) string {
	if s := strings.TrimSpace(c.GetHeader(sessionHeader)); s != "" {
		return "session:" + s
	}
	return "ip:" + c.ClientIP()
}
