package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"

	"github.com/maxviazov/edutrack-service/pkg/response"
)

const requestIDKey = "request_id"

// RequestID propagates an incoming X-Request-ID or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one line per request once the handler chain has finished.
func AccessLog(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors.Last().Err)
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("took", time.Since(start)).
			Str("request_id", RequestIDFrom(c)).
			Msg("request handled")
	}
}

// SecureHeaders applies a conservative set of security headers.
// I leave CSP unset so the Swagger UI page can load its CDN assets.
func SecureHeaders(isDevelopment bool) gin.HandlerFunc {
	s := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      isDevelopment,
	})
	return func(c *gin.Context) {
		if err := s.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		// Process may have written a redirect.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}

// Recovery turns a panic into the standard 500 envelope and logs it.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		log.Error().
			Interface("panic", rec).
			Str("path", c.Request.URL.Path).
			Str("request_id", RequestIDFrom(c)).
			Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorPayload{Error: "internal_error"})
	})
}

// NewRouter builds a gin engine with the middleware chain in its fixed order:
// recovery, request id, access log, security headers.
func NewRouter(logger zerolog.Logger, isDevelopment bool) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(logger), RequestID(), AccessLog(logger), SecureHeaders(isDevelopment))
	return r
}
