package server

import (
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stressoscope/internal/observability"
)

const (
	RequestIDHeader = "X-Request-ID"
	SourceHeader    = "X-Analysis-Source"
)

// JSONMiddleware sets the JSON response content type and rejects form
// submissions on write methods. Requests without a content type are accepted.
func JSONMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "application/json; charset=utf-8")

		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			if contentType := c.GetHeader("Content-Type"); contentType != "" {
				mediaType, _, err := mime.ParseMediaType(contentType)
				if err == nil && (mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded") {
					c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
						"error": "Content-Type must be application/json",
					})
					return
				}
			}
		}

		c.Next()
	}
}

// BodyLimitMiddleware caps request bodies at limit bytes. Non-positive limits
// disable the cap.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// RequestIDMiddleware propagates or assigns a request ID and stores it on the
// request context for logging.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		ctx := observability.ContextWithRequestID(c.Request.Context(), id)
		if sessionID := c.Param("id"); sessionID != "" {
			ctx = observability.ContextWithSessionID(ctx, sessionID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLogMiddleware logs each request and records HTTP metrics.
func AccessLogMiddleware(logger *observability.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(started)
		metrics.ObserveHTTP(c.Request.Method, route, status, elapsed)

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request failed", args...)
			return
		}
		logger.InfoContext(c.Request.Context(), "request served", args...)
	}
}

func recoveryHandler(logger *observability.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic while serving request", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}
