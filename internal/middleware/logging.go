package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger logs one entry per request with its outcome
func StructuredLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"request_id":    c.GetString(RequestIDKey),
			"method":        c.Request.Method,
			"path":          path,
			"status_code":   c.Writer.Status(),
			"latency_ms":    float64(latency.Nanoseconds()) / 1000000,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		}

		// Tokens may arrive in the query for websocket upgrades
		if raw != "" && !strings.Contains(raw, "access_token") {
			fields["query"] = raw
		}

		if userID, ok := c.Get("user_id"); ok {
			fields["user_id"] = userID
		}

		for _, err := range c.Errors {
			fields["error"] = err.Error()
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.WithFields(fields).Error("Server error")
		case c.Writer.Status() >= 400:
			logger.WithFields(fields).Warn("Client error")
		default:
			logger.WithFields(fields).Info("Request completed")
		}
	}
}

// AuditLogger records who performed each write operation
func AuditLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"audit":          true,
			"request_id":     c.GetString(RequestIDKey),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status_code":    c.Writer.Status(),
			"operation_time": time.Since(start).Milliseconds(),
			"resource_type":  resourceType(c.FullPath()),
		}

		if claims, ok := ClaimsFromContext(c); ok {
			fields["user_id"] = claims.UserID
			fields["user_name"] = claims.Name
		}

		if id := c.Param("id"); id != "" {
			fields["resource_id"] = id
		}

		switch c.Request.Method {
		case "POST":
			fields["operation"] = "CREATE"
		case "PUT", "PATCH":
			fields["operation"] = "UPDATE"
		case "DELETE":
			fields["operation"] = "DELETE"
		}

		logger.WithFields(fields).Info("Audit log")
	}
}

// PerformanceMonitor logs requests slower than threshold
func PerformanceMonitor(slowThreshold time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	if slowThreshold == 0 {
		slowThreshold = 1 * time.Second
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		if latency > slowThreshold {
			logger.WithFields(logrus.Fields{
				"performance_alert": true,
				"request_id":        c.GetString(RequestIDKey),
				"method":            c.Request.Method,
				"path":              c.Request.URL.Path,
				"latency_ms":        float64(latency.Nanoseconds()) / 1000000,
				"threshold_ms":      float64(slowThreshold.Nanoseconds()) / 1000000,
				"status_code":       c.Writer.Status(),
			}).Warn("Slow request detected")
		}
	}
}

// resourceType returns the first path segment after /api/v1 of a route
// template such as /api/v1/sales/:id/cancel
func resourceType(route string) string {
	route = strings.TrimPrefix(route, "/api/v1/")
	if i := strings.Index(route, "/"); i >= 0 {
		route = route[:i]
	}
	return route
}
