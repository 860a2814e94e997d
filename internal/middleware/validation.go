package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"
)

// ValidationError represents a validation error with field details
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	RequestID        string            `json:"request_id,omitempty"`
}

// RequestValidation rejects malformed pagination and date query parameters
// before they reach a handler
func RequestValidation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := validateQueryParams(c); err != nil {
			abortWithError(c, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		c.Next()
	}
}

// RateLimiter limits requests per client IP. Idle limiters are dropped after
// ten minutes.
func RateLimiter(requestsPerSecond float64, burstSize int, logger *logrus.Logger) gin.HandlerFunc {
	if requestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
		sweep   = time.Now()
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(sweep) > time.Minute {
			for key, cl := range clients {
				if now.Sub(cl.lastSeen) > 10*time.Minute {
					delete(clients, key)
				}
			}
			sweep = now
		}

		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)}
			clients[ip] = cl
		}
		cl.lastSeen = now
		return cl.limiter
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			logger.WithFields(logrus.Fields{
				"client_ip":  c.ClientIP(),
				"path":       c.Request.URL.Path,
				"user_agent": c.Request.UserAgent(),
			}).Warn("Rate limit exceeded")

			abortWithError(c, http.StatusTooManyRequests, "rate_limited",
				fmt.Sprintf("Too many requests. Limit: %.1f requests per second", requestsPerSecond))
			return
		}
		c.Next()
	}
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// ContentTypeValidation requires a JSON body on requests that carry one
func ContentTypeValidation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" || c.Request.Method == "DELETE" {
			c.Next()
			return
		}
		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		mainType := strings.TrimSpace(strings.Split(c.GetHeader("Content-Type"), ";")[0])
		if mainType != "application/json" {
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
				fmt.Sprintf("Content-Type '%s' is not supported. Use application/json", mainType))
			return
		}

		c.Next()
	}
}

// RequestSizeLimit limits the size of request bodies
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			abortWithError(c, http.StatusRequestEntityTooLarge, "request_too_large",
				fmt.Sprintf("Request body size (%d bytes) exceeds maximum allowed size (%d bytes)", c.Request.ContentLength, maxSize))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

func validateQueryParams(c *gin.Context) error {
	if limit := c.Query("limit"); limit != "" {
		if val, err := cast.ToIntE(limit); err != nil || val < 0 {
			return fmt.Errorf("invalid limit parameter: must be a non-negative integer")
		}
	}

	if offset := c.Query("offset"); offset != "" {
		if val, err := cast.ToIntE(offset); err != nil || val < 0 {
			return fmt.Errorf("invalid offset parameter: must be a non-negative integer")
		}
	}

	for _, param := range []string{"from", "to"} {
		if value := c.Query(param); value != "" {
			if _, err := time.Parse(time.RFC3339, value); err != nil {
				return fmt.Errorf("invalid %s parameter: must be in RFC3339 format", param)
			}
		}
	}

	return nil
}

// FormatValidationErrors turns validator errors into response details
func FormatValidationErrors(validationErrors validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(validationErrors))

	for _, err := range validationErrors {
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min", "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max", "lte":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "numeric":
			message = fmt.Sprintf("%s must contain digits only", err.Field())
		default:
			message = fmt.Sprintf("%s is invalid", err.Field())
		}

		out = append(out, ValidationError{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Message: message,
		})
	}

	return out
}
