package handlers

import (
	"errors"
	"net/http"
	"strings"

	"pos-engine/internal/middleware"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error            string                       `json:"error"`
	Message          string                       `json:"message"`
	Code             string                       `json:"code,omitempty"`
	ValidationErrors []middleware.ValidationError `json:"validation_errors,omitempty"`
}

// Error codes returned in ErrorResponse.Error
const (
	CodePreconditionFailed = "precondition_failed"
	CodeValidationFailed   = "validation_failed"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeInternal           = "internal_error"
)

// respondError maps a service error onto a status code and error body.
// Internal errors are logged and their details withheld.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var pe *services.PreconditionError
	var ve validator.ValidationErrors
	var mve *models.ValidationError

	switch {
	case errors.As(err, &pe):
		c.JSON(http.StatusConflict, ErrorResponse{Error: CodePreconditionFailed, Code: pe.Code, Message: err.Error()})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:            CodeValidationFailed,
			Message:          "Request validation failed",
			ValidationErrors: middleware.FormatValidationErrors(ve),
		})
	case errors.As(err, &mve), repositories.IsValidation(err), errors.Is(err, repositories.ErrInvalidID), isValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeValidationFailed, Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: CodeUnauthorized, Message: err.Error()})
	case repositories.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: CodeNotFound, Message: err.Error()})
	case repositories.IsDuplicate(err), repositories.IsConstraint(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: CodeConflict, Message: err.Error()})
	default:
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: CodeInternal, Message: "An internal error occurred"})
	}
	_ = c.Error(err)
}

// badRequest answers malformed input that never reached a service
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeValidationFailed, Message: message})
}

// isValidationError matches errors services wrap with "validation failed"
func isValidationError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "validation failed")
}
