package models

import (
	"time"
)

// Default pagination limits
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// SearchFilters represents common search and filter parameters
type SearchFilters struct {
	Query     string     `json:"query,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

// Normalize clamps the pagination window
func (f *SearchFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// SaleFilters narrows sale listings
type SaleFilters struct {
	SearchFilters
	ShiftID    *int64      `json:"shift_id,omitempty"`
	CustomerID *int64      `json:"customer_id,omitempty"`
	UserID     *int64      `json:"user_id,omitempty"`
	Status     *SaleStatus `json:"status,omitempty"`
}

// ShiftFilters narrows shift listings
type ShiftFilters struct {
	SearchFilters
	UserID *int64       `json:"user_id,omitempty"`
	Status *ShiftStatus `json:"status,omitempty"`
}

// PaginationResult represents paginated results
type PaginationResult struct {
	Total       int  `json:"total"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPaginationResult builds pagination metadata for a page
func NewPaginationResult(total, limit, offset int) *PaginationResult {
	return &PaginationResult{
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		HasNext:     offset+limit < total,
		HasPrevious: offset > 0,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	return ve.Message
}

// HealthCheck represents system health status
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
}
