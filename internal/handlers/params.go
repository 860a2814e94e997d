package handlers

import (
	"errors"
	"fmt"
	"time"

	"pos-engine/internal/middleware"
	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := cast.ToInt64E(c.Param(name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter
func queryID(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := cast.ToInt64E(raw)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	val, err := cast.ToBoolE(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be true or false", name)
	}
	return &val, nil
}

// searchFilters reads query, from, to, limit and offset
func searchFilters(c *gin.Context) (models.SearchFilters, error) {
	filters := models.SearchFilters{Query: c.Query("query")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := cast.ToIntE(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid limit: must be an integer")
		}
		filters.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := cast.ToIntE(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid offset: must be an integer")
		}
		filters.Offset = offset
	}

	for name, target := range map[string]**time.Time{"from": &filters.StartDate, "to": &filters.EndDate} {
		if raw := c.Query(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return filters, fmt.Errorf("invalid %s: must be in RFC3339 format", name)
			}
			*target = &t
		}
	}

	return filters, nil
}

// actor returns the signed-in identity. Routes using it sit behind
// Authentication, so a missing identity is a wiring bug.
func actor(c *gin.Context) services.Actor {
	a, _ := middleware.ActorFromContext(c)
	return a
}

// bindJSON decodes the request body into req. Binding rule failures are
// reported field by field, anything else as a malformed body.
func bindJSON(c *gin.Context, logger *logrus.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			respondError(c, logger, err)
		} else {
			badRequest(c, "Invalid request body: "+err.Error())
		}
		return false
	}
	return true
}
