package handlers

import (
	"net/http"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ShiftHandler handles cash shifts and expenses
type ShiftHandler struct {
	shiftService services.ShiftService
	logger       *logrus.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService services.ShiftService, logger *logrus.Logger) *ShiftHandler {
	return &ShiftHandler{
		shiftService: shiftService,
		logger:       logger,
	}
}

// StartShiftRequest opens a drawer with a float
type StartShiftRequest struct {
	StartingCash float64 `json:"starting_cash" binding:"gte=0"`
}

// EndShiftRequest closes a drawer with the counted cash
type EndShiftRequest struct {
	CountedCash float64 `json:"counted_cash" binding:"gte=0"`
}

// ExpenseRequest records cash paid out of the drawer
type ExpenseRequest struct {
	Description string  `json:"description" binding:"required,max=500"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

// @Summary Start a shift
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param shift body StartShiftRequest true "Starting cash"
// @Success 201 {object} models.Shift
// @Failure 409 {object} ErrorResponse
// @Router /shifts/start [post]
func (h *ShiftHandler) StartShift(c *gin.Context) {
	var req StartShiftRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	shift, err := h.shiftService.StartShift(c.Request.Context(), actor(c), req.StartingCash)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// @Summary End the active shift
// @Description Closes the caller's shift and reconciles counted cash against expected cash
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param shift body EndShiftRequest true "Counted cash"
// @Success 200 {object} services.ShiftReport
// @Failure 409 {object} ErrorResponse
// @Router /shifts/end [post]
func (h *ShiftHandler) EndShift(c *gin.Context) {
	var req EndShiftRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	report, err := h.shiftService.EndShift(c.Request.Context(), actor(c), req.CountedCash)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"shift_id":   report.Shift.ID,
		"difference": report.Shift.Difference,
	}).Info("Shift closed")

	c.JSON(http.StatusOK, report)
}

// GetActiveShift returns the caller's open shift
func (h *ShiftHandler) GetActiveShift(c *gin.Context) {
	shift, err := h.shiftService.GetActiveShift(c.Request.Context(), actor(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

// @Summary Shift report
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Shift ID"
// @Success 200 {object} services.ShiftReport
// @Failure 404 {object} ErrorResponse
// @Router /shifts/{id} [get]
func (h *ShiftHandler) GetShiftReport(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := h.shiftService.GetShiftReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListShifts lists shifts, newest first
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	search, err := searchFilters(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	userID, err := queryID(c, "user_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	filters := models.ShiftFilters{SearchFilters: search, UserID: userID}
	if raw := c.Query("status"); raw != "" {
		status := models.ShiftStatus(raw)
		if status != models.ShiftActive && status != models.ShiftClosed {
			badRequest(c, "invalid status: must be active or closed")
			return
		}
		filters.Status = &status
	}

	shifts, err := h.shiftService.ListShifts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// @Summary Record an expense
// @Description Cash paid out of the caller's active shift
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param expense body ExpenseRequest true "Expense"
// @Success 201 {object} models.Expense
// @Failure 409 {object} ErrorResponse
// @Router /expenses [post]
func (h *ShiftHandler) AddExpense(c *gin.Context) {
	var req ExpenseRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	expense, err := h.shiftService.AddExpense(c.Request.Context(), actor(c), req.Description, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}
