package handlers

import (
	"net/http"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SaleHandler handles checkout, sale history and cancellation
type SaleHandler struct {
	saleService services.SaleService
	logger      *logrus.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService services.SaleService, logger *logrus.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// @Summary Preview the cart totals
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.PricingBreakdown
// @Failure 409 {object} ErrorResponse
// @Router /sales/preview [get]
func (h *SaleHandler) PreviewSale(c *gin.Context) {
	breakdown, err := h.saleService.PreviewSale(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// @Summary Complete a sale
// @Description Commits the current cart against the active shift and clears it
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tender body services.ProcessSaleRequest true "Payment split"
// @Success 201 {object} services.SaleResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sales [post]
func (h *SaleHandler) ProcessSale(c *gin.Context) {
	var req services.ProcessSaleRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.saleService.ProcessSale(c.Request.Context(), actor(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"sale_id": result.Sale.ID,
		"total":   result.Sale.TotalAmount,
		"user_id": result.Sale.UserID,
	}).Info("Sale completed")

	c.JSON(http.StatusCreated, result)
}

// @Summary Get a sale
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sale ID"
// @Success 200 {object} models.Sale
// @Failure 404 {object} ErrorResponse
// @Router /sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// @Summary List sales
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param from query string false "Start date (RFC3339)"
// @Param to query string false "End date (RFC3339)"
// @Param shift_id query int false "Shift"
// @Param customer_id query int false "Customer"
// @Param user_id query int false "Cashier"
// @Param status query string false "completed or canceled"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.SaleList
// @Router /sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	search, err := searchFilters(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	filters := models.SaleFilters{SearchFilters: search}
	for name, target := range map[string]**int64{
		"shift_id":    &filters.ShiftID,
		"customer_id": &filters.CustomerID,
		"user_id":     &filters.UserID,
	} {
		id, err := queryID(c, name)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		*target = id
	}

	if raw := c.Query("status"); raw != "" {
		status := models.SaleStatus(raw)
		if status != models.SaleCompleted && status != models.SaleCanceled {
			badRequest(c, "invalid status: must be completed or canceled")
			return
		}
		filters.Status = &status
	}

	list, err := h.saleService.ListSales(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Cancel a sale
// @Description Restores stock and reverses customer effects. Canceling twice is a no-op.
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sale ID"
// @Success 200 {object} services.CancelResult
// @Router /sales/{id}/cancel [post]
func (h *SaleHandler) CancelSale(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.saleService.CancelSale(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
