package handlers

import (
	"net/http"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// PartyHandler handles customers, suppliers, payments and purchase invoices
type PartyHandler struct {
	partyService services.PartyService
	logger       *logrus.Logger
}

// NewPartyHandler creates a new party handler
func NewPartyHandler(partyService services.PartyService, logger *logrus.Logger) *PartyHandler {
	return &PartyHandler{
		partyService: partyService,
		logger:       logger,
	}
}

func partyFilters(c *gin.Context) (*services.PartyFilters, error) {
	debtors, err := queryBool(c, "debtors")
	if err != nil {
		return nil, err
	}
	filters := &services.PartyFilters{
		Query: c.Query("query"),
		Limit: cast.ToInt(c.Query("limit")),
	}
	if debtors != nil {
		filters.DebtorsOnly = *debtors
	}
	return filters, nil
}

// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param customer body services.PartyRequest true "Customer data"
// @Success 201 {object} models.Customer
// @Failure 400 {object} ErrorResponse
// @Router /customers [post]
func (h *PartyHandler) CreateCustomer(c *gin.Context) {
	var req services.PartyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	customer, err := h.partyService.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// @Summary Get a customer
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} models.Customer
// @Failure 404 {object} ErrorResponse
// @Router /customers/{id} [get]
func (h *PartyHandler) GetCustomer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	customer, err := h.partyService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *PartyHandler) UpdateCustomer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req services.PartyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	customer, err := h.partyService.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// @Summary Delete a customer
// @Description Customers referenced by sales or payments cannot be deleted
// @Tags customers
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /customers/{id} [delete]
func (h *PartyHandler) DeleteCustomer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.partyService.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List customers
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param query query string false "Name or phone"
// @Param debtors query bool false "Only customers who owe money"
// @Param limit query int false "Maximum results"
// @Success 200 {array} models.Customer
// @Router /customers [get]
func (h *PartyHandler) ListCustomers(c *gin.Context) {
	filters, err := partyFilters(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	customers, err := h.partyService.ListCustomers(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *PartyHandler) CreateSupplier(c *gin.Context) {
	var req services.PartyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	supplier, err := h.partyService.CreateSupplier(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *PartyHandler) GetSupplier(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	supplier, err := h.partyService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *PartyHandler) UpdateSupplier(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req services.PartyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	supplier, err := h.partyService.UpdateSupplier(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *PartyHandler) DeleteSupplier(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.partyService.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PartyHandler) ListSuppliers(c *gin.Context) {
	filters, err := partyFilters(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	suppliers, err := h.partyService.ListSuppliers(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// @Summary Record a payment
// @Description Post a standalone payment to a customer or supplier balance
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payment body services.PaymentRequest true "Payment data"
// @Success 201 {object} services.PaymentResult
// @Failure 404 {object} ErrorResponse
// @Router /payments [post]
func (h *PartyHandler) AddPayment(c *gin.Context) {
	var req services.PaymentRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.partyService.AddPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListPayments lists payments, optionally for one party
func (h *PartyHandler) ListPayments(c *gin.Context) {
	entityID, err := queryID(c, "entity_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var partyType *models.PartyType
	if raw := c.Query("type"); raw != "" {
		pt := models.PartyType(raw)
		if pt != models.PartyCustomer && pt != models.PartySupplier {
			badRequest(c, "invalid type: must be customer or supplier")
			return
		}
		partyType = &pt
	}

	payments, err := h.partyService.ListPayments(c.Request.Context(), partyType, entityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// @Summary Record a purchase invoice
// @Description Raises supplier debt and restocks every purchased product
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body services.PurchaseRequest true "Invoice data"
// @Success 201 {object} services.PurchaseResult
// @Router /purchases [post]
func (h *PartyHandler) AddPurchase(c *gin.Context) {
	var req services.PurchaseRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.partyService.AddPurchaseInvoice(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *PartyHandler) GetPurchase(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	invoice, err := h.partyService.GetPurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *PartyHandler) ListPurchases(c *gin.Context) {
	supplierID, err := queryID(c, "supplier_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	invoices, err := h.partyService.ListPurchases(c.Request.Context(), supplierID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}
