package handlers

import (
	"net/http"

	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ShopHandler handles the shop configuration
type ShopHandler struct {
	shopService services.ShopService
	logger      *logrus.Logger
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shopService services.ShopService, logger *logrus.Logger) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
		logger:      logger,
	}
}

// @Summary Get shop settings
// @Tags shop
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ShopInfo
// @Failure 409 {object} ErrorResponse
// @Router /shop [get]
func (h *ShopHandler) GetShopInfo(c *gin.Context) {
	shop, err := h.shopService.GetShopInfo(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// @Summary Save shop settings
// @Tags shop
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param shop body services.ShopInfoRequest true "Shop settings"
// @Success 200 {object} models.ShopInfo
// @Failure 400 {object} ErrorResponse
// @Router /shop [put]
func (h *ShopHandler) SaveShopInfo(c *gin.Context) {
	var req services.ShopInfoRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	shop, err := h.shopService.SaveShopInfo(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}
