package handlers

import (
	"net/http"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CartHandler handles the signed-in user's cart
type CartHandler struct {
	cartService services.CartService
	logger      *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService services.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// @Summary Get the current cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Cart
// @Router /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.GetCart(actor(c).UserID))
}

// @Summary Add an item to the cart
// @Description Adds a product or recipe line. Each call adds a new line.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body services.AddItemRequest true "Item to add"
// @Success 200 {object} models.Cart
// @Failure 409 {object} ErrorResponse
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req services.AddItemRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	cart, err := h.cartService.AddToCart(c.Request.Context(), actor(c).UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Update a cart line
// @Description A quantity below one removes the line
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item_id path string true "Cart line ID"
// @Param item body services.UpdateItemRequest true "New line values"
// @Success 200 {object} models.Cart
// @Router /cart/items/{item_id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req services.UpdateItemRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	cart, err := h.cartService.UpdateCartItem(c.Request.Context(), actor(c).UserID, c.Param("item_id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem drops a cart line. Unknown lines leave the cart unchanged.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.RemoveFromCart(actor(c).UserID, c.Param("item_id")))
}

// ClearCart empties the cart and resets checkout options
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := actor(c).UserID
	h.cartService.ClearCart(userID)
	c.JSON(http.StatusOK, h.cartService.GetCart(userID))
}

// @Summary Set checkout options
// @Description Customer, discount, delivery fee, points to redeem and wholesale mode
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkout body models.CheckoutState true "Checkout options"
// @Success 200 {object} models.Cart
// @Router /cart/checkout [put]
func (h *CartHandler) SetCheckout(c *gin.Context) {
	var state models.CheckoutState
	if !bindJSON(c, h.logger, &state) {
		return
	}

	cart, err := h.cartService.SetCheckout(actor(c).UserID, state)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
