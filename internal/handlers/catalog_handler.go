package handlers

import (
	"net/http"
	"strings"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// CatalogHandler handles products, recipes, categories and addons
type CatalogHandler struct {
	catalogService services.CatalogService
	logger         *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService services.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// StockAdjustRequest is a manual stock correction
type StockAdjustRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

// NameRequest carries a single name
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// RecipeResponse is a recipe with its ingredient cost
type RecipeResponse struct {
	*models.Recipe
	UnitCost float64 `json:"unit_cost"`
}

// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body services.ProductRequest true "Product data"
// @Success 201 {object} models.Product
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.ProductRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// @Summary Get a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// @Summary Look up a product by barcode
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param barcode path string true "Barcode"
// @Success 200 {object} models.Product
// @Failure 404 {object} ErrorResponse
// @Router /products/barcode/{barcode} [get]
func (h *CatalogHandler) GetProductByBarcode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("barcode"))
	if code == "" {
		badRequest(c, "barcode is required")
		return
	}

	product, err := h.catalogService.GetProductByBarcode(c.Request.Context(), code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// @Summary Replace a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param product body services.ProductRequest true "Product data"
// @Success 200 {object} models.Product
// @Router /products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req services.ProductRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// @Summary Delete a product
// @Description Products that appear in a sale, purchase or recipe cannot be deleted
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param query query string false "Name or barcode"
// @Param category_id query int false "Category"
// @Param raw query bool false "Raw materials only or sellable only"
// @Param limit query int false "Maximum results"
// @Success 200 {array} models.Product
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	categoryID, err := queryID(c, "category_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	raw, err := queryBool(c, "raw")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	filters := &services.ProductFilters{
		Query:         c.Query("query"),
		CategoryID:    categoryID,
		IsRawMaterial: raw,
		Limit:         cast.ToInt(c.Query("limit")),
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// @Summary Adjust product stock
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param adjustment body StockAdjustRequest true "Signed stock delta"
// @Success 200 {object} models.StockChange
// @Router /products/{id}/stock [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req StockAdjustRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	change, err := h.catalogService.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

// GetLowStock lists products at or under their threshold
func (h *CatalogHandler) GetLowStock(c *gin.Context) {
	products, err := h.catalogService.GetLowStock(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recipe body services.RecipeRequest true "Recipe data"
// @Success 201 {object} RecipeResponse
// @Router /recipes [post]
func (h *CatalogHandler) CreateRecipe(c *gin.Context) {
	var req services.RecipeRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	recipe, err := h.catalogService.CreateRecipe(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

// GetRecipe returns a recipe with its current ingredient cost
func (h *CatalogHandler) GetRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	recipe, err := h.catalogService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *CatalogHandler) UpdateRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req services.RecipeRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	recipe, err := h.catalogService.UpdateRecipe(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *CatalogHandler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.catalogService.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.catalogService.ListRecipes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *CatalogHandler) respondRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	cost, err := h.catalogService.RecipeCost(c.Request.Context(), recipe)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(status, RecipeResponse{Recipe: recipe, UnitCost: cost})
}

// Categories

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req NameRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req NameRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Addons

func (h *CatalogHandler) CreateAddon(c *gin.Context) {
	var req services.AddonRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	addon, err := h.catalogService.CreateAddon(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, addon)
}

func (h *CatalogHandler) UpdateAddon(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req services.AddonRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	addon, err := h.catalogService.UpdateAddon(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, addon)
}

func (h *CatalogHandler) DeleteAddon(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.catalogService.DeleteAddon(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListAddons(c *gin.Context) {
	addons, err := h.catalogService.ListAddons(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, addons)
}

// Addon groups

func (h *CatalogHandler) CreateAddonGroup(c *gin.Context) {
	var req services.AddonGroupRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	group, err := h.catalogService.CreateAddonGroup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *CatalogHandler) UpdateAddonGroup(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req services.AddonGroupRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	group, err := h.catalogService.UpdateAddonGroup(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *CatalogHandler) DeleteAddonGroup(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.catalogService.DeleteAddonGroup(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListAddonGroups(c *gin.Context) {
	groups, err := h.catalogService.ListAddonGroups(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
