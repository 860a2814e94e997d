package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/events"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// catalogService implements the CatalogService interface
type catalogService struct {
	repos     repositories.RepositoryManager
	ledger    *StockLedger
	publisher events.Publisher
	logger    *logrus.Logger
	validator *validator.Validate
}

// NewCatalogService creates a new catalog service instance
func NewCatalogService(repos repositories.RepositoryManager, ledger *StockLedger, publisher events.Publisher, logger *logrus.Logger) CatalogService {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &catalogService{
		repos:     repos,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		validator: validator.New(),
	}
}

// CreateProduct creates a new product
func (s *catalogService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	if err := s.validateRequest(req, "product"); err != nil {
		return nil, err
	}

	product := models.NewProduct(models.SanitizeString(req.Name), req.Price, req.Cost, strings.TrimSpace(req.Unit))
	applyProductRequest(product, req)
	product.Stock = req.Stock

	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.checkAddonGroups(ctx, product.AddonGroupIDs); err != nil {
		return nil, err
	}

	if err := s.repos.Products().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publishCatalog("product", product.ID, product)
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: product ID must be positive")
	}

	product, err := s.repos.Products().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProductByBarcode retrieves a product by its barcode
func (s *catalogService) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("validation failed: barcode cannot be empty")
	}

	product, err := s.repos.Products().GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces a product's details. Stock is left unchanged; use
// AdjustStock for that.
func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	if err := s.validateRequest(req, "product"); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = models.SanitizeString(req.Name)
	product.Price = req.Price
	product.Cost = req.Cost
	product.Unit = strings.TrimSpace(req.Unit)
	applyProductRequest(product, req)

	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.checkAddonGroups(ctx, product.AddonGroupIDs); err != nil {
		return nil, err
	}

	// ingredients must stay raw materials
	if !product.IsRawMaterial {
		recipes, err := s.repos.Recipes().GetUsingProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check recipes: %w", err)
		}
		if len(recipes) > 0 {
			return nil, preconditionf(ErrInvalidIngredient, "product %d is an ingredient of %q", id, recipes[0].Name)
		}
	}

	if err := s.repos.Products().Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.publishCatalog("product", product.ID, product)
	return product, nil
}

// DeleteProduct removes a product that no recipe, sale or purchase refers to
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("validation failed: product ID must be positive")
	}

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		sold, err := s.repos.Sales().ExistsWithProduct(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check product sales: %w", err)
		}
		if sold {
			return preconditionf(ErrReferencedByHistory, "product %d appears in sales", id)
		}

		recipes, err := s.repos.Recipes().GetUsingProduct(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check recipes: %w", err)
		}
		if len(recipes) > 0 {
			recipeIDs := make([]int64, len(recipes))
			for i, r := range recipes {
				recipeIDs[i] = r.ID
			}
			soldViaRecipe, err := s.repos.Sales().ExistsWithRecipe(txCtx, recipeIDs...)
			if err != nil {
				return fmt.Errorf("failed to check recipe sales: %w", err)
			}
			if soldViaRecipe {
				return preconditionf(ErrReferencedByHistory, "product %d was sold through a recipe", id)
			}
			return preconditionf(ErrReferencedByHistory, "product %d is an ingredient of %q", id, recipes[0].Name)
		}

		purchased, err := s.repos.Purchases().ExistsWithProduct(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check purchases: %w", err)
		}
		if purchased {
			return preconditionf(ErrReferencedByHistory, "product %d appears in purchase invoices", id)
		}

		if err := s.repos.Products().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishCatalog("product", id, nil)
	return nil
}

// ListProducts retrieves products with optional filters
func (s *catalogService) ListProducts(ctx context.Context, filters *ProductFilters) ([]*models.Product, error) {
	if filters == nil {
		filters = &ProductFilters{}
	}

	if q := strings.TrimSpace(filters.Query); q != "" {
		products, err := s.repos.Products().Search(ctx, q, filters.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search products: %w", err)
		}
		return products, nil
	}

	repoFilters := make(map[string]interface{})
	if filters.CategoryID != nil {
		repoFilters["category_id"] = *filters.CategoryID
	}
	if filters.IsRawMaterial != nil {
		repoFilters["is_raw_material"] = *filters.IsRawMaterial
	}

	products, err := s.repos.Products().List(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// AdjustStock applies a manual stock correction
func (s *catalogService) AdjustStock(ctx context.Context, id int64, delta float64) (*models.StockChange, error) {
	if delta == 0 {
		return nil, fmt.Errorf("validation failed: stock delta cannot be zero")
	}

	var change *models.StockChange
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.repos.Products().GetByID(txCtx, id); err != nil {
			return fmt.Errorf("failed to get product: %w", err)
		}

		changes, err := s.ledger.ApplyDeltas(txCtx, map[int64]float64{id: delta}, models.MovementAdjustment, nil)
		if err != nil {
			return err
		}
		change = &changes[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.New(events.StockChanged, "product", id, []models.StockChange{*change}))
	return change, nil
}

// GetLowStock retrieves products at or below their threshold
func (s *catalogService) GetLowStock(ctx context.Context) ([]*models.Product, error) {
	products, err := s.repos.Products().GetLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

// CreateRecipe creates a new recipe. Every ingredient must be a raw material.
func (s *catalogService) CreateRecipe(ctx context.Context, req *RecipeRequest) (*models.Recipe, error) {
	if err := s.validateRequest(req, "recipe"); err != nil {
		return nil, err
	}

	recipe := models.NewRecipe(models.SanitizeString(req.Name), req.Price, req.Ingredients...)
	recipe.CategoryID = req.CategoryID
	recipe.AddonGroupIDs = nonNilIDs(req.AddonGroupIDs)

	if err := s.checkRecipe(ctx, recipe); err != nil {
		return nil, err
	}

	if err := s.repos.Recipes().Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.publishCatalog("recipe", recipe.ID, recipe)
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *catalogService) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: recipe ID must be positive")
	}

	recipe, err := s.repos.Recipes().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return recipe, nil
}

// UpdateRecipe replaces a recipe. Past sales keep the price and cost they were
// sold at; cancellation restores stock using the current ingredients.
func (s *catalogService) UpdateRecipe(ctx context.Context, id int64, req *RecipeRequest) (*models.Recipe, error) {
	if err := s.validateRequest(req, "recipe"); err != nil {
		return nil, err
	}

	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}

	recipe.Name = models.SanitizeString(req.Name)
	recipe.Price = req.Price
	recipe.CategoryID = req.CategoryID
	recipe.Ingredients = req.Ingredients
	if recipe.Ingredients == nil {
		recipe.Ingredients = []models.Ingredient{}
	}
	recipe.AddonGroupIDs = nonNilIDs(req.AddonGroupIDs)

	if err := s.checkRecipe(ctx, recipe); err != nil {
		return nil, err
	}

	if err := s.repos.Recipes().Update(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	s.publishCatalog("recipe", recipe.ID, recipe)
	return recipe, nil
}

// DeleteRecipe removes a recipe that no sale refers to
func (s *catalogService) DeleteRecipe(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("validation failed: recipe ID must be positive")
	}

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		sold, err := s.repos.Sales().ExistsWithRecipe(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check recipe sales: %w", err)
		}
		if sold {
			return preconditionf(ErrReferencedByHistory, "recipe %d appears in sales", id)
		}

		if err := s.repos.Recipes().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishCatalog("recipe", id, nil)
	return nil
}

// ListRecipes retrieves all recipes
func (s *catalogService) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	recipes, err := s.repos.Recipes().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// RecipeCost returns the current cost of one unit of a recipe
func (s *catalogService) RecipeCost(ctx context.Context, recipe *models.Recipe) (float64, error) {
	if recipe == nil {
		return 0, fmt.Errorf("recipe cannot be nil")
	}
	return recipeCost(ctx, s.repos.Products(), recipe)
}

// CreateCategory creates a new category
func (s *catalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := models.NewCategory(models.SanitizeString(name))
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Categories().Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.publishCatalog("category", category.ID, category)
	return category, nil
}

// UpdateCategory renames a category
func (s *catalogService) UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	category, err := s.repos.Categories().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Name = models.SanitizeString(name)
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Categories().Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.publishCatalog("category", category.ID, category)
	return category, nil
}

// DeleteCategory removes a category. Its products and recipes become uncategorized.
func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repos.Categories().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.publishCatalog("category", id, nil)
	return nil
}

// ListCategories retrieves all categories
func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repos.Categories().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateAddon creates a new addon
func (s *catalogService) CreateAddon(ctx context.Context, req *AddonRequest) (*models.Addon, error) {
	if err := s.validateRequest(req, "addon"); err != nil {
		return nil, err
	}

	addon := &models.Addon{Name: models.SanitizeString(req.Name), Price: req.Price}
	if err := s.repos.Addons().Create(ctx, addon); err != nil {
		return nil, fmt.Errorf("failed to create addon: %w", err)
	}

	s.publishCatalog("addon", addon.ID, addon)
	return addon, nil
}

// UpdateAddon replaces an addon's name and price
func (s *catalogService) UpdateAddon(ctx context.Context, id int64, req *AddonRequest) (*models.Addon, error) {
	if err := s.validateRequest(req, "addon"); err != nil {
		return nil, err
	}

	addon := &models.Addon{ID: id, Name: models.SanitizeString(req.Name), Price: req.Price}
	if err := s.repos.Addons().Update(ctx, addon); err != nil {
		return nil, fmt.Errorf("failed to update addon: %w", err)
	}

	s.publishCatalog("addon", addon.ID, addon)
	return addon, nil
}

// DeleteAddon removes an addon and drops it from every group offering it
func (s *catalogService) DeleteAddon(ctx context.Context, id int64) error {
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		groups, err := s.repos.AddonGroups().GetContainingAddon(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to get addon groups: %w", err)
		}

		for _, group := range groups {
			group.AddonIDs = withoutID(group.AddonIDs, id)
			if err := s.repos.AddonGroups().Update(txCtx, group); err != nil {
				return fmt.Errorf("failed to update addon group: %w", err)
			}
		}

		if err := s.repos.Addons().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete addon: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishCatalog("addon", id, nil)
	return nil
}

// ListAddons retrieves all addons
func (s *catalogService) ListAddons(ctx context.Context) ([]*models.Addon, error) {
	addons, err := s.repos.Addons().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list addons: %w", err)
	}
	return addons, nil
}

// CreateAddonGroup creates a new addon group
func (s *catalogService) CreateAddonGroup(ctx context.Context, req *AddonGroupRequest) (*models.AddonGroup, error) {
	if err := s.validateRequest(req, "addon group"); err != nil {
		return nil, err
	}

	group := &models.AddonGroup{
		Name:          models.SanitizeString(req.Name),
		SelectionType: req.SelectionType,
		AddonIDs:      nonNilIDs(req.AddonIDs),
	}
	if err := s.checkAddons(ctx, group.AddonIDs); err != nil {
		return nil, err
	}

	if err := s.repos.AddonGroups().Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create addon group: %w", err)
	}

	s.publishCatalog("addon_group", group.ID, group)
	return group, nil
}

// UpdateAddonGroup replaces an addon group
func (s *catalogService) UpdateAddonGroup(ctx context.Context, id int64, req *AddonGroupRequest) (*models.AddonGroup, error) {
	if err := s.validateRequest(req, "addon group"); err != nil {
		return nil, err
	}

	group := &models.AddonGroup{
		ID:            id,
		Name:          models.SanitizeString(req.Name),
		SelectionType: req.SelectionType,
		AddonIDs:      nonNilIDs(req.AddonIDs),
	}
	if err := s.checkAddons(ctx, group.AddonIDs); err != nil {
		return nil, err
	}

	if err := s.repos.AddonGroups().Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update addon group: %w", err)
	}

	s.publishCatalog("addon_group", group.ID, group)
	return group, nil
}

// DeleteAddonGroup removes a group and detaches it from products and recipes
func (s *catalogService) DeleteAddonGroup(ctx context.Context, id int64) error {
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		products, err := s.repos.Products().List(txCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		for _, p := range products {
			if p.HasAddonGroup(id) {
				p.AddonGroupIDs = withoutID(p.AddonGroupIDs, id)
				if err := s.repos.Products().Update(txCtx, p); err != nil {
					return fmt.Errorf("failed to update product: %w", err)
				}
			}
		}

		recipes, err := s.repos.Recipes().List(txCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to list recipes: %w", err)
		}
		for _, r := range recipes {
			if r.HasAddonGroup(id) {
				r.AddonGroupIDs = withoutID(r.AddonGroupIDs, id)
				if err := s.repos.Recipes().Update(txCtx, r); err != nil {
					return fmt.Errorf("failed to update recipe: %w", err)
				}
			}
		}

		if err := s.repos.AddonGroups().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete addon group: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishCatalog("addon_group", id, nil)
	return nil
}

// ListAddonGroups retrieves all addon groups
func (s *catalogService) ListAddonGroups(ctx context.Context) ([]*models.AddonGroup, error) {
	groups, err := s.repos.AddonGroups().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list addon groups: %w", err)
	}
	return groups, nil
}

// checkRecipe validates a recipe and its ingredients against the catalog
func (s *catalogService) checkRecipe(ctx context.Context, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	ids := make([]int64, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		ids[i] = ing.ProductID
	}

	products, err := s.repos.Products().GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return preconditionf(ErrInvalidIngredient, "product %d does not exist", id)
		}
		if !p.IsRawMaterial {
			return preconditionf(ErrInvalidIngredient, "product %q is not a raw material", p.Name)
		}
	}

	return s.checkAddonGroups(ctx, recipe.AddonGroupIDs)
}

func (s *catalogService) checkAddonGroups(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	groups, err := s.repos.AddonGroups().GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load addon groups: %w", err)
	}
	for _, id := range ids {
		if _, ok := groups[id]; !ok {
			return fmt.Errorf("validation failed: addon group %d does not exist", id)
		}
	}
	return nil
}

func (s *catalogService) checkAddons(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	addons, err := s.repos.Addons().GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load addons: %w", err)
	}
	for _, id := range ids {
		if _, ok := addons[id]; !ok {
			return fmt.Errorf("validation failed: addon %d does not exist", id)
		}
	}
	return nil
}

func (s *catalogService) validateRequest(req interface{}, entity string) error {
	if isNilRequest(req) {
		return fmt.Errorf("%s request cannot be nil", entity)
	}
	if err := s.validator.Struct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func (s *catalogService) publishCatalog(entity string, id int64, data interface{}) {
	s.logger.WithFields(logrus.Fields{
		"entity": entity,
		"id":     id,
	}).Debug("Catalog changed")
	s.publisher.Publish(events.New(events.CatalogChanged, entity, id, data))
}

func applyProductRequest(product *models.Product, req *ProductRequest) {
	product.WholesalePrice = req.WholesalePrice
	product.IsRawMaterial = req.IsRawMaterial
	product.LowStockThreshold = req.LowStockThreshold
	product.Barcode = req.Barcode
	product.CategoryID = req.CategoryID
	product.AddonGroupIDs = nonNilIDs(req.AddonGroupIDs)
}

func isNilRequest(req interface{}) bool {
	switch r := req.(type) {
	case nil:
		return true
	case *ProductRequest:
		return r == nil
	case *RecipeRequest:
		return r == nil
	case *AddonRequest:
		return r == nil
	case *AddonGroupRequest:
		return r == nil
	}
	return false
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func withoutID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
