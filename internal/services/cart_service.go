package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// cartService implements the CartService interface. Carts live in memory and
// are keyed by user ID.
type cartService struct {
	repos     repositories.Repositories
	logger    *logrus.Logger
	validator *validator.Validate

	mu    sync.Mutex
	carts map[int64]*models.Cart
}

// NewCartService creates a new cart service instance
func NewCartService(repos repositories.Repositories, logger *logrus.Logger) CartService {
	if logger == nil {
		logger = logrus.New()
	}
	return &cartService{
		repos:     repos,
		logger:    logger,
		validator: validator.New(),
		carts:     make(map[int64]*models.Cart),
	}
}

// AddToCart resolves a catalog item and appends it as a new line. Price and
// cost are frozen at this point.
func (s *cartService) AddToCart(ctx context.Context, userID int64, req *AddItemRequest) (*models.Cart, error) {
	if req == nil {
		return nil, fmt.Errorf("add item request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	wholesale := s.cartLocked(userID).Checkout.Wholesale
	s.mu.Unlock()

	item, groupIDs, err := s.resolveItem(ctx, req.Type, req.ItemID, req.Quantity, wholesale)
	if err != nil {
		return nil, err
	}

	addons, err := s.resolveAddons(ctx, groupIDs, req.AddonIDs)
	if err != nil {
		return nil, err
	}
	item.SelectedAddons = addons
	item.Notes = req.Notes

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	cart.Items = append(cart.Items, *item)

	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"cart_item_id": item.CartItemID,
		"type":         item.Type,
		"item_id":      item.ItemID,
	}).Debug("Item added to cart")

	snapshot := cart.Snapshot()
	return &snapshot, nil
}

// UpdateCartItem changes quantity, notes or addons of a line. A quantity
// below one removes the line.
func (s *cartService) UpdateCartItem(ctx context.Context, userID int64, cartItemID string, req *UpdateItemRequest) (*models.Cart, error) {
	if req == nil {
		return nil, fmt.Errorf("update item request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.Quantity < 1 {
		return s.RemoveFromCart(userID, cartItemID), nil
	}

	var addons []models.Addon
	if req.AddonIDs != nil {
		s.mu.Lock()
		line, ok := findLine(s.cartLocked(userID), cartItemID)
		var itemType models.ItemType
		var itemID int64
		if ok {
			itemType, itemID = line.Type, line.ItemID
		}
		s.mu.Unlock()

		if !ok {
			return nil, repositories.NotFoundByError("cart item", "cart_item_id", cartItemID)
		}

		groupIDs, err := s.itemGroups(ctx, itemType, itemID)
		if err != nil {
			return nil, err
		}
		addons, err = s.resolveAddons(ctx, groupIDs, *req.AddonIDs)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	line, ok := findLine(cart, cartItemID)
	if !ok {
		return nil, repositories.NotFoundByError("cart item", "cart_item_id", cartItemID)
	}

	line.Quantity = req.Quantity
	if req.Notes != nil {
		line.Notes = *req.Notes
	}
	if req.AddonIDs != nil {
		line.SelectedAddons = addons
	}

	snapshot := cart.Snapshot()
	return &snapshot, nil
}

// RemoveFromCart drops a line. Unknown ids are ignored.
func (s *cartService) RemoveFromCart(userID int64, cartItemID string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.CartItemID != cartItemID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	snapshot := cart.Snapshot()
	return &snapshot
}

// ClearSold removes the lines of a sold snapshot and resets the checkout
// state. Lines added after the snapshot was taken stay in the cart.
func (s *cartService) ClearSold(userID int64, sold []models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return
	}

	soldIDs := make(map[string]struct{}, len(sold))
	for _, item := range sold {
		soldIDs[item.CartItemID] = struct{}{}
	}

	kept := []models.CartItem{}
	for _, item := range cart.Items {
		if _, ok := soldIDs[item.CartItemID]; !ok {
			kept = append(kept, item)
		}
	}

	cart.Reset()
	cart.Items = kept
}

// ClearCart removes every line and resets the checkout state
func (s *cartService) ClearCart(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart, ok := s.carts[userID]; ok {
		cart.Reset()
	}
}

// GetCart returns a copy of the user's cart
func (s *cartService) GetCart(userID int64) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.cartLocked(userID).Snapshot()
	return &snapshot
}

// SetCheckout replaces the checkout state. Toggling wholesale does not reprice
// lines already in the cart.
func (s *cartService) SetCheckout(userID int64, state models.CheckoutState) (*models.Cart, error) {
	if err := s.validator.Struct(state); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if state.Discount.Type == "" {
		state.Discount.Type = models.DiscountNone
	}
	if state.Discount.Type == models.DiscountPercentage && state.Discount.Value > 100 {
		return nil, fmt.Errorf("validation failed: percentage discount cannot exceed 100")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	cart.Checkout = state

	snapshot := cart.Snapshot()
	return &snapshot, nil
}

// cartLocked returns the user's cart, creating it. Callers hold s.mu.
func (s *cartService) cartLocked(userID int64) *models.Cart {
	cart, ok := s.carts[userID]
	if !ok {
		cart = models.NewCart(userID)
		s.carts[userID] = cart
	}
	return cart
}

func findLine(cart *models.Cart, cartItemID string) (*models.CartItem, bool) {
	for i := range cart.Items {
		if cart.Items[i].CartItemID == cartItemID {
			return &cart.Items[i], true
		}
	}
	return nil, false
}

// resolveItem builds a cart line from the catalog and returns the addon groups
// the item allows
func (s *cartService) resolveItem(ctx context.Context, itemType models.ItemType, itemID int64, quantity float64, wholesale bool) (*models.CartItem, []int64, error) {
	switch itemType {
	case models.ItemTypeProduct:
		product, err := s.repos.Products().GetByID(ctx, itemID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get product: %w", err)
		}
		if !product.IsSellable() {
			return nil, nil, preconditionf(ErrNotSellable, "product %d", itemID)
		}
		item := models.NewCartItem(itemType, product.ID, product.Name, product.PriceFor(wholesale), product.Cost, quantity)
		return item, product.AddonGroupIDs, nil

	case models.ItemTypeRecipe:
		recipe, err := s.repos.Recipes().GetByID(ctx, itemID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get recipe: %w", err)
		}
		cost, err := recipeCost(ctx, s.repos.Products(), recipe)
		if err != nil {
			return nil, nil, err
		}
		item := models.NewCartItem(itemType, recipe.ID, recipe.Name, recipe.Price, cost, quantity)
		return item, recipe.AddonGroupIDs, nil

	default:
		return nil, nil, fmt.Errorf("validation failed: invalid item type: %s", itemType)
	}
}

func (s *cartService) itemGroups(ctx context.Context, itemType models.ItemType, itemID int64) ([]int64, error) {
	if itemType == models.ItemTypeRecipe {
		recipe, err := s.repos.Recipes().GetByID(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get recipe: %w", err)
		}
		return recipe.AddonGroupIDs, nil
	}
	product, err := s.repos.Products().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product.AddonGroupIDs, nil
}

// resolveAddons checks a selection against the item's groups. Every addon
// must belong to one of them and single-select groups allow at most one.
func (s *cartService) resolveAddons(ctx context.Context, groupIDs, addonIDs []int64) ([]models.Addon, error) {
	selected := []models.Addon{}
	if len(addonIDs) == 0 {
		return selected, nil
	}

	seen := make(map[int64]bool, len(addonIDs))
	for _, id := range addonIDs {
		if seen[id] {
			return nil, preconditionf(ErrInvalidAddonSelection, "addon %d selected twice", id)
		}
		seen[id] = true
	}

	groups, err := s.repos.AddonGroups().GetByIDs(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load addon groups: %w", err)
	}

	addons, err := s.repos.Addons().GetByIDs(ctx, addonIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load addons: %w", err)
	}

	perGroup := make(map[int64]int)
	for _, id := range addonIDs {
		addon, ok := addons[id]
		if !ok {
			return nil, preconditionf(ErrInvalidAddonSelection, "addon %d does not exist", id)
		}

		var group *models.AddonGroup
		for _, gid := range groupIDs {
			if g, ok := groups[gid]; ok && g.Contains(id) {
				group = g
				break
			}
		}
		if group == nil {
			return nil, preconditionf(ErrInvalidAddonSelection, "addon %d is not offered for this item", id)
		}

		perGroup[group.ID]++
		if group.SelectionType == models.SelectionSingle && perGroup[group.ID] > 1 {
			return nil, preconditionf(ErrInvalidAddonSelection, "group %q allows a single choice", group.Name)
		}

		selected = append(selected, *addon)
	}

	return selected, nil
}

// recipeCost sums ingredient cost. Ingredients whose product is gone cost nothing.
func recipeCost(ctx context.Context, products repositories.ProductRepository, recipe *models.Recipe) (float64, error) {
	ids := make([]int64, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		ids = append(ids, ing.ProductID)
	}

	found, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load ingredients: %w", err)
	}

	costs := make(map[int64]float64, len(found))
	for id, p := range found {
		costs[id] = p.Cost
	}
	return recipe.UnitCost(costs), nil
}
