package models

import (
	"fmt"
	"strings"
	"time"
)

// ItemType identifies what a cart line or sale line refers to
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeRecipe  ItemType = "recipe"
)

// SelectionType is the selection policy of an addon group
type SelectionType string

const (
	SelectionSingle   SelectionType = "single"
	SelectionMultiple SelectionType = "multiple"
)

// Product represents a stock item. Raw materials are only consumed through recipes.
type Product struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Price             float64   `json:"price" db:"price" validate:"gte=0"`
	WholesalePrice    *float64  `json:"wholesale_price,omitempty" db:"wholesale_price" validate:"omitempty,gte=0"`
	Cost              float64   `json:"cost" db:"cost" validate:"gte=0"`
	Stock             float64   `json:"stock" db:"stock"`
	Unit              string    `json:"unit" db:"unit"`
	IsRawMaterial     bool      `json:"is_raw_material" db:"is_raw_material"`
	LowStockThreshold *float64  `json:"low_stock_threshold,omitempty" db:"low_stock_threshold"`
	Barcode           *string   `json:"barcode,omitempty" db:"barcode"`
	CategoryID        *int64    `json:"category_id,omitempty" db:"category_id"`
	AddonGroupIDs     []int64   `json:"addon_group_ids" db:"addon_group_ids"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// NewProduct creates a new sellable product with timestamps
func NewProduct(name string, price, cost float64, unit string) *Product {
	now := time.Now()
	return &Product{
		Name:          name,
		Price:         price,
		Cost:          cost,
		Unit:          unit,
		AddonGroupIDs: []int64{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewRawMaterial creates a product that can only be consumed by recipes
func NewRawMaterial(name string, cost float64, unit string) *Product {
	p := NewProduct(name, 0, cost, unit)
	p.IsRawMaterial = true
	return p
}

// Validate validates the product data
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}

	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}

	if p.Cost < 0 {
		return fmt.Errorf("cost cannot be negative")
	}

	if p.WholesalePrice != nil && *p.WholesalePrice < 0 {
		return fmt.Errorf("wholesale price cannot be negative")
	}

	if p.LowStockThreshold != nil && *p.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold cannot be negative")
	}

	if p.Barcode != nil && strings.TrimSpace(*p.Barcode) == "" {
		p.Barcode = nil
	}

	return nil
}

// IsSellable returns true if the product can be added to a cart directly
func (p *Product) IsSellable() bool {
	return !p.IsRawMaterial
}

// PriceFor returns the unit price to freeze on a cart line
func (p *Product) PriceFor(wholesale bool) float64 {
	if wholesale && p.WholesalePrice != nil {
		return *p.WholesalePrice
	}
	return p.Price
}

// IsLowStock returns true if stock is at or below the configured threshold
func (p *Product) IsLowStock() bool {
	return p.LowStockThreshold != nil && p.Stock <= *p.LowStockThreshold
}

// HasAddonGroup returns true if the product offers the given addon group
func (p *Product) HasAddonGroup(groupID int64) bool {
	return containsID(p.AddonGroupIDs, groupID)
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (p *Product) UpdateTimestamp() {
	p.UpdatedAt = time.Now()
}

// Ingredient is the quantity of a raw material consumed per unit of a recipe
type Ingredient struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
}

// Recipe represents a sellable item made of raw materials
type Recipe struct {
	ID            int64        `json:"id" db:"id"`
	Name          string       `json:"name" db:"name" validate:"required,min=1,max=255"`
	Price         float64      `json:"price" db:"price" validate:"gte=0"`
	CategoryID    *int64       `json:"category_id,omitempty" db:"category_id"`
	Ingredients   []Ingredient `json:"ingredients" db:"ingredients" validate:"dive"`
	AddonGroupIDs []int64      `json:"addon_group_ids" db:"addon_group_ids"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// NewRecipe creates a new recipe with timestamps
func NewRecipe(name string, price float64, ingredients ...Ingredient) *Recipe {
	now := time.Now()
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	return &Recipe{
		Name:          name,
		Price:         price,
		Ingredients:   ingredients,
		AddonGroupIDs: []int64{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate validates the recipe data. Ingredient products are checked by the catalog.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe name is required")
	}

	if r.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}

	seen := make(map[int64]bool, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		if ing.ProductID <= 0 {
			return fmt.Errorf("ingredient %d: product ID is required", i+1)
		}
		if ing.Quantity <= 0 {
			return fmt.Errorf("ingredient %d: quantity must be positive", i+1)
		}
		if seen[ing.ProductID] {
			return fmt.Errorf("ingredient %d: product %d listed twice", i+1, ing.ProductID)
		}
		seen[ing.ProductID] = true
	}

	return nil
}

// UsesProduct returns true if the recipe consumes the given product
func (r *Recipe) UsesProduct(productID int64) bool {
	for _, ing := range r.Ingredients {
		if ing.ProductID == productID {
			return true
		}
	}
	return false
}

// UnitCost sums ingredient costs. Ingredients missing from costs contribute nothing.
func (r *Recipe) UnitCost(costs map[int64]float64) float64 {
	var total float64
	for _, ing := range r.Ingredients {
		total += costs[ing.ProductID] * ing.Quantity
	}
	return total
}

// HasAddonGroup returns true if the recipe offers the given addon group
func (r *Recipe) HasAddonGroup(groupID int64) bool {
	return containsID(r.AddonGroupIDs, groupID)
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (r *Recipe) UpdateTimestamp() {
	r.UpdatedAt = time.Now()
}

// Category groups products and recipes for display
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,min=1,max=100"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewCategory creates a new category
func NewCategory(name string) *Category {
	return &Category{Name: name, CreatedAt: time.Now()}
}

// Validate validates the category data
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("category name cannot exceed 100 characters")
	}
	return nil
}

// Addon is a named price delta selectable on a cart line
type Addon struct {
	ID    int64   `json:"id" db:"id"`
	Name  string  `json:"name" db:"name" validate:"required"`
	Price float64 `json:"price" db:"price" validate:"gte=0"`
}

// Validate validates the addon data
func (a *Addon) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("addon name is required")
	}
	if a.Price < 0 {
		return fmt.Errorf("addon price cannot be negative")
	}
	return nil
}

// AddonGroup bundles addons under a selection policy
type AddonGroup struct {
	ID            int64         `json:"id" db:"id"`
	Name          string        `json:"name" db:"name" validate:"required"`
	SelectionType SelectionType `json:"selection_type" db:"selection_type" validate:"required,oneof=single multiple"`
	AddonIDs      []int64       `json:"addon_ids" db:"addon_ids"`
}

// Validate validates the addon group data
func (g *AddonGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("addon group name is required")
	}
	if g.SelectionType != SelectionSingle && g.SelectionType != SelectionMultiple {
		return fmt.Errorf("invalid selection type: %s", g.SelectionType)
	}
	return nil
}

// Contains returns true if the addon belongs to the group
func (g *AddonGroup) Contains(addonID int64) bool {
	return containsID(g.AddonIDs, addonID)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
