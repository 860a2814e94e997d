package services

import (
	"testing"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

func TestAddToCart_LinesAreNotMerged(t *testing.T) {
	env := setupTestEnv(t)
	cola := env.createProduct(t, "Cola", 10, 6, 10)

	env.addToCart(t, models.ItemTypeProduct, cola.ID, 1)
	cart := env.addToCart(t, models.ItemTypeProduct, cola.ID, 2)

	if len(cart.Items) != 2 {
		t.Fatalf("Expected two separate lines, got %d", len(cart.Items))
	}
	if cart.Items[0].CartItemID == cart.Items[1].CartItemID {
		t.Error("Expected distinct cart item ids")
	}
	if cart.Items[0].UnitPrice != 10 || cart.Items[0].UnitCost != 6 {
		t.Errorf("Expected frozen price 10 and cost 6, got %.2f / %.2f", cart.Items[0].UnitPrice, cart.Items[0].UnitCost)
	}
}

func TestAddToCart_Rejections(t *testing.T) {
	env := setupTestEnv(t)
	flour := env.createRawMaterial(t, "Flour", 2, 10)
	cola := env.createProduct(t, "Cola", 10, 6, 10)

	_, err := env.services.Cart.AddToCart(env.ctx, env.actor.UserID, &AddItemRequest{Type: models.ItemTypeProduct, ItemID: flour.ID, Quantity: 1})
	expectPrecondition(t, err, ErrNotSellable)

	_, err = env.services.Cart.AddToCart(env.ctx, env.actor.UserID, &AddItemRequest{Type: models.ItemTypeProduct, ItemID: 999, Quantity: 1})
	if !repositories.IsNotFound(err) {
		t.Errorf("Expected not found for missing product, got %v", err)
	}

	_, err = env.services.Cart.AddToCart(env.ctx, env.actor.UserID, &AddItemRequest{Type: models.ItemTypeProduct, ItemID: cola.ID, Quantity: 0.5})
	if err == nil {
		t.Error("Expected validation error for quantity below one")
	}

	if !env.services.Cart.GetCart(env.actor.UserID).IsEmpty() {
		t.Error("Expected cart to stay empty")
	}
}

func TestUpdateCartItem(t *testing.T) {
	env := setupTestEnv(t)
	cola := env.createProduct(t, "Cola", 10, 6, 10)
	cart := env.addToCart(t, models.ItemTypeProduct, cola.ID, 1)
	id := cart.Items[0].CartItemID

	notes := "no ice"
	cart, err := env.services.Cart.UpdateCartItem(env.ctx, env.actor.UserID, id, &UpdateItemRequest{Quantity: 4, Notes: &notes})
	if err != nil {
		t.Fatalf("UpdateCartItem() failed: %v", err)
	}
	if cart.Items[0].Quantity != 4 || cart.Items[0].Notes != notes {
		t.Errorf("Unexpected line after update: %+v", cart.Items[0])
	}

	cart, err = env.services.Cart.UpdateCartItem(env.ctx, env.actor.UserID, id, &UpdateItemRequest{Quantity: 0})
	if err != nil {
		t.Fatalf("UpdateCartItem(0) failed: %v", err)
	}
	if !cart.IsEmpty() {
		t.Error("Expected quantity below one to remove the line")
	}

	if _, err := env.services.Cart.UpdateCartItem(env.ctx, env.actor.UserID, "missing", &UpdateItemRequest{Quantity: 2}); !repositories.IsNotFound(err) {
		t.Errorf("Expected not found for unknown line, got %v", err)
	}
}

func TestCart_IsolatedPerUser(t *testing.T) {
	env := setupTestEnv(t)
	cola := env.createProduct(t, "Cola", 10, 6, 10)
	env.addToCart(t, models.ItemTypeProduct, cola.ID, 1)

	if !env.services.Cart.GetCart(2).IsEmpty() {
		t.Error("Expected other user's cart to be empty")
	}

	snapshot := env.services.Cart.GetCart(env.actor.UserID)
	snapshot.Items[0].Quantity = 99
	if env.services.Cart.GetCart(env.actor.UserID).Items[0].Quantity != 1 {
		t.Error("Expected GetCart to return a copy")
	}

	env.services.Cart.ClearCart(env.actor.UserID)
	if !env.services.Cart.GetCart(env.actor.UserID).IsEmpty() {
		t.Error("Expected cart to be cleared")
	}
}

func TestCart_ClearSoldKeepsLaterLines(t *testing.T) {
	env := setupTestEnv(t)
	cola := env.createProduct(t, "Cola", 10, 6, 10)
	tea := env.createProduct(t, "Tea", 4, 1, 10)
	customer := env.createCustomer(t, "Ivo")

	env.addToCart(t, models.ItemTypeProduct, cola.ID, 1)
	if _, err := env.services.Cart.SetCheckout(env.actor.UserID, models.CheckoutState{CustomerID: &customer.ID}); err != nil {
		t.Fatalf("SetCheckout() failed: %v", err)
	}
	sold := env.services.Cart.GetCart(env.actor.UserID)

	// Added while the sale was being committed
	env.addToCart(t, models.ItemTypeProduct, tea.ID, 2)

	env.services.Cart.ClearSold(env.actor.UserID, sold.Items)

	cart := env.services.Cart.GetCart(env.actor.UserID)
	if len(cart.Items) != 1 || cart.Items[0].ItemID != tea.ID {
		t.Fatalf("Expected only the later tea line to remain, got %+v", cart.Items)
	}
	if cart.Checkout.CustomerID != nil {
		t.Error("Expected checkout state reset after the sale")
	}

	env.services.Cart.ClearSold(999, sold.Items)
}

func TestCart_WholesalePricing(t *testing.T) {
	env := setupTestEnv(t)
	wholesale := 7.0
	crate, err := env.services.Catalog.CreateProduct(env.ctx, &ProductRequest{Name: "Crate", Price: 10, Cost: 5, Stock: 20, WholesalePrice: &wholesale})
	if err != nil {
		t.Fatalf("CreateProduct() failed: %v", err)
	}

	if _, err := env.services.Cart.SetCheckout(env.actor.UserID, models.CheckoutState{Wholesale: true}); err != nil {
		t.Fatalf("SetCheckout() failed: %v", err)
	}
	cart := env.addToCart(t, models.ItemTypeProduct, crate.ID, 1)
	if cart.Items[0].UnitPrice != 7 {
		t.Errorf("Expected wholesale price 7, got %.2f", cart.Items[0].UnitPrice)
	}

	cart, err = env.services.Cart.SetCheckout(env.actor.UserID, models.CheckoutState{Wholesale: false})
	if err != nil {
		t.Fatalf("SetCheckout() failed: %v", err)
	}
	if cart.Items[0].UnitPrice != 7 {
		t.Error("Expected toggling wholesale not to reprice existing lines")
	}

	cart = env.addToCart(t, models.ItemTypeProduct, crate.ID, 1)
	if cart.Items[1].UnitPrice != 10 {
		t.Errorf("Expected retail price 10 for new line, got %.2f", cart.Items[1].UnitPrice)
	}
}

func TestCart_AddonSelection(t *testing.T) {
	env := setupTestEnv(t)
	cheese, err := env.services.Catalog.CreateAddon(env.ctx, &AddonRequest{Name: "Cheese", Price: 5})
	if err != nil {
		t.Fatalf("CreateAddon() failed: %v", err)
	}
	bacon, err := env.services.Catalog.CreateAddon(env.ctx, &AddonRequest{Name: "Bacon", Price: 7.5})
	if err != nil {
		t.Fatalf("CreateAddon() failed: %v", err)
	}
	sauce, err := env.services.Catalog.CreateAddon(env.ctx, &AddonRequest{Name: "Sauce", Price: 1})
	if err != nil {
		t.Fatalf("CreateAddon() failed: %v", err)
	}
	toppings, err := env.services.Catalog.CreateAddonGroup(env.ctx, &AddonGroupRequest{
		Name:          "Topping",
		SelectionType: models.SelectionSingle,
		AddonIDs:      []int64{cheese.ID, bacon.ID},
	})
	if err != nil {
		t.Fatalf("CreateAddonGroup() failed: %v", err)
	}

	burger, err := env.services.Catalog.CreateProduct(env.ctx, &ProductRequest{
		Name: "Burger", Price: 40, Cost: 20, Stock: 10, AddonGroupIDs: []int64{toppings.ID},
	})
	if err != nil {
		t.Fatalf("CreateProduct() failed: %v", err)
	}

	tests := []struct {
		name     string
		addonIDs []int64
	}{
		{"two picks in a single-select group", []int64{cheese.ID, bacon.ID}},
		{"addon outside the item's groups", []int64{sauce.ID}},
		{"unknown addon", []int64{9999}},
		{"duplicate pick", []int64{cheese.ID, cheese.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.services.Cart.AddToCart(env.ctx, env.actor.UserID, &AddItemRequest{
				Type: models.ItemTypeProduct, ItemID: burger.ID, Quantity: 1, AddonIDs: tt.addonIDs,
			})
			expectPrecondition(t, err, ErrInvalidAddonSelection)
		})
	}

	cart, err := env.services.Cart.AddToCart(env.ctx, env.actor.UserID, &AddItemRequest{
		Type: models.ItemTypeProduct, ItemID: burger.ID, Quantity: 2, AddonIDs: []int64{bacon.ID},
	})
	if err != nil {
		t.Fatalf("AddToCart() failed: %v", err)
	}
	if got := cart.Items[0].LineTotal(); got != 95 {
		t.Errorf("Expected line total 95, got %.2f", got)
	}

	swap := []int64{cheese.ID}
	cart, err = env.services.Cart.UpdateCartItem(env.ctx, env.actor.UserID, cart.Items[0].CartItemID, &UpdateItemRequest{Quantity: 2, AddonIDs: &swap})
	if err != nil {
		t.Fatalf("UpdateCartItem() failed: %v", err)
	}
	if got := cart.Items[0].LineTotal(); got != 90 {
		t.Errorf("Expected line total 90 after swapping addons, got %.2f", got)
	}
}

func TestSetCheckout_Validation(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.services.Cart.SetCheckout(env.actor.UserID, models.CheckoutState{
		Discount: models.Discount{Type: models.DiscountPercentage, Value: 120},
	}); err == nil {
		t.Error("Expected error for percentage above 100")
	}

	if _, err := env.services.Cart.SetCheckout(env.actor.UserID, models.CheckoutState{DeliveryFee: -1}); err == nil {
		t.Error("Expected error for negative delivery fee")
	}

	cart, err := env.services.Cart.SetCheckout(env.actor.UserID, models.CheckoutState{})
	if err != nil {
		t.Fatalf("SetCheckout() failed: %v", err)
	}
	if cart.Checkout.Discount.Type != models.DiscountNone {
		t.Errorf("Expected discount type to default to none, got %q", cart.Checkout.Discount.Type)
	}
}
