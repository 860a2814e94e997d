package models

import (
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

// TestProductPricing tests wholesale selection and sellability
func TestProductPricing(t *testing.T) {
	product := NewProduct("Cola", 10, 6, "can")
	if err := product.Validate(); err != nil {
		t.Fatalf("Product validation failed: %v", err)
	}

	if product.PriceFor(true) != 10 {
		t.Errorf("Expected retail price when no wholesale price is set, got %.2f", product.PriceFor(true))
	}

	product.WholesalePrice = floatPtr(8)
	if product.PriceFor(true) != 8 {
		t.Errorf("Expected wholesale price 8, got %.2f", product.PriceFor(true))
	}
	if product.PriceFor(false) != 10 {
		t.Errorf("Expected retail price 10, got %.2f", product.PriceFor(false))
	}

	flour := NewRawMaterial("Flour", 2, "kg")
	if flour.IsSellable() {
		t.Error("Raw material should not be sellable")
	}
}

func TestProductValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Product)
		wantErr bool
	}{
		{"valid", func(p *Product) {}, false},
		{"empty name", func(p *Product) { p.Name = "  " }, true},
		{"negative price", func(p *Product) { p.Price = -1 }, true},
		{"negative cost", func(p *Product) { p.Cost = -1 }, true},
		{"negative wholesale", func(p *Product) { p.WholesalePrice = floatPtr(-2) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProduct("Tea", 5, 1, "cup")
			tt.mutate(p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductLowStock(t *testing.T) {
	p := NewProduct("Milk", 3, 2, "l")
	p.Stock = 5
	if p.IsLowStock() {
		t.Error("Product without threshold should never be low stock")
	}
	p.LowStockThreshold = floatPtr(5)
	if !p.IsLowStock() {
		t.Error("Expected low stock at threshold")
	}
}

func TestRecipeValidationAndCost(t *testing.T) {
	recipe := NewRecipe("Pizza", 50,
		Ingredient{ProductID: 1, Quantity: 0.2},
		Ingredient{ProductID: 2, Quantity: 0.1},
	)
	if err := recipe.Validate(); err != nil {
		t.Fatalf("Recipe validation failed: %v", err)
	}

	cost := recipe.UnitCost(map[int64]float64{1: 10, 2: 40})
	if !MoneyEqual(cost, 6, 1e-9) {
		t.Errorf("Expected unit cost 6, got %f", cost)
	}

	// Dangling ingredient contributes nothing
	cost = recipe.UnitCost(map[int64]float64{1: 10})
	if !MoneyEqual(cost, 2, 1e-9) {
		t.Errorf("Expected unit cost 2 with missing ingredient, got %f", cost)
	}

	if !recipe.UsesProduct(2) || recipe.UsesProduct(3) {
		t.Error("UsesProduct returned wrong result")
	}

	dup := NewRecipe("Dup", 1, Ingredient{ProductID: 1, Quantity: 1}, Ingredient{ProductID: 1, Quantity: 2})
	if err := dup.Validate(); err == nil {
		t.Error("Expected error for duplicated ingredient")
	}

	zero := NewRecipe("Zero", 1, Ingredient{ProductID: 1, Quantity: 0})
	if err := zero.Validate(); err == nil {
		t.Error("Expected error for zero ingredient quantity")
	}
}

func TestCartItemLineTotal(t *testing.T) {
	item := NewCartItem(ItemTypeProduct, 1, "Burger", 40, 20, 2)
	item.SelectedAddons = []Addon{{ID: 1, Name: "Cheese", Price: 5}, {ID: 2, Name: "Bacon", Price: 7.5}}

	if got := item.LineTotal(); got != 105 {
		t.Errorf("Expected line total 105, got %.2f", got)
	}

	if item.CartItemID == "" {
		t.Error("Expected cart item id to be generated")
	}
}

func TestCartItemCloneIsDeep(t *testing.T) {
	items := []CartItem{*NewCartItem(ItemTypeProduct, 1, "Tea", 5, 1, 1)}
	items[0].SelectedAddons = append(items[0].SelectedAddons, Addon{ID: 1, Name: "Sugar", Price: 0.5})

	snapshot := CloneCartItems(items)
	items[0].SelectedAddons[0].Price = 99
	items[0].Quantity = 10

	if snapshot[0].SelectedAddons[0].Price != 0.5 {
		t.Error("Snapshot addon was mutated through the cart")
	}
	if snapshot[0].Quantity != 1 {
		t.Error("Snapshot quantity was mutated through the cart")
	}
}

func TestSaleValidation(t *testing.T) {
	customerID := int64(3)
	base := func() *Sale {
		return &Sale{
			Items:  []CartItem{*NewCartItem(ItemTypeProduct, 1, "Tea", 5, 1, 1)},
			Status: SaleCompleted,
			UserID: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Sale)
		wantErr bool
	}{
		{"valid", func(s *Sale) {}, false},
		{"no items", func(s *Sale) { s.Items = nil }, true},
		{"bad status", func(s *Sale) { s.Status = "pending" }, true},
		{"no user", func(s *Sale) { s.UserID = 0 }, true},
		{"credit without customer", func(s *Sale) { s.PaymentDetails.Credit = 5 }, true},
		{"credit with customer", func(s *Sale) { s.PaymentDetails.Credit = 5; s.CustomerID = &customerID }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaleTaxableAmountClampsAtZero(t *testing.T) {
	s := &Sale{SubTotal: 10, DiscountAmount: 8, LoyaltyDiscount: 5}
	if s.TaxableAmount() != 0 {
		t.Errorf("Expected taxable amount 0, got %.2f", s.TaxableAmount())
	}
}

func TestDiscountLabel(t *testing.T) {
	tests := []struct {
		discount Discount
		want     string
	}{
		{Discount{Type: DiscountPercentage, Value: 10}, "10.00%"},
		{Discount{Type: DiscountFixed, Value: 5}, "5.00"},
		{Discount{Type: DiscountNone}, ""},
	}
	for _, tt := range tests {
		if got := tt.discount.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestShiftClose(t *testing.T) {
	shift := NewShift(1, "Alice", 100)
	if err := shift.Validate(); err != nil {
		t.Fatalf("Shift validation failed: %v", err)
	}

	shift.Close(180, ShiftTotals{CashSales: 120, CardSales: 50, TotalSales: 170, TotalExpenses: 30}, time.Now())

	if shift.Status != ShiftClosed || shift.EndTime == nil {
		t.Fatal("Expected shift to be closed with an end time")
	}
	if shift.ExpectedCash != 190 {
		t.Errorf("Expected cash 190, got %.2f", shift.ExpectedCash)
	}
	if shift.Difference != -10 {
		t.Errorf("Expected difference -10, got %.2f", shift.Difference)
	}
	if err := shift.Validate(); err != nil {
		t.Errorf("Closed shift validation failed: %v", err)
	}
}

func TestExpenseValidation(t *testing.T) {
	if err := NewExpense(1, "Ice", 12).Validate(); err != nil {
		t.Errorf("Expected valid expense, got %v", err)
	}
	if err := NewExpense(1, "Ice", 0).Validate(); err == nil {
		t.Error("Expected error for zero amount")
	}
	if err := NewExpense(0, "Ice", 3).Validate(); err == nil {
		t.Error("Expected error for missing shift")
	}
}

func TestPurchaseInvoiceTotal(t *testing.T) {
	inv := NewPurchaseInvoice(1, []PurchaseItem{
		{ProductID: 1, Quantity: 10, Cost: 2.5},
		{ProductID: 2, Quantity: 4, Cost: 10},
	})
	if inv.Total != 65 {
		t.Errorf("Expected total 65, got %.2f", inv.Total)
	}
	if err := inv.Validate(); err != nil {
		t.Errorf("Expected valid invoice, got %v", err)
	}
}

func TestUserPermissions(t *testing.T) {
	cashier := NewUser("Bob", RoleCashier)
	if !cashier.Can(PermSell) {
		t.Error("Cashier should be able to sell")
	}
	if cashier.Can(PermManageUsers) {
		t.Error("Cashier should not manage users")
	}

	admin := NewUser("Root", RoleAdmin)
	if !admin.Can(PermBackup) {
		t.Error("Admin should hold every permission")
	}
}

func TestIsValidPIN(t *testing.T) {
	tests := map[string]bool{
		"1234":      true,
		"12345678":  true,
		"123":       false,
		"123456789": false,
		"12a4":      false,
	}
	for pin, want := range tests {
		if got := IsValidPIN(pin); got != want {
			t.Errorf("IsValidPIN(%q) = %v, want %v", pin, got, want)
		}
	}
}

func TestMoneyHelpers(t *testing.T) {
	if RoundMoney(2.675) != 2.68 {
		t.Errorf("RoundMoney(2.675) = %v", RoundMoney(2.675))
	}
	if !MoneyCovers(99.9995, 100) {
		t.Error("Expected payment within tolerance to cover total")
	}
	if MoneyCovers(99.99, 100) {
		t.Error("Expected short payment not to cover total")
	}
	if !MoneyEqual(0.1+0.2, 0.3, DecompositionTolerance) {
		t.Error("Expected float drift within tolerance")
	}
}

func TestShopInfoValidation(t *testing.T) {
	shop := NewShopInfo("Corner Cafe")
	if err := shop.Validate(); err != nil {
		t.Fatalf("Expected valid shop info, got %v", err)
	}
	shop.TaxRate = 120
	if err := shop.Validate(); err == nil {
		t.Error("Expected error for tax rate above 100")
	}
}
