package services

import (
	"reflect"
	"testing"

	"pos-engine/internal/models"
)

func line(price, qty float64, addons ...float64) models.CartItem {
	item := models.NewCartItem(models.ItemTypeProduct, 1, "Item", price, price/2, qty)
	for i, p := range addons {
		item.SelectedAddons = append(item.SelectedAddons, models.Addon{ID: int64(i + 1), Name: "Addon", Price: p})
	}
	return *item
}

func TestCalculatePricing_FlatSale(t *testing.T) {
	out := CalculatePricing(PricingInput{Items: []models.CartItem{line(10, 2)}})

	if out.SubTotal != 20 {
		t.Errorf("Expected subtotal 20, got %.2f", out.SubTotal)
	}
	if out.TotalAmount != 20 {
		t.Errorf("Expected total 20, got %.2f", out.TotalAmount)
	}
	if out.TaxAmount != 0 || out.DiscountAmount != 0 || out.PointsEarned != 0 {
		t.Errorf("Expected no tax, discount or points, got %+v", out)
	}
	if out.TotalCost != 10 {
		t.Errorf("Expected total cost 10, got %.2f", out.TotalCost)
	}
}

func TestCalculatePricing_PercentageDiscountAndTax(t *testing.T) {
	out := CalculatePricing(PricingInput{
		Items:      []models.CartItem{line(50, 2)},
		Discount:   models.Discount{Type: models.DiscountPercentage, Value: 10},
		TaxEnabled: true,
		TaxRate:    15,
	})

	if out.DiscountAmount != 10 {
		t.Errorf("Expected discount 10, got %.2f", out.DiscountAmount)
	}
	if out.TotalAfterGeneralDiscount != 90 {
		t.Errorf("Expected 90 after discount, got %.2f", out.TotalAfterGeneralDiscount)
	}
	if !approxEqual(out.TaxAmount, 13.5) {
		t.Errorf("Expected tax 13.5, got %f", out.TaxAmount)
	}
	if !approxEqual(out.TotalAmount, 103.5) {
		t.Errorf("Expected total 103.5, got %f", out.TotalAmount)
	}
	if out.DiscountLabel != "10.00%" {
		t.Errorf("Expected discount label 10.00%%, got %q", out.DiscountLabel)
	}
}

func TestCalculatePricing_Rules(t *testing.T) {
	tests := []struct {
		name      string
		in        PricingInput
		wantTotal float64
		wantTax   float64
		wantPts   int64
	}{
		{
			name:      "addons add to the unit price",
			in:        PricingInput{Items: []models.CartItem{line(40, 2, 5, 7.5)}},
			wantTotal: 105,
		},
		{
			name:      "fixed discount larger than subtotal clamps taxable at zero",
			in:        PricingInput{Items: []models.CartItem{line(10, 1)}, Discount: models.Discount{Type: models.DiscountFixed, Value: 25}, DeliveryFee: 3},
			wantTotal: 3,
		},
		{
			name:      "tax enabled with zero rate charges nothing",
			in:        PricingInput{Items: []models.CartItem{line(10, 1)}, TaxEnabled: true},
			wantTotal: 10,
		},
		{
			name:      "tax rate without enabled flag charges nothing",
			in:        PricingInput{Items: []models.CartItem{line(10, 1)}, TaxRate: 20},
			wantTotal: 10,
		},
		{
			name:      "tax applies after loyalty discount",
			in:        PricingInput{Items: []models.CartItem{line(100, 1)}, RedeemedPoints: 200, CurrencyPerPoint: 0.05, TaxEnabled: true, TaxRate: 10},
			wantTotal: 99,
			wantTax:   9,
		},
		{
			name:      "points earned on total after general discount",
			in:        PricingInput{Items: []models.CartItem{line(100, 1)}, Discount: models.Discount{Type: models.DiscountFixed, Value: 10}, LoyaltyEnabled: true, PointsPerCurrencyUnit: 1, HasCustomer: true},
			wantTotal: 90,
			wantPts:   90,
		},
		{
			name:      "no points without a customer",
			in:        PricingInput{Items: []models.CartItem{line(100, 1)}, LoyaltyEnabled: true, PointsPerCurrencyUnit: 1},
			wantTotal: 100,
		},
		{
			name:      "fractional points are floored",
			in:        PricingInput{Items: []models.CartItem{line(19.99, 1)}, LoyaltyEnabled: true, PointsPerCurrencyUnit: 0.1, HasCustomer: true},
			wantTotal: 19.99,
			wantPts:   1,
		},
		{
			name:      "delivery fee is added untaxed",
			in:        PricingInput{Items: []models.CartItem{line(20, 1)}, DeliveryFee: 5, TaxEnabled: true, TaxRate: 10},
			wantTotal: 27,
			wantTax:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CalculatePricing(tt.in)
			if !approxEqual(out.TotalAmount, tt.wantTotal) {
				t.Errorf("TotalAmount = %f, want %f", out.TotalAmount, tt.wantTotal)
			}
			if !approxEqual(out.TaxAmount, tt.wantTax) {
				t.Errorf("TaxAmount = %f, want %f", out.TaxAmount, tt.wantTax)
			}
			if out.PointsEarned != tt.wantPts {
				t.Errorf("PointsEarned = %d, want %d", out.PointsEarned, tt.wantPts)
			}
		})
	}
}

func TestCalculatePricing_Deterministic(t *testing.T) {
	in := PricingInput{
		Items:                 []models.CartItem{line(12.35, 3, 0.5), line(7.1, 1)},
		Discount:              models.Discount{Type: models.DiscountPercentage, Value: 12.5},
		RedeemedPoints:        40,
		DeliveryFee:           2.5,
		TaxEnabled:            true,
		TaxRate:               8.25,
		LoyaltyEnabled:        true,
		PointsPerCurrencyUnit: 0.75,
		CurrencyPerPoint:      0.02,
		HasCustomer:           true,
	}

	first := CalculatePricing(in)
	for i := 0; i < 10; i++ {
		if got := CalculatePricing(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestCalculatePricing_TotalDecomposition(t *testing.T) {
	discounts := []models.Discount{
		{Type: models.DiscountNone},
		{Type: models.DiscountFixed, Value: 3.33},
		{Type: models.DiscountFixed, Value: 500},
		{Type: models.DiscountPercentage, Value: 17},
		{Type: models.DiscountPercentage, Value: 100},
	}
	carts := [][]models.CartItem{
		{line(0.1, 3)},
		{line(9.99, 7, 0.25, 1.1), line(3.45, 2)},
		{line(1234.56, 1)},
	}

	for _, items := range carts {
		for _, d := range discounts {
			for _, points := range []int64{0, 17, 10000} {
				out := CalculatePricing(PricingInput{
					Items:            items,
					Discount:         d,
					RedeemedPoints:   points,
					CurrencyPerPoint: 0.01,
					DeliveryFee:      4.2,
					TaxEnabled:       true,
					TaxRate:          7.5,
				})

				taxable := out.SubTotal - out.DiscountAmount - out.LoyaltyDiscount
				if taxable < 0 {
					taxable = 0
				}
				want := taxable + out.TaxAmount + out.DeliveryFee
				if !models.MoneyEqual(out.TotalAmount, want, models.DecompositionTolerance) {
					t.Errorf("Total %f does not decompose to %f (discount %+v, points %d)", out.TotalAmount, want, d, points)
				}
			}
		}
	}
}

func TestMaxRedeemablePoints(t *testing.T) {
	tests := []struct {
		name      string
		available int64
		total     float64
		cpp       float64
		want      int64
	}{
		{"capped by total", 1000, 30, 0.05, 600},
		{"capped by balance", 100, 30, 0.05, 100},
		{"no redeem rate", 1000, 30, 0, 0},
		{"nothing to discount", 1000, 0, 0.05, 0},
		{"no points", 0, 30, 0.05, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxRedeemablePoints(tt.available, tt.total, tt.cpp); got != tt.want {
				t.Errorf("MaxRedeemablePoints() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPriceCheckout_ClampsRedemption(t *testing.T) {
	shop := models.NewShopInfo("Shop")
	shop.LoyaltyEnabled = true
	shop.CurrencyPerPoint = 0.05

	customer := models.NewCustomer("Carol", "", "")
	customer.LoyaltyPoints = 1000

	checkout := models.CheckoutState{Discount: models.Discount{Type: models.DiscountNone}, PointsToRedeem: 1000}
	out := priceCheckout([]models.CartItem{line(30, 1)}, checkout, shop, customer)

	if out.MaxRedeemablePoints != 600 {
		t.Errorf("Expected max redeemable 600, got %d", out.MaxRedeemablePoints)
	}
	if out.PointsRedeemed != 600 {
		t.Errorf("Expected redemption clamped to 600, got %d", out.PointsRedeemed)
	}
	if !approxEqual(out.TotalAmount, 0) {
		t.Errorf("Expected total 0, got %f", out.TotalAmount)
	}

	// Loyalty disabled ignores the request entirely
	shop.LoyaltyEnabled = false
	out = priceCheckout([]models.CartItem{line(30, 1)}, checkout, shop, customer)
	if out.PointsRedeemed != 0 || out.LoyaltyDiscount != 0 {
		t.Errorf("Expected no redemption with loyalty disabled, got %d points", out.PointsRedeemed)
	}
}

func TestSettlePayment(t *testing.T) {
	tests := []struct {
		name       string
		tender     models.PaymentDetails
		total      float64
		wantCash   float64
		wantCard   float64
		wantCredit float64
		wantChange float64
	}{
		{"exact cash", models.PaymentDetails{Cash: 20}, 20, 20, 0, 0, 0},
		{"cash with change", models.PaymentDetails{Cash: 50}, 20, 20, 0, 0, 30},
		{"card then cash change", models.PaymentDetails{Cash: 10, Card: 15}, 20, 5, 15, 0, 5},
		{"credit capped when cash covers", models.PaymentDetails{Cash: 20, Credit: 500}, 20, 20, 0, 0, 0},
		{"credit capped at remainder", models.PaymentDetails{Cash: 5, Credit: 40}, 30, 5, 0, 25, 0},
		{"cash change with credit dropped", models.PaymentDetails{Cash: 30, Credit: 10}, 20, 20, 0, 0, 10},
		{"all on account", models.PaymentDetails{Credit: 12}, 12, 0, 0, 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settled, change, err := SettlePayment(tt.tender, tt.total)
			if err != nil {
				t.Fatalf("SettlePayment() failed: %v", err)
			}
			if !approxEqual(settled.Cash, tt.wantCash) || !approxEqual(settled.Card, tt.wantCard) || !approxEqual(settled.Credit, tt.wantCredit) {
				t.Errorf("Settled %+v, want cash %.2f card %.2f credit %.2f", settled, tt.wantCash, tt.wantCard, tt.wantCredit)
			}
			if !approxEqual(change, tt.wantChange) {
				t.Errorf("Expected change %.2f, got %.2f", tt.wantChange, change)
			}
			if !models.MoneyEqual(settled.Total(), tt.total, models.DecompositionTolerance) {
				t.Errorf("Settled tenders add up to %.2f, want %.2f", settled.Total(), tt.total)
			}
		})
	}
}

func TestSettlePayment_CardAboveTotal(t *testing.T) {
	_, _, err := SettlePayment(models.PaymentDetails{Card: 25}, 20)
	expectPrecondition(t, err, ErrInvalidTender)
}
