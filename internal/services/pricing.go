package services

import (
	"math"

	"pos-engine/internal/models"
)

// pointsEpsilon absorbs float noise so 29.99999999 points floors to 30
const pointsEpsilon = 1e-9

// PricingInput is everything the calculator needs. RedeemedPoints must
// already be clamped with MaxRedeemablePoints.
type PricingInput struct {
	Items                 []models.CartItem
	Discount              models.Discount
	RedeemedPoints        int64
	DeliveryFee           float64
	TaxEnabled            bool
	TaxRate               float64
	LoyaltyEnabled        bool
	PointsPerCurrencyUnit float64
	CurrencyPerPoint      float64
	HasCustomer           bool
}

// PricingBreakdown is the priced result shown at checkout and stored on the sale
type PricingBreakdown struct {
	SubTotal                  float64         `json:"sub_total"`
	Discount                  models.Discount `json:"discount"`
	DiscountLabel             string          `json:"discount_label,omitempty"`
	DiscountAmount            float64         `json:"discount_amount"`
	TotalAfterGeneralDiscount float64         `json:"total_after_general_discount"`
	PointsRedeemed            int64           `json:"points_redeemed"`
	LoyaltyDiscount           float64         `json:"loyalty_discount"`
	TaxableAmount             float64         `json:"taxable_amount"`
	TaxAmount                 float64         `json:"tax_amount"`
	DeliveryFee               float64         `json:"delivery_fee"`
	TotalAmount               float64         `json:"total_amount"`
	TotalCost                 float64         `json:"total_cost"`
	PointsEarned              int64           `json:"points_earned"`
	MaxRedeemablePoints       int64           `json:"max_redeemable_points"`
}

// NewPricingInput combines cart lines, checkout state and shop configuration
func NewPricingInput(items []models.CartItem, checkout models.CheckoutState, shop *models.ShopInfo, hasCustomer bool) PricingInput {
	in := PricingInput{
		Items:          items,
		Discount:       checkout.Discount,
		RedeemedPoints: checkout.PointsToRedeem,
		DeliveryFee:    checkout.DeliveryFee,
		HasCustomer:    hasCustomer,
	}
	if shop != nil {
		in.TaxEnabled = shop.TaxEnabled
		in.TaxRate = shop.TaxRate
		in.LoyaltyEnabled = shop.LoyaltyEnabled
		in.PointsPerCurrencyUnit = shop.PointsPerCurrencyUnit
		in.CurrencyPerPoint = shop.CurrencyPerPoint
	}
	return in
}

// CalculatePricing prices a cart. It has no side effects.
func CalculatePricing(in PricingInput) PricingBreakdown {
	var subTotal, totalCost float64
	for i := range in.Items {
		item := &in.Items[i]
		subTotal += item.LineTotal()
		totalCost += item.UnitCost * item.Quantity
	}

	var discountAmount float64
	switch in.Discount.Type {
	case models.DiscountPercentage:
		discountAmount = subTotal * in.Discount.Value / 100
	case models.DiscountFixed:
		discountAmount = in.Discount.Value
	}

	afterDiscount := subTotal - discountAmount
	loyaltyDiscount := float64(in.RedeemedPoints) * in.CurrencyPerPoint

	taxable := afterDiscount - loyaltyDiscount
	if taxable < 0 {
		taxable = 0
	}

	var tax float64
	if in.TaxEnabled && in.TaxRate > 0 {
		tax = taxable * in.TaxRate / 100
	}

	var earned int64
	if in.LoyaltyEnabled && in.HasCustomer && afterDiscount > 0 {
		earned = floorPoints(afterDiscount * in.PointsPerCurrencyUnit)
	}

	return PricingBreakdown{
		SubTotal:                  subTotal,
		Discount:                  in.Discount,
		DiscountLabel:             in.Discount.Label(),
		DiscountAmount:            discountAmount,
		TotalAfterGeneralDiscount: afterDiscount,
		PointsRedeemed:            in.RedeemedPoints,
		LoyaltyDiscount:           loyaltyDiscount,
		TaxableAmount:             taxable,
		TaxAmount:                 tax,
		DeliveryFee:               in.DeliveryFee,
		TotalAmount:               taxable + tax + in.DeliveryFee,
		TotalCost:                 totalCost,
		PointsEarned:              earned,
	}
}

// MaxRedeemablePoints caps a redemption so it never exceeds the customer's
// points or the discounted total
func MaxRedeemablePoints(available int64, totalAfterGeneralDiscount, currencyPerPoint float64) int64 {
	if currencyPerPoint <= 0 || totalAfterGeneralDiscount <= 0 || available <= 0 {
		return 0
	}
	byTotal := floorPoints(totalAfterGeneralDiscount / currencyPerPoint)
	if available < byTotal {
		return available
	}
	return byTotal
}

// priceCheckout clamps the requested redemption and prices the cart
func priceCheckout(items []models.CartItem, checkout models.CheckoutState, shop *models.ShopInfo, customer *models.Customer) PricingBreakdown {
	in := NewPricingInput(items, checkout, shop, customer != nil)

	in.RedeemedPoints = 0
	base := CalculatePricing(in)

	var maxPoints int64
	if customer != nil && in.LoyaltyEnabled {
		maxPoints = MaxRedeemablePoints(customer.LoyaltyPoints, base.TotalAfterGeneralDiscount, in.CurrencyPerPoint)
	}

	requested := checkout.PointsToRedeem
	if requested < 0 {
		requested = 0
	}
	if requested > maxPoints {
		requested = maxPoints
	}

	in.RedeemedPoints = requested
	out := CalculatePricing(in)
	out.MaxRedeemablePoints = maxPoints
	return out
}

func floorPoints(v float64) int64 {
	return int64(math.Floor(v + pointsEpsilon))
}

// SettlePayment reduces a tender to what the sale actually keeps. Card pays
// first, cash covers the rest and any cash beyond that is change handed back.
// Credit is capped at whatever cash and card leave unpaid, so the settled
// tenders always add up to total. A card amount above total is rejected
// because change is only given in cash.
func SettlePayment(tender models.PaymentDetails, total float64) (models.PaymentDetails, float64, error) {
	if tender.Card-total > models.MoneyTolerance {
		return models.PaymentDetails{}, 0, preconditionf(ErrInvalidTender, "card %s exceeds total %s",
			models.FormatMoney(tender.Card), models.FormatMoney(total))
	}

	cashDue := math.Max(total-tender.Card, 0)
	change := math.Max(tender.Cash-cashDue, 0)

	settled := models.PaymentDetails{
		Card: tender.Card,
		Cash: tender.Cash - change,
	}
	creditDue := math.Max(total-settled.Card-settled.Cash, 0)
	settled.Credit = math.Min(tender.Credit, creditDue)

	return settled, models.RoundMoney(change), nil
}
