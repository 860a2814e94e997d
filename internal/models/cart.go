package models

// CheckoutState holds the per-cart options that affect pricing
type CheckoutState struct {
	CustomerID     *int64   `json:"customer_id,omitempty"`
	Discount       Discount `json:"discount"`
	DeliveryFee    float64  `json:"delivery_fee" validate:"gte=0"`
	PointsToRedeem int64    `json:"points_to_redeem" validate:"gte=0"`
	Wholesale      bool     `json:"wholesale"`
}

// Cart is the unsaved order a user is building. It is never persisted.
type Cart struct {
	UserID   int64         `json:"user_id"`
	Items    []CartItem    `json:"items"`
	Checkout CheckoutState `json:"checkout"`
}

// NewCart creates an empty cart for a user
func NewCart(userID int64) *Cart {
	return &Cart{
		UserID:   userID,
		Items:    []CartItem{},
		Checkout: CheckoutState{Discount: Discount{Type: DiscountNone}},
	}
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Snapshot returns a deep copy safe to read outside the cart lock
func (c *Cart) Snapshot() Cart {
	out := *c
	out.Items = CloneCartItems(c.Items)
	if c.Checkout.CustomerID != nil {
		id := *c.Checkout.CustomerID
		out.Checkout.CustomerID = &id
	}
	return out
}

// Reset clears every line and the checkout state
func (c *Cart) Reset() {
	c.Items = []CartItem{}
	c.Checkout = CheckoutState{Discount: Discount{Type: DiscountNone}}
}
