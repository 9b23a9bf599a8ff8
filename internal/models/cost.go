package models

import "fmt"

// MealPrice is the per-meal price resolved for a plan at checkout time.
// Derived, never stored independently; recomputed whenever the
// meal-count tier changes.
type MealPrice struct {
	PlanID    string `json:"plan_id"`
	PlanName  string `json:"plan_name"`
	MealPrice int64  `json:"meal_price"` // cents
}

type Promo struct {
	CouponID   string `json:"coupon_id"`
	PercentOff int    `json:"percent_off,omitempty"`
	AmountOff  int64  `json:"amount_off,omitempty"` // cents
}

type Discount struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"` // cents
}

// Cost is the money breakdown of one order. All values are cents.
type Cost struct {
	Tax         int64       `json:"tax"`
	Tip         int64       `json:"tip"`
	MealPrices  []MealPrice `json:"meal_prices"`
	Promos      []Promo     `json:"promos"`
	Discounts   []Discount  `json:"discounts"`
	PercentFee  int         `json:"percent_fee"`
	FlatRateFee int64       `json:"flat_rate_fee"`
	DeliveryFee int64       `json:"delivery_fee"`
}

func (c Cost) Copy() Cost {
	out := c
	out.MealPrices = make([]MealPrice, len(c.MealPrices))
	copy(out.MealPrices, c.MealPrices)
	out.Promos = make([]Promo, len(c.Promos))
	copy(out.Promos, c.Promos)
	out.Discounts = make([]Discount, len(c.Discounts))
	copy(out.Discounts, c.Discounts)
	return out
}

// DollarString renders cents as decimal currency. Conversion out of
// cents happens only at presentation boundaries.
func DollarString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
