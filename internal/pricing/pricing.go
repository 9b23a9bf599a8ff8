// Package pricing computes tier prices, taxes, and fees for orders.
// All functions are pure and all money values are integer cents.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/SimonVuong/saute/internal/models"
)

// ErrMissingStandardTier means the supplied catalog has no Standard
// plan. This is a deployment defect, not a user error.
var ErrMissingStandardTier = errors.New("missing Standard plan from catalog")

// TierPrice resolves the per-meal price for buying count meals of the
// named plan. Tier boundaries are inclusive lower bounds: the matching
// tier is the one with the largest meal count not exceeding the
// requested count. Counts below the smallest tier price at the smallest
// tier.
func TierPrice(plans []models.Plan, planName string, count int) (int64, error) {
	var tiers []models.Plan
	for _, p := range plans {
		if p.Name == planName {
			tiers = append(tiers, p)
		}
	}
	if len(tiers) == 0 {
		return 0, fmt.Errorf("no tiers for plan '%s'", planName)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MealCount < tiers[j].MealCount })
	price := tiers[0].MealPrice
	for _, t := range tiers {
		if count >= t.MealCount {
			price = t.MealPrice
		}
	}
	return price, nil
}

type planCount struct {
	planID   string
	planName string
	quantity int
}

// PricesFromDeliveries groups the deliveries' meals by plan, folds the
// donation count into the Standard plan's quantity, and prices each
// group at its aggregate quantity. The consumer pays the blended
// per-meal rate for total weekly volume regardless of which meals were
// ordered.
func PricesFromDeliveries(plans []models.Plan, deliveries []models.DeliveryInput, donationCount int) ([]models.MealPrice, error) {
	standard := findStandard(plans)
	if standard == nil {
		return nil, ErrMissingStandardTier
	}

	counts := make(map[string]*planCount)
	var order []string
	if donationCount > 0 {
		counts[standard.ID] = &planCount{planID: standard.ID, planName: models.PlanNameStandard, quantity: donationCount}
		order = append(order, standard.ID)
	}
	for i := range deliveries {
		for _, m := range deliveries[i].Meals {
			if c, ok := counts[m.PlanID]; ok {
				c.quantity += m.Quantity
			} else {
				counts[m.PlanID] = &planCount{planID: m.PlanID, planName: m.PlanName, quantity: m.Quantity}
				order = append(order, m.PlanID)
			}
		}
	}

	prices := make([]models.MealPrice, 0, len(order))
	for _, id := range order {
		c := counts[id]
		price, err := TierPrice(plans, c.planName, c.quantity)
		if err != nil {
			return nil, err
		}
		prices = append(prices, models.MealPrice{PlanID: c.planID, PlanName: c.planName, MealPrice: price})
	}
	return prices, nil
}

// PricesForMealPlans prices each of the consumer's standing meal plans
// at its own meal count.
func PricesForMealPlans(plans []models.Plan, mealPlans []models.ConsumerMealPlan) ([]models.MealPrice, error) {
	prices := make([]models.MealPrice, 0, len(mealPlans))
	for _, mp := range mealPlans {
		price, err := TierPrice(plans, mp.PlanName, mp.MealCount)
		if err != nil {
			return nil, err
		}
		prices = append(prices, models.MealPrice{PlanID: mp.PlanID, PlanName: mp.PlanName, MealPrice: price})
	}
	return prices, nil
}

// Taxes sums meal price x quantity x restaurant tax rate across every
// (restaurant, plan) pair the deliveries touch, rounded half-up on
// cents.
func Taxes(deliveries []models.DeliveryInput, prices []models.MealPrice) int64 {
	priceByPlan := make(map[string]int64, len(prices))
	for _, p := range prices {
		priceByPlan[p.PlanID] = p.MealPrice
	}
	total := 0.0
	for i := range deliveries {
		for _, m := range deliveries[i].Meals {
			total += float64(priceByPlan[m.PlanID]*int64(m.Quantity)) * m.TaxRate
		}
	}
	return RoundCents(total)
}

// DeliveryFee charges nothing for the first delivery in a cycle and a
// flat fee for each additional one.
func DeliveryFee(deliveries []models.DeliveryInput, flatFee int64) int64 {
	if len(deliveries) <= 1 {
		return 0
	}
	return int64(len(deliveries)-1) * flatFee
}

// RoundCents rounds a fractional cent amount half-up.
func RoundCents(cents float64) int64 {
	return int64(math.Floor(cents + 0.5))
}

func findStandard(plans []models.Plan) *models.Plan {
	for i := range plans {
		if plans[i].Name == models.PlanNameStandard {
			return &plans[i]
		}
	}
	return nil
}
