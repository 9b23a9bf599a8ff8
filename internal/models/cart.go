package models

import (
	"errors"
	"sort"
)

var (
	// ErrNilCart is a caller bug: mutating a cart that was never created.
	ErrNilCart = errors.New("cart does not exist")
)

// Schedule is a preferred delivery slot.
type Schedule struct {
	Day  int    `json:"day"` // 0 (Sunday) - 6 (Saturday)
	Time string `json:"time"`
}

// RestMeals groups a cart's meals for one restaurant.
type RestMeals struct {
	MealCount int            `json:"meal_count"`
	Meals     []DeliveryMeal `json:"meals"`
}

// Cart is a consumer's in-progress selection. Every mutation returns a
// new cart; the previous value is never edited in place.
type Cart struct {
	DonationCount int                  `json:"donation_count"`
	RestMeals     map[string]RestMeals `json:"rest_meals"`
	Deliveries    []DeliveryInput      `json:"deliveries"`
	Schedules     []Schedule           `json:"schedules"`
	Zip           string               `json:"zip,omitempty"`
	PlanID        string               `json:"plan_id,omitempty"`
}

func EmptyCart() Cart {
	return Cart{RestMeals: map[string]RestMeals{}, Deliveries: []DeliveryInput{}, Schedules: []Schedule{}}
}

// StandardMealCount is the total meal count across all restaurant
// groups. Donations are counted separately by callers doing tier
// lookups.
func (c Cart) StandardMealCount() int {
	count := 0
	for _, rm := range c.RestMeals {
		count += rm.MealCount
	}
	return count
}

// AddMeal returns the cart with one more of the given meal. Adding to a
// cart that previously had zero meals resets deliveries and schedules.
func (c Cart) AddMeal(meal *Meal, restID, restName string, taxRate float64) Cart {
	out := c.copy()
	if c.StandardMealCount() == 0 {
		out.Deliveries = []DeliveryInput{}
		out.Schedules = []Schedule{}
	}
	group, ok := out.RestMeals[restID]
	if !ok {
		group = RestMeals{}
	}
	group.MealCount++
	found := false
	for i, m := range group.Meals {
		if m.MealID == meal.ID {
			group.Meals[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		group.Meals = append(group.Meals, NewDeliveryMeal(meal, restID, restName, taxRate, 1))
	}
	out.RestMeals[restID] = group
	return out
}

// RemoveMeal returns the cart with one fewer of the given meal. The
// restaurant group is dropped once its count reaches zero.
func (c Cart) RemoveMeal(restID, mealID string) Cart {
	out := c.copy()
	group, ok := out.RestMeals[restID]
	if !ok {
		return out
	}
	for i, m := range group.Meals {
		if m.MealID != mealID {
			continue
		}
		group.MealCount--
		if m.Quantity > 1 {
			group.Meals[i].Quantity--
		} else {
			group.Meals = append(group.Meals[:i], group.Meals[i+1:]...)
		}
		break
	}
	if group.MealCount <= 0 {
		delete(out.RestMeals, restID)
	} else {
		out.RestMeals[restID] = group
	}
	return out
}

// DeliveryMealList flattens all restaurant groups preserving group
// order per restaurant. Groups are walked in restaurant id order so the
// result is stable across calls.
func (c Cart) DeliveryMealList() []DeliveryMeal {
	restIDs := make([]string, 0, len(c.RestMeals))
	for restID := range c.RestMeals {
		restIDs = append(restIDs, restID)
	}
	sort.Strings(restIDs)
	var meals []DeliveryMeal
	for _, restID := range restIDs {
		meals = append(meals, c.RestMeals[restID].Meals...)
	}
	return meals
}

func (c Cart) copy() Cart {
	out := c
	out.RestMeals = make(map[string]RestMeals, len(c.RestMeals))
	for id, rm := range c.RestMeals {
		meals := make([]DeliveryMeal, len(rm.Meals))
		copy(meals, rm.Meals)
		out.RestMeals[id] = RestMeals{MealCount: rm.MealCount, Meals: meals}
	}
	out.Deliveries = make([]DeliveryInput, len(c.Deliveries))
	for i, d := range c.Deliveries {
		out.Deliveries[i] = copyDeliveryInput(d)
	}
	out.Schedules = make([]Schedule, len(c.Schedules))
	copy(out.Schedules, c.Schedules)
	return out
}

// CartInput is a validated, frozen cart plus checkout fields, ready for
// order placement.
type CartInput struct {
	RestID          string         `json:"rest_id"`
	Meals           []DeliveryMeal `json:"meals"`
	DeliveryDate    int64          `json:"delivery_date"` // epoch ms
	DeliveryTime    string         `json:"delivery_time"`
	ConsumerPlan    ConsumerPlan   `json:"consumer_plan"`
	DonationCount   int            `json:"donation_count"`
	Destination     Destination    `json:"destination"`
	Phone           string         `json:"phone"`
	Card            Card           `json:"card"`
	PaymentMethodID string         `json:"payment_method_id"`
}

// CartMealCount sums quantities of snapshotted cart meals.
func CartMealCount(meals []DeliveryMeal) int {
	count := 0
	for _, m := range meals {
		count += m.Quantity
	}
	return count
}
