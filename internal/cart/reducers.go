package cart

import (
	"fmt"
	"strings"

	"github.com/SimonVuong/saute/internal/models"
)

// Reducers mirror the consumer's cart actions. Each returns a new cart
// value; none edit the input in place.

// AddMeal adds one of the given meal. A first meal creates the cart; a
// meal added to a cart whose count had dropped to zero resets
// deliveries and schedules.
func AddMeal(meal *models.Meal, restID, restName string, taxRate float64) Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			c := models.EmptyCart()
			c = c.AddMeal(meal, restID, restName, taxRate)
			return &c, nil
		}
		next := current.AddMeal(meal, restID, restName, taxRate)
		return &next, nil
	}
}

// RemoveMeal removes one of the given meal. Removing the last meal
// clears deliveries but keeps the donation count and schedule intact.
func RemoveMeal(restID, mealID string) Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			return nil, fmt.Errorf("cannot remove meal '%s': %w", mealID, models.ErrNilCart)
		}
		next := current.RemoveMeal(restID, mealID)
		if next.StandardMealCount() == 0 {
			next.RestMeals = map[string]models.RestMeals{}
			next.Deliveries = []models.DeliveryInput{}
		}
		return &next, nil
	}
}

// IncrementDonation adds a donated meal, creating the cart if needed.
func IncrementDonation() Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			c := models.EmptyCart()
			c.DonationCount = 1
			return &c, nil
		}
		next := *current
		next.DonationCount++
		return &next, nil
	}
}

// DecrementDonation removes a donated meal. Calling it without an
// existing cart is a caller bug.
func DecrementDonation() Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			return nil, fmt.Errorf("cannot decrement donation count: %w", models.ErrNilCart)
		}
		if current.DonationCount == 0 {
			return nil, fmt.Errorf("donation count is already zero")
		}
		next := *current
		next.DonationCount--
		return &next, nil
	}
}

// UpdateZip replaces the zip, creating an empty cart if none exists.
func UpdateZip(zip string) Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			c := models.EmptyCart()
			c.Zip = zip
			return &c, nil
		}
		next := *current
		next.Zip = zip
		return &next, nil
	}
}

// UpdatePlanID selects a plan tier.
func UpdatePlanID(planID string) Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			c := models.EmptyCart()
			c.PlanID = planID
			return &c, nil
		}
		next := *current
		next.PlanID = planID
		return &next, nil
	}
}

// UpdateSchedule replaces the preferred delivery slots.
func UpdateSchedule(schedules []models.Schedule) Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			c := models.EmptyCart()
			c.Schedules = schedules
			return &c, nil
		}
		next := *current
		next.Schedules = make([]models.Schedule, len(schedules))
		copy(next.Schedules, schedules)
		return &next, nil
	}
}

// Clear empties the cart after a successful checkout. Clearing a nil
// cart is a no-op: skipping an order can leave no cart behind.
func Clear() Reducer {
	return func(current *models.Cart) (*models.Cart, error) {
		if current == nil {
			return nil, nil
		}
		c := models.EmptyCart()
		return &c, nil
	}
}

// SetFromOrder seeds the cart from an existing order so the consumer
// can re-shop a delivery.
func SetFromOrder(order *models.Order) Reducer {
	return func(*models.Cart) (*models.Cart, error) {
		c := models.EmptyCart()
		c.DonationCount = order.DonationCount
		c.Zip = order.Destination.Address.Zip
		return &c, nil
	}
}

// Input freezes the cart plus checkout fields into a CartInput. Every
// required checkout field must be present.
func Input(
	c *models.Cart,
	restID string,
	deliveryDate int64,
	deliveryTime string,
	plan models.ConsumerPlan,
	destination models.Destination,
	phone string,
	card models.Card,
	paymentMethodID string,
) (*models.CartInput, error) {
	if c == nil {
		return nil, models.ErrNilCart
	}
	if strings.TrimSpace(destination.Address.Address1) == "" {
		return nil, fmt.Errorf("address %s", cannotBeEmpty)
	}
	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("phone number %s", cannotBeEmpty)
	}
	if strings.TrimSpace(paymentMethodID) == "" {
		return nil, fmt.Errorf("payment method %s", cannotBeEmpty)
	}
	return &models.CartInput{
		RestID:          restID,
		Meals:           c.DeliveryMealList(),
		DeliveryDate:    deliveryDate,
		DeliveryTime:    deliveryTime,
		ConsumerPlan:    plan,
		DonationCount:   c.DonationCount,
		Destination:     destination,
		Phone:           phone,
		Card:            card,
		PaymentMethodID: paymentMethodID,
	}, nil
}

const cannotBeEmpty = "cannot be empty"
