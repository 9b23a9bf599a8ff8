package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/lucsky/cuid"

	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/events"
	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/pricing"
	"github.com/SimonVuong/saute/internal/repositories"
)

// invoiceLeadTime is how long before a delivery its invoice is cut.
// Orders lock once the invoice is cut, which is why consumer edits
// require the delivery to be more than two days out.
const invoiceLeadTime = 48 * time.Hour

// OrderServiceParams wires the order service's collaborators.
type OrderServiceParams struct {
	Orders    repositories.OrderRepository
	Consumers repositories.ConsumerRepository
	Billing   billing.Billing
	Plans     *PlanService
	Rests     *RestService
	Geo       Geocoder
	Events    *events.Emitter

	// DeliveryFee is the flat cents fee per delivery after the first.
	DeliveryFee int64

	// Now and Rand default to the wall clock and a time-seeded source.
	Now  func() time.Time
	Rand *rand.Rand
}

// OrderService orchestrates the order lifecycle: placing orders,
// webhook-driven confirmation and usage reporting, and consumer edits
// to upcoming orders.
type OrderService struct {
	orders      repositories.OrderRepository
	consumers   repositories.ConsumerRepository
	billing     billing.Billing
	plans       *PlanService
	rests       *RestService
	geo         Geocoder
	events      *events.Emitter
	deliveryFee int64
	now         func() time.Time
	rng         *rand.Rand
}

func NewOrderService(p OrderServiceParams) *OrderService {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &OrderService{
		orders:      p.Orders,
		consumers:   p.Consumers,
		billing:     p.Billing,
		plans:       p.Plans,
		rests:       p.Rests,
		geo:         p.Geo,
		events:      p.Events,
		deliveryFee: p.DeliveryFee,
		now:         p.Now,
		rng:         p.Rand,
	}
}

// PlaceOrder validates the cart, creates or updates the billing
// subscription to match the selected tier, persists the order, and
// upserts the consumer. With renewal Auto it also pre-generates next
// week's order from the consumer's cuisines as a best-effort side
// effect.
func (s *OrderService) PlaceOrder(ctx context.Context, consumer *models.Consumer, cart *models.CartInput) (BoolResult, error) {
	if cart.Phone == "" {
		msg := cannotBeEmpty("Phone number")
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if !models.IsDeliveryDayValid(cart.ConsumerPlan.DeliveryDay) {
		msg := fmt.Sprintf("Delivery day '%d' must be 0, 1, 2, 3, 4, 5, 6", cart.ConsumerPlan.DeliveryDay)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if !models.IsDeliveryTimeValid(cart.DeliveryTime) {
		msg := fmt.Sprintf("Delivery time '%s' is invalid", cart.DeliveryTime)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if !models.IsTwoDaysLater(cart.DeliveryDate, s.now()) {
		msg := fmt.Sprintf("Delivery date '%d' is not 2 days in advance", cart.DeliveryDate)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}

	rest, err := s.rests.GetRest(ctx, cart.RestID)
	if err != nil {
		log.Printf("[OrderService] couldn't look up rest '%s': %v", cart.RestID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	if rest == nil {
		msg := fmt.Sprintf("Can't find rest '%s'", cart.RestID)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	for _, cartMeal := range cart.Meals {
		meal := rest.FindMeal(cartMeal.MealID)
		if meal == nil {
			msg := fmt.Sprintf("Can't find mealId '%s'", cartMeal.MealID)
			log.Printf("[OrderService] %s", msg)
			return BoolResult{Res: false, Error: msg}, nil
		}
		if !meal.IsActive {
			msg := fmt.Sprintf("Meal '%s' is no longer active", cartMeal.MealID)
			log.Printf("[OrderService] %s", msg)
			return BoolResult{Res: false, Error: msg}, nil
		}
	}

	addr := cart.Destination.Address
	if err := s.geo.Geocode(ctx, addr.Address1, addr.City, addr.State, addr.Zip); err != nil {
		msg := fmt.Sprintf("Couldn't verify address '%s'", addr.FullAddr())
		log.Printf("[OrderService] %s: %v", msg, err)
		return BoolResult{Res: false, Error: msg}, nil
	}

	planID := cart.ConsumerPlan.PlanID
	cartMealCount := models.CartMealCount(cart.Meals) + cart.DonationCount
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		log.Printf("[OrderService] couldn't verify plan '%s': %v", planID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	if plan == nil {
		msg := fmt.Sprintf("Can't find plan '%s'", planID)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if cartMealCount != plan.MealCount {
		msg := fmt.Sprintf("Plan meal count '%d' doesn't match cart meal count '%d' for plan '%s'", plan.MealCount, cartMealCount, planID)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}

	if cart.ConsumerPlan.Renewal == models.RenewalAuto && len(cart.ConsumerPlan.Cuisines) == 0 {
		msg := fmt.Sprintf("Cuisines cannot be empty if renewal type is '%s'", models.RenewalAuto)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}

	customerID := consumer.CustomerID
	var subscription *billing.Subscription
	if consumer.SubscriptionID != "" && customerID != "" {
		subscription, err = s.billing.GetSubscription(ctx, consumer.SubscriptionID)
		if err != nil {
			log.Printf("[OrderService] couldn't get subscription '%s': %v", consumer.SubscriptionID, err)
			return BoolResult{}, fmt.Errorf("internal server error")
		}
		subscription, err = s.billing.UpdateSubscription(ctx, consumer.SubscriptionID, billing.UpdateSubscriptionParams{
			ItemID:            subscription.Items.Data[0].ID,
			PlanID:            planID,
			ProrationBehavior: "none",
		})
		if err != nil {
			log.Printf("[OrderService] couldn't update subscription '%s': %v", consumer.SubscriptionID, err)
			return BoolResult{}, fmt.Errorf("internal server error")
		}
	} else {
		customer, err := s.billing.CreateCustomer(ctx, consumer.Profile.Email, cart.PaymentMethodID)
		if err != nil {
			log.Printf("[OrderService] couldn't create customer for '%s': %v", consumer.ID, err)
			return BoolResult{}, fmt.Errorf("internal server error")
		}
		customerID = customer.ID
		subscription, err = s.billing.CreateSubscription(ctx, customerID, planID)
		if err != nil {
			// delete the customer to avoid a zombie billing record
			if delErr := s.billing.DeleteCustomer(ctx, customerID); delErr != nil {
				log.Printf("[OrderService] couldn't delete customer '%s' after failed subscription: %v", customerID, delErr)
			}
			log.Printf("[OrderService] couldn't create subscription for '%s': %v", consumer.ID, err)
			return BoolResult{}, fmt.Errorf("internal server error")
		}
	}

	plans, err := s.plans.GetAvailablePlans(ctx)
	if err != nil {
		log.Printf("[OrderService] couldn't get plans: %v", err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}

	subscriptionItemID := ""
	if len(subscription.Items.Data) > 0 {
		subscriptionItemID = subscription.Items.Data[0].ID
	}
	order, err := s.newOrderFromCartInput(consumer, cart, subscription.ID, subscriptionItemID, plans)
	if err != nil {
		log.Printf("[OrderService] couldn't build order for '%s': %v", consumer.ID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		log.Printf("[OrderService] couldn't insert order for '%s': %v", consumer.ID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}

	updated := &models.Consumer{
		ID:             consumer.ID,
		CreatedDate:    s.now().UnixMilli(),
		CustomerID:     customerID,
		SubscriptionID: subscription.ID,
		Profile: models.ConsumerProfile{
			Name:        consumer.Profile.Name,
			Email:       consumer.Profile.Email,
			Phone:       cart.Phone,
			Card:        &cart.Card,
			Destination: &cart.Destination,
		},
		Plan: &models.ConsumerPlan{
			PlanID:      planID,
			DeliveryDay: cart.ConsumerPlan.DeliveryDay,
			Renewal:     cart.ConsumerPlan.Renewal,
			Cuisines:    cart.ConsumerPlan.Cuisines,
			MealPlans: []models.ConsumerMealPlan{{
				PlanID:             planID,
				PlanName:           plan.Name,
				MealCount:          plan.MealCount,
				SubscriptionItemID: subscriptionItemID,
			}},
		},
	}
	if err := s.consumers.Upsert(ctx, updated); err != nil {
		log.Printf("[OrderService] couldn't upsert consumer '%s': %v", consumer.ID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}

	s.events.OrderPlaced(order)

	if cart.ConsumerPlan.Renewal == models.RenewalAuto {
		go s.generateNextWeekOrder(context.Background(), updated, cart, subscription.ID, subscriptionItemID, plans)
	}

	return BoolResult{Res: true}, nil
}

// generateNextWeekOrder pre-builds next week's order from a random
// cuisine-matching restaurant. Best effort: failures are logged, never
// surfaced to the consumer who just checked out.
func (s *OrderService) generateNextWeekOrder(ctx context.Context, consumer *models.Consumer, cart *models.CartInput, subscriptionID, subscriptionItemID string, plans []models.Plan) {
	rests, err := s.rests.GetRestsByCuisines(ctx, cart.ConsumerPlan.Cuisines)
	if err != nil {
		log.Printf("[OrderService] could not auto pick rests: %v", err)
		return
	}
	if len(rests) == 0 {
		log.Printf("[OrderService] no rests match cuisines %v", cart.ConsumerPlan.Cuisines)
		return
	}
	rest := rests[s.rng.Intn(len(rests))]
	mealCount := models.CartMealCount(cart.Meals)
	meals, err := s.chooseMeals(rest, nil, mealCount)
	if err != nil {
		log.Printf("[OrderService] could not choose meals from rest '%s': %v", rest.ID, err)
		return
	}

	nextCart := *cart
	nextCart.RestID = rest.ID
	nextCart.Meals = meals
	nextCart.DeliveryDate = time.UnixMilli(cart.DeliveryDate).AddDate(0, 0, 7).UnixMilli()
	order, err := s.newOrderFromCartInput(consumer, &nextCart, subscriptionID, subscriptionItemID, plans)
	if err != nil {
		log.Printf("[OrderService] could not build automatic order for '%s': %v", consumer.ID, err)
		return
	}
	order.IsAutoGenerated = true
	if err := s.orders.Insert(ctx, order); err != nil {
		log.Printf("[OrderService] could not insert automatic order for '%s': %v", consumer.ID, err)
	}
}

// chooseMeals samples count active meals from the restaurant without
// replacement; the pool resets once exhausted so repeats only occur
// across full cycles.
func (s *OrderService) chooseMeals(rest *models.Restaurant, cuisines []string, count int) ([]models.DeliveryMeal, error) {
	menu := rest.ActiveMeals(cuisines)
	if len(menu) == 0 {
		return nil, fmt.Errorf("rest '%s' has no active meals", rest.ID)
	}
	choose := newMealChooser(menu, s.rng)
	quantities := make(map[string]int)
	var order []models.Meal
	for i := 0; i < count; i++ {
		meal := choose()
		if quantities[meal.ID] == 0 {
			order = append(order, meal)
		}
		quantities[meal.ID]++
	}
	meals := make([]models.DeliveryMeal, 0, len(order))
	for _, meal := range order {
		m := meal
		meals = append(meals, models.NewDeliveryMeal(&m, rest.ID, rest.Name, rest.TaxRate, quantities[meal.ID]))
	}
	return meals, nil
}

// newOrderFromCartInput assembles a priced order with one Open
// delivery. The invoice is cut two days before delivery.
func (s *OrderService) newOrderFromCartInput(consumer *models.Consumer, cart *models.CartInput, subscriptionID, subscriptionItemID string, plans []models.Plan) (*models.Order, error) {
	meals := make([]models.DeliveryMeal, len(cart.Meals))
	copy(meals, cart.Meals)
	for i := range meals {
		meals[i].SubscriptionItemID = subscriptionItemID
	}
	deliveries := models.NewDeliveries([]models.DeliveryInput{{
		DeliveryTime: cart.DeliveryTime,
		DeliveryDate: cart.DeliveryDate,
		Meals:        meals,
	}})
	costs, err := s.buildCosts(plans, models.DeliveryInputs(deliveries), cart.DonationCount)
	if err != nil {
		return nil, err
	}
	nowMs := s.now().UnixMilli()
	return &models.Order{
		ID:              cuid.New(),
		ConsumerID:      consumer.ID,
		SubscriptionID:  subscriptionID,
		CreatedDate:     nowMs,
		CartUpdatedDate: nowMs,
		InvoiceDate:     time.UnixMilli(cart.DeliveryDate).Add(-invoiceLeadTime).UnixMilli(),
		Destination:     cart.Destination,
		Costs:           costs,
		Phone:           cart.Phone,
		Name:            consumer.Profile.Name,
		DonationCount:   cart.DonationCount,
		Deliveries:      deliveries,
	}, nil
}

func (s *OrderService) buildCosts(plans []models.Plan, deliveries []models.DeliveryInput, donationCount int) (models.Cost, error) {
	prices, err := pricing.PricesFromDeliveries(plans, deliveries, donationCount)
	if err != nil {
		return models.Cost{}, err
	}
	return models.Cost{
		Tax:         pricing.Taxes(deliveries, prices),
		MealPrices:  prices,
		Promos:      []models.Promo{},
		Discounts:   []models.Discount{},
		FlatRateFee: s.deliveryFee,
		DeliveryFee: pricing.DeliveryFee(deliveries, s.deliveryFee),
	}, nil
}

// AddAutomaticOrder builds the order weeksAhead weeks out from the
// consumer's standing plan. Invoked from the invoice-upcoming webhook
// two billing cycles ahead of the invoice event. A Skip renewal still
// produces an order so the billing cycle stays aligned, but its
// delivery is skipped with no meals.
func (s *OrderService) AddAutomaticOrder(ctx context.Context, weeksAhead int, consumer *models.Consumer, invoiceDate int64, mealPrices []models.MealPrice) error {
	if consumer.Plan == nil {
		return fmt.Errorf("consumer '%s' has no plan", consumer.ID)
	}
	if consumer.Profile.Destination == nil {
		return fmt.Errorf("consumer '%s' has no destination", consumer.ID)
	}
	plan := consumer.Plan

	nextDate, err := models.NextDeliveryDate(plan.DeliveryDay, s.now())
	if err != nil {
		return err
	}
	deliveryDate := time.UnixMilli(nextDate).AddDate(0, 0, 7*(weeksAhead-1)).UnixMilli()

	mealCount := 0
	for _, mp := range plan.MealPlans {
		mealCount += mp.MealCount
	}

	var deliveries []models.Delivery
	if plan.Renewal == models.RenewalAuto && len(plan.Cuisines) > 0 {
		rests, err := s.rests.GetRestsByCuisines(ctx, plan.Cuisines)
		if err != nil {
			return err
		}
		if len(rests) == 0 {
			return fmt.Errorf("no rests match cuisines %v", plan.Cuisines)
		}
		rest := rests[s.rng.Intn(len(rests))]
		meals, err := s.chooseMeals(rest, nil, mealCount)
		if err != nil {
			return err
		}
		for i := range meals {
			meals[i].SubscriptionItemID = subscriptionItemForPlan(plan, meals[i].PlanID)
		}
		deliveries = models.NewDeliveries([]models.DeliveryInput{{
			DeliveryTime: models.DeliveryTimes[0],
			DeliveryDate: deliveryDate,
			Meals:        meals,
		}})
	} else {
		deliveries = []models.Delivery{{
			DeliveryInput: models.DeliveryInput{
				DeliveryTime: models.DeliveryTimes[0],
				DeliveryDate: deliveryDate,
				Meals:        []models.DeliveryMeal{},
			},
			Status: models.DeliveryStatusSkipped,
		}}
	}

	inputs := models.DeliveryInputs(deliveries)
	nowMs := s.now().UnixMilli()
	order := &models.Order{
		ID:              cuid.New(),
		ConsumerID:      consumer.ID,
		SubscriptionID:  consumer.SubscriptionID,
		CreatedDate:     nowMs,
		CartUpdatedDate: nowMs,
		InvoiceDate:     invoiceDate,
		IsAutoGenerated: true,
		Destination:     *consumer.Profile.Destination,
		Costs: models.Cost{
			Tax:         pricing.Taxes(inputs, mealPrices),
			MealPrices:  mealPrices,
			Promos:      []models.Promo{},
			Discounts:   []models.Discount{},
			FlatRateFee: s.deliveryFee,
			DeliveryFee: pricing.DeliveryFee(inputs, s.deliveryFee),
		},
		Phone:      consumer.Profile.Phone,
		Name:       consumer.Profile.Name,
		Deliveries: deliveries,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return fmt.Errorf("failed to insert automatic order for '%s': %w", consumer.ID, err)
	}
	return nil
}

func subscriptionItemForPlan(plan *models.ConsumerPlan, planID string) string {
	for _, mp := range plan.MealPlans {
		if mp.PlanID == planID {
			return mp.SubscriptionItemID
		}
	}
	if len(plan.MealPlans) > 0 {
		return plan.MealPlans[0].SubscriptionItemID
	}
	return ""
}

// ConfirmCurrentOrderDeliveries transitions today's order's Open
// deliveries to Confirmed and returns the updated order. Deliveries
// already Skipped or Confirmed are left alone, so re-processing the
// same invoice event cannot double-confirm.
func (s *OrderService) ConfirmCurrentOrderDeliveries(ctx context.Context, consumerID string) (*models.Order, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	order, err := s.orders.GetByInvoiceDateRange(ctx, consumerID, dayStart.UnixMilli(), dayStart.AddDate(0, 0, 1).UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to get today's order for '%s': %w", consumerID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("no order with invoice date today for '%s'", consumerID)
	}

	changed := false
	deliveries := models.CopyDeliveries(order.Deliveries)
	for i := range deliveries {
		if deliveries[i].CanConfirm() {
			deliveries[i] = deliveries[i].Confirmed()
			changed = true
		}
	}
	if changed {
		if err := s.orders.UpdateFields(ctx, order.ID, map[string]interface{}{
			"deliveries": deliveries,
		}); err != nil {
			return nil, fmt.Errorf("failed to confirm deliveries for order '%s': %w", order.ID, err)
		}
		order.Deliveries = deliveries
		s.events.DeliveriesConfirmed(order)
	}
	return order, nil
}

// SetOrderInvoiceID links the order to the invoice the billing system
// cut for it.
func (s *OrderService) SetOrderInvoiceID(ctx context.Context, orderID, invoiceID string) error {
	if err := s.orders.UpdateFields(ctx, orderID, map[string]interface{}{
		"invoice_id": invoiceID,
	}); err != nil {
		return fmt.Errorf("failed to set invoice id for order '%s': %w", orderID, err)
	}
	return nil
}

// ProcessTaxesAndFees pushes the confirmed order's taxes and extra
// delivery fees onto the invoice as line items.
func (s *OrderService) ProcessTaxesAndFees(ctx context.Context, customerID, invoiceID string, costs models.Cost, extraDeliveryCount int) error {
	if costs.Tax > 0 {
		if _, err := s.billing.CreateInvoiceItem(ctx, customerID, invoiceID, "Taxes", costs.Tax); err != nil {
			return fmt.Errorf("failed to create tax invoice item for '%s': %w", invoiceID, err)
		}
	}
	if extraDeliveryCount > 0 && costs.DeliveryFee > 0 {
		desc := fmt.Sprintf("%d extra deliveries", extraDeliveryCount)
		if _, err := s.billing.CreateInvoiceItem(ctx, customerID, invoiceID, desc, costs.DeliveryFee); err != nil {
			return fmt.Errorf("failed to create delivery fee invoice item for '%s': %w", invoiceID, err)
		}
	}
	return nil
}

// SetOrderUsage reports metered usage for one subscription line item.
func (s *OrderService) SetOrderUsage(ctx context.Context, subscriptionItemID string, quantity int, timestamp int64) error {
	if err := s.billing.CreateUsageRecord(ctx, subscriptionItemID, quantity, timestamp); err != nil {
		return fmt.Errorf("failed to set usage for subscription item '%s': %w", subscriptionItemID, err)
	}
	return nil
}

// SkipDelivery skips one delivery of an upcoming order and reprices the
// whole order from the remaining deliveries. Skipping an
// already-skipped delivery is a no-op; a delivery less than two days
// out can no longer be skipped.
func (s *OrderService) SkipDelivery(ctx context.Context, consumer *models.Consumer, orderID string, deliveryIndex int) (BoolResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("[OrderService] couldn't get order '%s': %v", orderID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	if order == nil || order.ConsumerID != consumer.ID {
		msg := fmt.Sprintf("Can't find order '%s'", orderID)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if deliveryIndex < 0 || deliveryIndex >= len(order.Deliveries) {
		msg := fmt.Sprintf("Delivery index '%d' out of range", deliveryIndex)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}

	delivery := order.Deliveries[deliveryIndex]
	if delivery.Status == models.DeliveryStatusSkipped {
		return BoolResult{Res: true}, nil
	}
	if !delivery.CanSkip() {
		msg := fmt.Sprintf("Delivery with status '%s' can no longer be skipped", delivery.Status)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if !models.IsTwoDaysLater(delivery.DeliveryDate, s.now()) {
		msg := fmt.Sprintf("Delivery date '%d' is less than 2 days away", delivery.DeliveryDate)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}

	deliveries := models.CopyDeliveries(order.Deliveries)
	deliveries[deliveryIndex] = deliveries[deliveryIndex].Skipped()

	plans, err := s.plans.GetAvailablePlans(ctx)
	if err != nil {
		log.Printf("[OrderService] couldn't get plans: %v", err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	prices, err := pricing.PricesFromDeliveries(plans, models.DeliveryInputs(deliveries), order.DonationCount)
	if err != nil {
		log.Printf("[OrderService] couldn't reprice order '%s': %v", orderID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	costs := order.Costs.Copy()
	costs.MealPrices = prices
	costs.Tax = pricing.Taxes(models.DeliveryInputs(deliveries), prices)

	if err := s.orders.UpdateFields(ctx, orderID, map[string]interface{}{
		"deliveries":        deliveries,
		"costs":             costs,
		"is_auto_generated": false,
		"cart_updated_date": s.now().UnixMilli(),
	}); err != nil {
		log.Printf("[OrderService] couldn't skip delivery %d of order '%s': %v", deliveryIndex, orderID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}

	order.Deliveries = deliveries
	s.events.DeliverySkipped(order, deliveryIndex)
	return BoolResult{Res: true}, nil
}

// RemoveDonations zeroes an upcoming order's donation count and
// reprices it.
func (s *OrderService) RemoveDonations(ctx context.Context, consumer *models.Consumer, orderID string) (BoolResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("[OrderService] couldn't get order '%s': %v", orderID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	if order == nil || order.ConsumerID != consumer.ID {
		msg := fmt.Sprintf("Can't find order '%s'", orderID)
		log.Printf("[OrderService] %s", msg)
		return BoolResult{Res: false, Error: msg}, nil
	}
	if order.DonationCount == 0 {
		return BoolResult{Res: true}, nil
	}

	plans, err := s.plans.GetAvailablePlans(ctx)
	if err != nil {
		log.Printf("[OrderService] couldn't get plans: %v", err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	inputs := models.DeliveryInputs(order.Deliveries)
	prices, err := pricing.PricesFromDeliveries(plans, inputs, 0)
	if err != nil {
		log.Printf("[OrderService] couldn't reprice order '%s': %v", orderID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	costs := order.Costs.Copy()
	costs.MealPrices = prices
	costs.Tax = pricing.Taxes(inputs, prices)

	if err := s.orders.UpdateFields(ctx, orderID, map[string]interface{}{
		"donation_count":    0,
		"costs":             costs,
		"is_auto_generated": false,
		"cart_updated_date": s.now().UnixMilli(),
	}); err != nil {
		log.Printf("[OrderService] couldn't remove donations from order '%s': %v", orderID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	return BoolResult{Res: true}, nil
}

// GetMyUpcomingOrders returns the consumer's orders with a first
// delivery from now on, ascending by delivery date.
func (s *OrderService) GetMyUpcomingOrders(ctx context.Context, consumerID string) ([]*models.Order, error) {
	orders, err := s.orders.GetUpcomingByConsumer(ctx, consumerID, s.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming orders for '%s': %w", consumerID, err)
	}
	return orders, nil
}

// UpdateUpcomingOrdersProfile ripples a profile edit into every
// upcoming order that has not started fulfillment.
func (s *OrderService) UpdateUpcomingOrdersProfile(ctx context.Context, consumerID string, profile *models.ConsumerProfile) error {
	orders, err := s.GetMyUpcomingOrders(ctx, consumerID)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if order.Started() {
			continue
		}
		fields := map[string]interface{}{
			"phone": profile.Phone,
			"name":  profile.Name,
		}
		if profile.Destination != nil {
			fields["destination"] = *profile.Destination
		}
		if err := s.orders.UpdateFields(ctx, order.ID, fields); err != nil {
			return fmt.Errorf("failed to update profile on order '%s': %w", order.ID, err)
		}
	}
	return nil
}

// UpdateUpcomingOrdersPlans reprices every not-yet-started upcoming
// order against the new plan. Delivery dates are preserved; the billing
// anchor moves separately via the subscription's trial end.
func (s *OrderService) UpdateUpcomingOrdersPlans(ctx context.Context, consumerID string, newPlan *models.ConsumerPlan, plan *models.Plan) error {
	orders, err := s.GetMyUpcomingOrders(ctx, consumerID)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if order.Started() {
			continue
		}
		// the meals move to the new tier with the subscription, so tax
		// lookups by plan id keep resolving
		deliveries := models.CopyDeliveries(order.Deliveries)
		for i := range deliveries {
			for j := range deliveries[i].Meals {
				deliveries[i].Meals[j].PlanID = plan.ID
				deliveries[i].Meals[j].PlanName = plan.Name
			}
		}
		costs := order.Costs.Copy()
		costs.MealPrices = []models.MealPrice{{
			PlanID:    plan.ID,
			PlanName:  plan.Name,
			MealPrice: plan.MealPrice,
		}}
		costs.Tax = pricing.Taxes(models.DeliveryInputs(deliveries), costs.MealPrices)
		if err := s.orders.UpdateFields(ctx, order.ID, map[string]interface{}{
			"deliveries":        deliveries,
			"costs":             costs,
			"cart_updated_date": s.now().UnixMilli(),
		}); err != nil {
			return fmt.Errorf("failed to update plan on order '%s': %w", order.ID, err)
		}
	}
	return nil
}

// DeleteOrder removes an order during cancellation cleanup.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("failed to delete order '%s': %w", orderID, err)
	}
	return nil
}
