package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/events"
	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/repositories"
)

const pendingInvoiceItemLimit = 50

// ConsumerServiceParams wires the consumer service's collaborators.
type ConsumerServiceParams struct {
	Consumers repositories.ConsumerRepository
	Orders    *OrderService
	Plans     *PlanService
	Billing   billing.Billing
	Geo       Geocoder
	Events    *events.Emitter
	Now       func() time.Time
}

// ConsumerService manages consumer records, their standing plan, and
// subscription cancellation.
type ConsumerService struct {
	consumers repositories.ConsumerRepository
	orders    *OrderService
	plans     *PlanService
	billing   billing.Billing
	geo       Geocoder
	events    *events.Emitter
	now       func() time.Time
}

func NewConsumerService(p ConsumerServiceParams) *ConsumerService {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &ConsumerService{
		consumers: p.Consumers,
		orders:    p.Orders,
		plans:     p.Plans,
		billing:   p.Billing,
		geo:       p.Geo,
		events:    p.Events,
		now:       p.Now,
	}
}

// InsertConsumer creates a new consumer with no plan or billing
// linkage. Fails if the id already exists.
func (s *ConsumerService) InsertConsumer(ctx context.Context, id, name, email string) (*models.Consumer, error) {
	existing, err := s.consumers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("couldn't search for consumer '%s': %w", id, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("consumer with id '%s' already exists", id)
	}
	consumer := &models.Consumer{
		ID:          id,
		CreatedDate: s.now().UnixMilli(),
		Profile: models.ConsumerProfile{
			Name:  name,
			Email: email,
		},
	}
	if err := s.consumers.Insert(ctx, consumer); err != nil {
		return nil, fmt.Errorf("couldn't insert consumer '%s': %w", id, err)
	}
	return consumer, nil
}

// GetConsumer returns the consumer with the given id, or nil.
func (s *ConsumerService) GetConsumer(ctx context.Context, id string) (*models.Consumer, error) {
	consumer, err := s.consumers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer '%s': %w", id, err)
	}
	return consumer, nil
}

// GetConsumerByCustomerID resolves a webhook's billing customer back to
// a consumer. A missing consumer is an error: the billing system never
// bills customers this service did not create.
func (s *ConsumerService) GetConsumerByCustomerID(ctx context.Context, customerID string) (*models.Consumer, error) {
	consumer, err := s.consumers.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to search for consumer with customer id '%s': %w", customerID, err)
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer with customer id '%s' not found", customerID)
	}
	return consumer, nil
}

func (s *ConsumerService) UpsertConsumer(ctx context.Context, consumer *models.Consumer) error {
	if err := s.consumers.Upsert(ctx, consumer); err != nil {
		return fmt.Errorf("failed to upsert consumer '%s': %w", consumer.ID, err)
	}
	return nil
}

// UpdateMyProfile verifies the new address, writes the profile, and
// ripples it into not-yet-started upcoming orders.
func (s *ConsumerService) UpdateMyProfile(ctx context.Context, consumer *models.Consumer, profile *models.ConsumerProfile) (ConsumerResult, error) {
	if profile.Destination == nil {
		return ConsumerResult{Error: cannotBeEmpty("Address")}, nil
	}
	addr := profile.Destination.Address
	if err := s.geo.Geocode(ctx, addr.Address1, addr.City, addr.State, addr.Zip); err != nil {
		msg := fmt.Sprintf("Couldn't verify address '%s'", addr.FullAddr())
		log.Printf("[ConsumerService] %s: %v", msg, err)
		return ConsumerResult{Error: msg}, nil
	}

	if err := s.consumers.UpdateFields(ctx, consumer.ID, map[string]interface{}{
		"profile": *profile,
	}); err != nil {
		log.Printf("[ConsumerService] failed to update profile for '%s': %v", consumer.ID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}
	if err := s.orders.UpdateUpcomingOrdersProfile(ctx, consumer.ID, profile); err != nil {
		log.Printf("[ConsumerService] failed to update upcoming orders for '%s': %v", consumer.ID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}

	updated := *consumer
	updated.Profile = *profile
	return ConsumerResult{Res: &updated}, nil
}

// UpdateMyPlan switches the consumer's standing plan: the consumer
// record and not-yet-started upcoming orders are repriced, and the
// subscription item moves to the new plan with its trial end anchored
// two days before the next delivery, without proration.
func (s *ConsumerService) UpdateMyPlan(ctx context.Context, consumer *models.Consumer, newPlan *models.ConsumerPlan, nextDeliveryDate int64) (ConsumerResult, error) {
	if consumer.SubscriptionID == "" {
		msg := "Missing subscription id"
		log.Printf("[ConsumerService] %s for '%s'", msg, consumer.ID)
		return ConsumerResult{Error: msg}, nil
	}
	if newPlan.Renewal == models.RenewalAuto && len(newPlan.Cuisines) == 0 {
		msg := fmt.Sprintf("Cuisines cannot be empty if renewal type is '%s'", models.RenewalAuto)
		log.Printf("[ConsumerService] %s", msg)
		return ConsumerResult{Error: msg}, nil
	}

	plan, err := s.plans.GetPlan(ctx, newPlan.PlanID)
	if err != nil {
		log.Printf("[ConsumerService] failed to get plan '%s': %v", newPlan.PlanID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}
	if plan == nil {
		msg := fmt.Sprintf("Can't find plan '%s'", newPlan.PlanID)
		log.Printf("[ConsumerService] %s", msg)
		return ConsumerResult{Error: msg}, nil
	}

	if err := s.consumers.UpdateFields(ctx, consumer.ID, map[string]interface{}{
		"plan": *newPlan,
	}); err != nil {
		log.Printf("[ConsumerService] failed to update plan for '%s': %v", consumer.ID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}

	subscription, err := s.billing.GetSubscription(ctx, consumer.SubscriptionID)
	if err != nil {
		log.Printf("[ConsumerService] failed to retrieve subscription '%s': %v", consumer.SubscriptionID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}

	if err := s.orders.UpdateUpcomingOrdersPlans(ctx, consumer.ID, newPlan, plan); err != nil {
		log.Printf("[ConsumerService] failed to update upcoming orders for '%s': %v", consumer.ID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}

	// the new cycle anchors two days before the next delivery
	trialEnd := time.UnixMilli(nextDeliveryDate).Add(-invoiceLeadTime).Unix()
	if _, err := s.billing.UpdateSubscription(ctx, consumer.SubscriptionID, billing.UpdateSubscriptionParams{
		ItemID:            subscription.Items.Data[0].ID,
		PlanID:            newPlan.PlanID,
		ProrationBehavior: "none",
		TrialEnd:          trialEnd,
	}); err != nil {
		log.Printf("[ConsumerService] failed to update subscription '%s': %v", consumer.SubscriptionID, err)
		return ConsumerResult{}, fmt.Errorf("internal server error")
	}

	updated := *consumer
	updated.Plan = newPlan
	return ConsumerResult{Res: &updated}, nil
}

// CancelSubscription tears down the consumer's recurring billing:
// pending invoice adjustments are removed, started orders are skipped,
// future orders are deleted, the subscription is deleted with a final
// invoice, and the consumer's billing linkage is cleared.
func (s *ConsumerService) CancelSubscription(ctx context.Context, consumer *models.Consumer) (BoolResult, error) {
	if consumer.SubscriptionID == "" {
		msg := "Missing subscription id"
		log.Printf("[ConsumerService] %s for '%s'", msg, consumer.ID)
		return BoolResult{Res: false, Error: msg}, nil
	}

	if consumer.CustomerID != "" {
		items, err := s.billing.ListPendingInvoiceItems(ctx, consumer.CustomerID, pendingInvoiceItemLimit)
		if err != nil {
			log.Printf("[ConsumerService] couldn't get pending invoice items for '%s': %v", consumer.CustomerID, err)
			return BoolResult{}, fmt.Errorf("internal server error")
		}
		for _, item := range items {
			if err := s.billing.DeleteInvoiceItem(ctx, item.ID); err != nil {
				log.Printf("[ConsumerService] couldn't remove pending invoice item '%s': %v", item.ID, err)
				return BoolResult{}, fmt.Errorf("internal server error")
			}
		}
	}

	orders, err := s.orders.GetMyUpcomingOrders(ctx, consumer.ID)
	if err != nil {
		log.Printf("[ConsumerService] couldn't get upcoming orders for '%s': %v", consumer.ID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}
	nowMs := s.now().UnixMilli()
	for _, order := range orders {
		if order.InvoiceDate > nowMs && !order.Started() {
			if err := s.orders.DeleteOrder(ctx, order.ID); err != nil {
				log.Printf("[ConsumerService] couldn't delete order '%s' for '%s': %v", order.ID, consumer.ID, err)
				return BoolResult{}, fmt.Errorf("internal server error")
			}
			continue
		}
		deliveries := models.CopyDeliveries(order.Deliveries)
		for i := range deliveries {
			if deliveries[i].CanSkip() {
				deliveries[i] = deliveries[i].Skipped()
			}
		}
		if err := s.orders.orders.UpdateFields(ctx, order.ID, map[string]interface{}{
			"deliveries": deliveries,
		}); err != nil {
			log.Printf("[ConsumerService] couldn't skip order '%s' for '%s': %v", order.ID, consumer.ID, err)
			return BoolResult{}, fmt.Errorf("internal server error")
		}
	}

	if err := s.billing.DeleteSubscription(ctx, consumer.SubscriptionID, true); err != nil {
		log.Printf("[ConsumerService] couldn't delete subscription '%s' for '%s': %v", consumer.SubscriptionID, consumer.ID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}

	if err := s.consumers.UpdateFields(ctx, consumer.ID, map[string]interface{}{
		"subscription_id": "",
		"plan":            nil,
	}); err != nil {
		log.Printf("[ConsumerService] couldn't clear billing linkage for '%s': %v", consumer.ID, err)
		return BoolResult{}, fmt.Errorf("internal server error")
	}

	s.events.SubscriptionCanceled(consumer.ID)
	return BoolResult{Res: true}, nil
}
