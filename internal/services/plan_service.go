package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/pricing"
)

const planListLimit = 100

// PlanService resolves the subscription tier catalog from the billing
// system. The catalog changes rarely, so listings are cached with a
// short TTL.
type PlanService struct {
	billing       billing.Billing
	defaultPlanID string
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	cached   []models.Plan
	cachedAt time.Time
}

func NewPlanService(b billing.Billing, defaultPlanID string, ttl time.Duration) *PlanService {
	return &PlanService{
		billing:       b,
		defaultPlanID: defaultPlanID,
		ttl:           ttl,
		now:           time.Now,
	}
}

// GetAvailablePlans returns the active tiers, cached per TTL window.
func (s *PlanService) GetAvailablePlans(ctx context.Context) ([]models.Plan, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		plans := make([]models.Plan, len(s.cached))
		copy(plans, s.cached)
		s.mu.Unlock()
		return plans, nil
	}
	s.mu.Unlock()

	billingPlans, err := s.billing.ListPlans(ctx, planListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	plans := make([]models.Plan, 0, len(billingPlans))
	for i := range billingPlans {
		plan, err := planFromBilling(&billingPlans[i])
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	s.mu.Lock()
	s.cached = plans
	s.cachedAt = s.now()
	s.mu.Unlock()

	out := make([]models.Plan, len(plans))
	copy(out, plans)
	return out, nil
}

// GetPlan returns the active tier with the given id, or nil if the
// billing system has no such active plan.
func (s *PlanService) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	billingPlan, err := s.billing.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan '%s': %w", planID, err)
	}
	if billingPlan == nil || !billingPlan.Active {
		return nil, nil
	}
	plan, err := planFromBilling(billingPlan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *PlanService) GetDefaultPlan(ctx context.Context) (*models.Plan, error) {
	return s.GetPlan(ctx, s.defaultPlanID)
}

// planFromBilling maps a billing plan and its tier metadata to a
// catalog tier. Metadata prices are decimal dollars; everything
// internal is cents.
func planFromBilling(p *billing.Plan) (models.Plan, error) {
	mealCount, err := strconv.Atoi(p.Metadata.MealCount)
	if err != nil {
		return models.Plan{}, fmt.Errorf("plan '%s' has bad mealCount '%s': %w", p.ID, p.Metadata.MealCount, err)
	}
	mealPrice, err := parseCents(p.Metadata.MealPrice)
	if err != nil {
		return models.Plan{}, fmt.Errorf("plan '%s' has bad mealPrice '%s': %w", p.ID, p.Metadata.MealPrice, err)
	}
	name := p.Nickname
	if name == "" {
		name = models.PlanNameStandard
	}
	return models.Plan{
		ID:        p.ID,
		Name:      name,
		MealCount: mealCount,
		MealPrice: mealPrice,
		WeekPrice: p.Amount,
	}, nil
}

func parseCents(dollars string) (int64, error) {
	f, err := strconv.ParseFloat(dollars, 64)
	if err != nil {
		return 0, err
	}
	return pricing.RoundCents(f * 100), nil
}
