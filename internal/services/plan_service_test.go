package services

import (
	"context"
	"testing"
	"time"

	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/models"
)

func TestGetAvailablePlansMapsTiers(t *testing.T) {
	fb := newFakeBilling(testBillingPlans()...)
	ps := NewPlanService(fb, "plan_12", time.Minute)

	plans, err := ps.GetAvailablePlans(context.Background())
	if err != nil {
		t.Fatalf("GetAvailablePlans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("plans = %d, want 3", len(plans))
	}
	want := models.Plan{ID: "plan_4", Name: models.PlanNameStandard, MealCount: 4, MealPrice: 1350, WeekPrice: 5400}
	if plans[0] != want {
		t.Fatalf("plan = %+v, want %+v", plans[0], want)
	}
}

func TestGetAvailablePlansCachesWithinTTL(t *testing.T) {
	fb := newFakeBilling(testBillingPlans()...)
	ps := NewPlanService(fb, "plan_12", time.Minute)
	clock := testNow
	ps.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if _, err := ps.GetAvailablePlans(context.Background()); err != nil {
			t.Fatalf("GetAvailablePlans: %v", err)
		}
	}
	if fb.listPlanCalls != 1 {
		t.Fatalf("list calls = %d, want 1 within the TTL", fb.listPlanCalls)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := ps.GetAvailablePlans(context.Background()); err != nil {
		t.Fatalf("GetAvailablePlans: %v", err)
	}
	if fb.listPlanCalls != 2 {
		t.Fatalf("list calls = %d, want 2 after the TTL expired", fb.listPlanCalls)
	}
}

func TestGetAvailablePlansReturnsCopies(t *testing.T) {
	fb := newFakeBilling(testBillingPlans()...)
	ps := NewPlanService(fb, "plan_12", time.Minute)

	first, err := ps.GetAvailablePlans(context.Background())
	if err != nil {
		t.Fatalf("GetAvailablePlans: %v", err)
	}
	first[0].MealPrice = 1

	second, err := ps.GetAvailablePlans(context.Background())
	if err != nil {
		t.Fatalf("GetAvailablePlans: %v", err)
	}
	if second[0].MealPrice != 1350 {
		t.Fatal("a caller's edit leaked into the cache")
	}
}

func TestGetPlanInactiveOrMissing(t *testing.T) {
	fb := newFakeBilling(
		billing.Plan{ID: "plan_old", Active: false, Metadata: billing.PlanMetadata{MealCount: "4", MealPrice: "13.50"}},
	)
	ps := NewPlanService(fb, "plan_old", time.Minute)

	plan, err := ps.GetPlan(context.Background(), "plan_old")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan != nil {
		t.Fatal("an inactive plan must resolve to nil")
	}
	plan, err = ps.GetPlan(context.Background(), "plan_404")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan != nil {
		t.Fatal("a missing plan must resolve to nil")
	}
}

func TestGetPlanRejectsBadMetadata(t *testing.T) {
	fb := newFakeBilling(
		billing.Plan{ID: "plan_bad", Active: true, Metadata: billing.PlanMetadata{MealCount: "four", MealPrice: "13.50"}},
	)
	ps := NewPlanService(fb, "plan_bad", time.Minute)
	if _, err := ps.GetPlan(context.Background(), "plan_bad"); err == nil {
		t.Fatal("expected an error for non-numeric mealCount metadata")
	}
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		dollars string
		want    int64
	}{
		{"13.50", 1350},
		{"10", 1000},
		{"11.50", 1150},
		{"0.01", 1},
	}
	for _, tt := range tests {
		got, err := parseCents(tt.dollars)
		if err != nil {
			t.Fatalf("parseCents(%q): %v", tt.dollars, err)
		}
		if got != tt.want {
			t.Fatalf("parseCents(%q) = %d, want %d", tt.dollars, got, tt.want)
		}
	}
	if _, err := parseCents("ten"); err == nil {
		t.Fatal("expected an error for a non-numeric price")
	}
}
