package factories

import (
	"testing"

	"github.com/SimonVuong/saute/internal/models"
)

func TestCreateRestaurant(t *testing.T) {
	rf := &RestaurantFactory{}
	rest := rf.CreateRestaurant(12, DemoPlans())

	if rest.ID == "" || rest.Name == "" {
		t.Fatalf("restaurant = %+v", rest)
	}
	if len(rest.Menu) != 12 {
		t.Fatalf("menu = %d meals, want 12", len(rest.Menu))
	}
	if rest.TaxRate < 0.04 || rest.TaxRate > 0.10 {
		t.Fatalf("tax rate = %f, want within [0.04, 0.10]", rest.TaxRate)
	}
	if len(rest.Cuisines) < 1 || len(rest.Cuisines) > 3 {
		t.Fatalf("cuisines = %v", rest.Cuisines)
	}
	if !models.AreCuisinesValid(rest.Cuisines) {
		t.Fatalf("unknown cuisine in %v", rest.Cuisines)
	}

	for _, meal := range rest.Menu {
		if !meal.IsActive {
			t.Fatalf("meal %s not active", meal.ID)
		}
		if meal.OriginalPrice < 800 || meal.OriginalPrice > 1800 {
			t.Fatalf("meal price = %d, want within [800, 1800]", meal.OriginalPrice)
		}
		if meal.PlanName != models.PlanNameStandard {
			t.Fatalf("meal plan name = %s", meal.PlanName)
		}
		hasCuisine := false
		for _, tag := range meal.Tags {
			if tag.Type == models.TagTypeCuisine {
				hasCuisine = true
			}
		}
		if !hasCuisine {
			t.Fatalf("meal %s has no cuisine tag", meal.ID)
		}
	}
}

func TestCreateConsumer(t *testing.T) {
	cf := &ConsumerFactory{}
	plans := DemoPlans()
	for i := 0; i < 50; i++ {
		consumer := cf.CreateConsumer(plans)
		if consumer.ID == "" || consumer.Profile.Name == "" || consumer.Profile.Email == "" {
			t.Fatalf("consumer = %+v", consumer)
		}
		if consumer.Plan == nil {
			t.Fatal("consumer has no plan")
		}
		if !models.IsDeliveryDayValid(consumer.Plan.DeliveryDay) {
			t.Fatalf("delivery day = %d", consumer.Plan.DeliveryDay)
		}
		if !models.IsRenewalValid(consumer.Plan.Renewal) {
			t.Fatalf("renewal = %s", consumer.Plan.Renewal)
		}
		if consumer.Plan.Renewal == models.RenewalAuto && len(consumer.Plan.Cuisines) == 0 {
			t.Fatal("an Auto renewal consumer must have cuisines")
		}
		if consumer.Profile.Destination == nil {
			t.Fatal("consumer has no destination")
		}
	}
}

func TestDemoPlans(t *testing.T) {
	plans := DemoPlans()
	if len(plans) != 3 {
		t.Fatalf("plans = %d, want 3", len(plans))
	}
	want := map[int]int64{4: 1350, 8: 1150, 12: 1000}
	for _, plan := range plans {
		price, ok := want[plan.MealCount]
		if !ok {
			t.Fatalf("unexpected tier %d", plan.MealCount)
		}
		if plan.MealPrice != price {
			t.Fatalf("tier %d price = %d, want %d", plan.MealCount, plan.MealPrice, price)
		}
		if plan.WeekPrice != plan.MealPrice*int64(plan.MealCount) {
			t.Fatalf("tier %d week price = %d", plan.MealCount, plan.WeekPrice)
		}
		if plan.Name != models.PlanNameStandard {
			t.Fatalf("plan name = %s", plan.Name)
		}
	}
}
