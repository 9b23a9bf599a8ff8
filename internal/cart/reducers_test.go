package cart

import (
	"errors"
	"testing"

	"github.com/SimonVuong/saute/internal/models"
)

func testMeal(id string) *models.Meal {
	return &models.Meal{
		ID:       id,
		Name:     "meal " + id,
		IsActive: true,
		PlanID:   "plan_6",
		PlanName: models.PlanNameStandard,
	}
}

func TestAddMealCreatesCart(t *testing.T) {
	next, err := AddMeal(testMeal("m1"), "rest-1", "Rest One", 0.0625)(nil)
	if err != nil {
		t.Fatalf("AddMeal error: %v", err)
	}
	if next.StandardMealCount() != 1 {
		t.Fatalf("meal count = %d, want 1", next.StandardMealCount())
	}
	group := next.RestMeals["rest-1"]
	if len(group.Meals) != 1 || group.Meals[0].MealID != "m1" {
		t.Fatalf("unexpected group meals: %+v", group.Meals)
	}
}

func TestAddMealIncrementsQuantity(t *testing.T) {
	add := AddMeal(testMeal("m1"), "rest-1", "Rest One", 0)
	c, _ := add(nil)
	c, err := add(c)
	if err != nil {
		t.Fatalf("AddMeal error: %v", err)
	}
	group := c.RestMeals["rest-1"]
	if len(group.Meals) != 1 {
		t.Fatalf("got %d distinct meals, want 1", len(group.Meals))
	}
	if group.Meals[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", group.Meals[0].Quantity)
	}
	if group.MealCount != 2 {
		t.Fatalf("group meal count = %d, want 2", group.MealCount)
	}
}

func TestAddMealAfterZeroResetsDeliveries(t *testing.T) {
	c := models.EmptyCart()
	c.Deliveries = []models.DeliveryInput{{DeliveryDate: 1}}
	c.Schedules = []models.Schedule{{Day: 2, Time: "NineAToElevenA"}}

	next, err := AddMeal(testMeal("m1"), "rest-1", "Rest One", 0)(&c)
	if err != nil {
		t.Fatalf("AddMeal error: %v", err)
	}
	if len(next.Deliveries) != 0 || len(next.Schedules) != 0 {
		t.Fatalf("deliveries/schedules not reset: %+v", next)
	}
}

func TestAddMealDoesNotMutateInput(t *testing.T) {
	add := AddMeal(testMeal("m1"), "rest-1", "Rest One", 0)
	first, _ := add(nil)
	if _, err := add(first); err != nil {
		t.Fatalf("AddMeal error: %v", err)
	}
	if first.RestMeals["rest-1"].MealCount != 1 {
		t.Fatal("reducer mutated prior snapshot")
	}
}

func TestRemoveMealNilCart(t *testing.T) {
	_, err := RemoveMeal("rest-1", "m1")(nil)
	if !errors.Is(err, models.ErrNilCart) {
		t.Fatalf("err = %v, want ErrNilCart", err)
	}
}

func TestRemoveLastMealKeepsDonations(t *testing.T) {
	c, _ := AddMeal(testMeal("m1"), "rest-1", "Rest One", 0)(nil)
	c, _ = IncrementDonation()(c)
	c, err := RemoveMeal("rest-1", "m1")(c)
	if err != nil {
		t.Fatalf("RemoveMeal error: %v", err)
	}
	if c.StandardMealCount() != 0 {
		t.Fatalf("meal count = %d, want 0", c.StandardMealCount())
	}
	if c.DonationCount != 1 {
		t.Fatalf("donation count = %d, want 1", c.DonationCount)
	}
	if len(c.Deliveries) != 0 {
		t.Fatal("deliveries not cleared at zero meals")
	}
}

func TestDonationReducers(t *testing.T) {
	c, err := IncrementDonation()(nil)
	if err != nil {
		t.Fatalf("IncrementDonation on nil cart error: %v", err)
	}
	if c.DonationCount != 1 {
		t.Fatalf("donation count = %d, want 1", c.DonationCount)
	}

	c, err = DecrementDonation()(c)
	if err != nil {
		t.Fatalf("DecrementDonation error: %v", err)
	}
	if c.DonationCount != 0 {
		t.Fatalf("donation count = %d, want 0", c.DonationCount)
	}

	if _, err := DecrementDonation()(c); err == nil {
		t.Fatal("expected error decrementing zero donations")
	}
	if _, err := DecrementDonation()(nil); !errors.Is(err, models.ErrNilCart) {
		t.Fatalf("err = %v, want ErrNilCart", err)
	}
}

// The count used for tier lookup is always standard meals plus
// donations, however the cart was built.
func TestTierLookupCountProperty(t *testing.T) {
	var c *models.Cart
	steps := []Reducer{
		AddMeal(testMeal("m1"), "rest-1", "Rest One", 0),
		AddMeal(testMeal("m2"), "rest-1", "Rest One", 0),
		IncrementDonation(),
		AddMeal(testMeal("m3"), "rest-2", "Rest Two", 0),
		IncrementDonation(),
		RemoveMeal("rest-1", "m2"),
	}
	for i, step := range steps {
		next, err := step(c)
		if err != nil {
			t.Fatalf("step %d error: %v", i, err)
		}
		c = next
	}
	if got := c.StandardMealCount() + c.DonationCount; got != 4 {
		t.Fatalf("tier lookup count = %d, want 4", got)
	}
	if got := models.CartMealCount(c.DeliveryMealList()); got != c.StandardMealCount() {
		t.Fatalf("flattened count %d != standard count %d", got, c.StandardMealCount())
	}
}

func TestDeliveryMealListOrderIsStable(t *testing.T) {
	var c *models.Cart
	steps := []Reducer{
		AddMeal(testMeal("m1"), "rest-c", "Rest C", 0),
		AddMeal(testMeal("m2"), "rest-a", "Rest A", 0),
		AddMeal(testMeal("m3"), "rest-b", "Rest B", 0),
	}
	for i, step := range steps {
		next, err := step(c)
		if err != nil {
			t.Fatalf("step %d error: %v", i, err)
		}
		c = next
	}

	wantRests := []string{"rest-a", "rest-b", "rest-c"}
	for i := 0; i < 10; i++ {
		meals := c.DeliveryMealList()
		if len(meals) != len(wantRests) {
			t.Fatalf("meals = %d, want %d", len(meals), len(wantRests))
		}
		for j, m := range meals {
			if m.RestID != wantRests[j] {
				t.Fatalf("meal %d from %s, want %s", j, m.RestID, wantRests[j])
			}
		}
	}
}

func TestInputValidation(t *testing.T) {
	c, _ := AddMeal(testMeal("m1"), "rest-1", "Rest One", 0)(nil)
	dest := models.Destination{Address: models.Address{Address1: "1 Main St", City: "Boston", State: "MA", Zip: "02101"}}
	plan := models.ConsumerPlan{PlanID: "plan_6", DeliveryDay: 2, Renewal: models.RenewalSkip}

	tests := []struct {
		name    string
		dest    models.Destination
		phone   string
		payment string
		wantErr bool
	}{
		{"valid", dest, "6175551234", "pm_1", false},
		{"missing address", models.Destination{}, "6175551234", "pm_1", true},
		{"missing phone", dest, "", "pm_1", true},
		{"missing payment method", dest, "6175551234", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Input(c, "rest-1", 1700000000000, "NineAToElevenA", plan, tt.dest, tt.phone, models.Card{Last4: "4242"}, tt.payment)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Input error: %v", err)
			}
			if in.RestID != "rest-1" || len(in.Meals) != 1 {
				t.Fatalf("unexpected input: %+v", in)
			}
		})
	}

	if _, err := Input(nil, "rest-1", 0, "", plan, dest, "p", models.Card{}, "pm"); !errors.Is(err, models.ErrNilCart) {
		t.Fatalf("err = %v, want ErrNilCart", err)
	}
}
