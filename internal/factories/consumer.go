package factories

import (
	"math/rand"
	"time"

	"github.com/lucsky/cuid"

	"github.com/SimonVuong/saute/internal/models"
)

// ConsumerFactory builds demo consumers with standing plans.
type ConsumerFactory struct{}

func (cf *ConsumerFactory) CreateConsumer(plans []models.Plan) *models.Consumer {
	plan := plans[rand.Intn(len(plans))]
	renewal := models.RenewalSkip
	cuisines := []string{}
	if fake.Bool() {
		renewal = models.RenewalAuto
		cuisines = randomCuisines()
	}
	address := models.Address{
		Address1: fake.Address().StreetAddress(),
		City:     fake.Address().City(),
		State:    fake.Address().StateAbbr(),
		Zip:      fake.Address().PostCode(),
	}
	return &models.Consumer{
		ID:          cuid.New(),
		CreatedDate: time.Now().UnixMilli(),
		Profile: models.ConsumerProfile{
			Name:  fake.Person().Name(),
			Email: fake.Internet().Email(),
			Phone: fake.Phone().Number(),
			Card: &models.Card{
				Last4:    fake.Numerify("####"),
				ExpMonth: fake.IntBetween(1, 12),
				ExpYear:  time.Now().Year() + fake.IntBetween(1, 4),
			},
			Destination: &models.Destination{Address: address},
		},
		Plan: &models.ConsumerPlan{
			PlanID:      plan.ID,
			DeliveryDay: rand.Intn(7),
			Renewal:     renewal,
			Cuisines:    cuisines,
			MealPlans: []models.ConsumerMealPlan{{
				PlanID:    plan.ID,
				PlanName:  plan.Name,
				MealCount: plan.MealCount,
			}},
		},
	}
}

// DemoPlans is a fixed tier catalog for seeding and tests: Standard in
// three tiers with the per-meal price falling as volume rises.
func DemoPlans() []models.Plan {
	return []models.Plan{
		{ID: "plan_standard_4", Name: models.PlanNameStandard, MealCount: 4, MealPrice: 1350, WeekPrice: 5400},
		{ID: "plan_standard_8", Name: models.PlanNameStandard, MealCount: 8, MealPrice: 1150, WeekPrice: 9200},
		{ID: "plan_standard_12", Name: models.PlanNameStandard, MealCount: 12, MealPrice: 1000, WeekPrice: 12000},
	}
}
