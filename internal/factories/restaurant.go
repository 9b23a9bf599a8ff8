package factories

import (
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/SimonVuong/saute/internal/models"
)

var fake = faker.New()

// RestaurantFactory builds demo restaurants with cuisine-tagged active
// menus for the seed command and tests.
type RestaurantFactory struct{}

func (rf *RestaurantFactory) CreateRestaurant(mealsPerMenu int, plans []models.Plan) *models.Restaurant {
	cuisines := randomCuisines()
	rest := &models.Restaurant{
		ID:       cuid.New(),
		Name:     fake.Company().Name(),
		Cuisines: cuisines,
		TaxRate:  float64(fake.IntBetween(400, 1000)) / 10000,
	}
	for i := 0; i < mealsPerMenu; i++ {
		rest.Menu = append(rest.Menu, rf.CreateMeal(cuisines, plans))
	}
	return rest
}

func (rf *RestaurantFactory) CreateMeal(cuisines []string, plans []models.Plan) models.Meal {
	plan := plans[rand.Intn(len(plans))]
	cuisine := cuisines[rand.Intn(len(cuisines))]
	return models.Meal{
		ID:            cuid.New(),
		Img:           fake.Internet().URL(),
		Name:          mealName(cuisine),
		Description:   fake.Lorem().Sentence(8),
		OriginalPrice: int64(fake.IntBetween(800, 1800)),
		IsActive:      true,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Tags: []models.Tag{
			{Type: models.TagTypeCuisine, Name: cuisine},
			{Type: models.TagTypeCategory, Name: fake.Lorem().Word()},
		},
	}
}

func randomCuisines() []string {
	count := rand.Intn(3) + 1 // 1 to 3 cuisines
	cuisines := make([]string, count)
	for i := 0; i < count; i++ {
		cuisines[i] = models.Cuisines[rand.Intn(len(models.Cuisines))]
	}
	return cuisines
}

func mealName(cuisine string) string {
	names := map[string][]string{
		"American":      {"Smash Burger", "Buttermilk Fried Chicken", "Mac and Cheese", "Cobb Salad"},
		"Bbq":           {"Brisket Plate", "Pulled Pork Sandwich", "Smoked Ribs", "Burnt Ends"},
		"Chinese":       {"Kung Pao Chicken", "Mapo Tofu", "Beef Chow Fun", "Dan Dan Noodles"},
		"Indian":        {"Chicken Tikka Masala", "Chana Masala", "Lamb Vindaloo", "Palak Paneer"},
		"Italian":       {"Margherita Pizza", "Rigatoni Bolognese", "Chicken Parmigiana", "Mushroom Risotto"},
		"Japanese":      {"Chicken Katsu", "Salmon Teriyaki", "Tonkotsu Ramen", "Chirashi Bowl"},
		"Mediterranean": {"Chicken Shawarma", "Falafel Plate", "Lamb Kofta", "Greek Salad"},
		"Mexican":       {"Carnitas Tacos", "Chicken Enchiladas", "Carne Asada Bowl", "Veggie Quesadilla"},
		"Thai":          {"Pad Thai", "Green Curry", "Basil Fried Rice", "Tom Kha Soup"},
		"Vegan":         {"Buddha Bowl", "Lentil Curry", "Cauliflower Steak", "Vegan Pad See Ew"},
		"Vegetarian":    {"Eggplant Parmesan", "Veggie Stir Fry", "Caprese Panini", "Stuffed Peppers"},
	}
	if options, ok := names[cuisine]; ok {
		return options[rand.Intn(len(options))]
	}
	return fake.Lorem().Word()
}
