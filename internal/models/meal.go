package models

// Tag marks a meal with a cuisine or category label.
type Tag struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Meal is a catalog entry owned by a restaurant. Catalog meals are
// immutable; a meal chosen for delivery is snapshotted into a
// DeliveryMeal.
type Meal struct {
	ID            string `json:"id"`
	Img           string `json:"img,omitempty"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	OriginalPrice int64  `json:"original_price"` // cents
	IsActive      bool   `json:"is_active"`
	PlanID        string `json:"plan_id"`
	PlanName      string `json:"plan_name"`
	Tags          []Tag  `json:"tags"`
}

func (m *Meal) HasCuisine(cuisines []string) bool {
	for _, c := range cuisines {
		for _, t := range m.Tags {
			if t.Type == TagTypeCuisine && t.Name == c {
				return true
			}
		}
	}
	return false
}

type Restaurant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Cuisines []string `json:"cuisines"`
	TaxRate  float64  `json:"tax_rate"`
	Menu     []Meal   `json:"menu"`
}

// ActiveMeals returns the orderable subset of the menu, optionally
// narrowed to meals tagged with any of the given cuisines.
func (r *Restaurant) ActiveMeals(cuisines []string) []Meal {
	var meals []Meal
	for _, m := range r.Menu {
		if !m.IsActive {
			continue
		}
		if len(cuisines) > 0 && !m.HasCuisine(cuisines) {
			continue
		}
		meals = append(meals, m)
	}
	return meals
}

func (r *Restaurant) FindMeal(mealID string) *Meal {
	for i := range r.Menu {
		if r.Menu[i].ID == mealID {
			return &r.Menu[i]
		}
	}
	return nil
}
