package models

// Plan is one pricing tier of the subscription catalog: buying
// MealCount meals per week costs MealPrice per meal.
type Plan struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MealCount int    `json:"meal_count"`
	MealPrice int64  `json:"meal_price"` // cents
	WeekPrice int64  `json:"week_price"` // cents
}
