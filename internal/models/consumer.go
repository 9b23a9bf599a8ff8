package models

// Address is a US delivery address.
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

func (a Address) FullAddr() string {
	return a.Address1 + " " + a.City + " " + a.State + ", " + a.Zip
}

type Destination struct {
	Address      Address `json:"address"`
	Instructions string  `json:"instructions,omitempty"`
}

// Card is a display-only snapshot of a payment card. The processor
// stores the actual payment method.
type Card struct {
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type ConsumerProfile struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	Card        *Card        `json:"card,omitempty"`
	Destination *Destination `json:"destination,omitempty"`
}

// ConsumerMealPlan links one of the consumer's plans to its
// subscription line item. Usage is reported per subscription item.
type ConsumerMealPlan struct {
	PlanID             string `json:"plan_id"`
	PlanName           string `json:"plan_name"`
	MealCount          int    `json:"meal_count"`
	SubscriptionItemID string `json:"subscription_item_id"`
}

// ConsumerPlan holds the standing subscription preferences that drive
// auto-generation when renewal is Auto.
type ConsumerPlan struct {
	PlanID      string             `json:"plan_id"`
	DeliveryDay int                `json:"delivery_day"` // 0 (Sunday) - 6 (Saturday)
	Renewal     string             `json:"renewal"`
	Cuisines    []string           `json:"cuisines"`
	MealPlans   []ConsumerMealPlan `json:"meal_plans,omitempty"`
}

type Consumer struct {
	ID             string          `json:"id"`
	CreatedDate    int64           `json:"created_date"` // epoch ms
	CustomerID     string          `json:"customer_id,omitempty"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Profile        ConsumerProfile `json:"profile"`
	Plan           *ConsumerPlan   `json:"plan,omitempty"`
}
