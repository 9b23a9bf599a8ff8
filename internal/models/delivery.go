package models

// DeliveryMeal is a meal snapshotted into a delivery. It is never
// mutated, only replaced.
type DeliveryMeal struct {
	MealID             string  `json:"meal_id"`
	Img                string  `json:"img,omitempty"`
	Name               string  `json:"name"`
	Quantity           int     `json:"quantity"`
	RestID             string  `json:"rest_id"`
	RestName           string  `json:"rest_name"`
	PlanID             string  `json:"plan_id"`
	PlanName           string  `json:"plan_name"`
	TaxRate            float64 `json:"tax_rate"`
	SubscriptionItemID string  `json:"subscription_item_id,omitempty"`
}

// NewDeliveryMeal snapshots a catalog meal for delivery.
func NewDeliveryMeal(meal *Meal, restID, restName string, taxRate float64, quantity int) DeliveryMeal {
	return DeliveryMeal{
		MealID:   meal.ID,
		Img:      meal.Img,
		Name:     meal.Name,
		Quantity: quantity,
		RestID:   restID,
		RestName: restName,
		PlanID:   meal.PlanID,
		PlanName: meal.PlanName,
		TaxRate:  taxRate,
	}
}

// DeliveryInput is a delivery before it enters an order.
type DeliveryInput struct {
	DeliveryTime string         `json:"delivery_time"`
	DeliveryDate int64          `json:"delivery_date"` // epoch ms
	Discount     *int64         `json:"discount,omitempty"`
	Meals        []DeliveryMeal `json:"meals"`
}

func (d *DeliveryInput) MealCount() int {
	count := 0
	for _, m := range d.Meals {
		count += m.Quantity
	}
	return count
}

// TotalMealCount sums meal quantities across deliveries.
func TotalMealCount(deliveries []DeliveryInput) int {
	count := 0
	for i := range deliveries {
		count += deliveries[i].MealCount()
	}
	return count
}

// Delivery adds status to a DeliveryInput.
type Delivery struct {
	DeliveryInput
	Status string `json:"status"`
}

func NewDelivery(in DeliveryInput) Delivery {
	return Delivery{DeliveryInput: copyDeliveryInput(in), Status: DeliveryStatusOpen}
}

func NewDeliveries(inputs []DeliveryInput) []Delivery {
	deliveries := make([]Delivery, len(inputs))
	for i, in := range inputs {
		deliveries[i] = NewDelivery(in)
	}
	return deliveries
}

// CanConfirm reports whether the delivery may move to Confirmed.
// Skipped and Canceled are terminal and invoice-time confirmation only
// picks up deliveries still Open.
func (d *Delivery) CanConfirm() bool {
	return d.Status == DeliveryStatusOpen
}

// CanSkip reports whether the delivery may be skipped. Skipping is only
// allowed from Open.
func (d *Delivery) CanSkip() bool {
	return d.Status == DeliveryStatusOpen
}

// Skipped returns a copy with status Skipped and no meals. A skipped
// delivery always carries an empty meal list.
func (d Delivery) Skipped() Delivery {
	return Delivery{
		DeliveryInput: DeliveryInput{
			DeliveryTime: d.DeliveryTime,
			DeliveryDate: d.DeliveryDate,
			Discount:     copyDiscount(d.Discount),
			Meals:        []DeliveryMeal{},
		},
		Status: DeliveryStatusSkipped,
	}
}

// Confirmed returns a copy with status Confirmed, snapshotting the meal
// set actually billed.
func (d Delivery) Confirmed() Delivery {
	out := d.Copy()
	out.Status = DeliveryStatusConfirmed
	return out
}

func (d Delivery) Copy() Delivery {
	return Delivery{DeliveryInput: copyDeliveryInput(d.DeliveryInput), Status: d.Status}
}

func CopyDeliveries(deliveries []Delivery) []Delivery {
	out := make([]Delivery, len(deliveries))
	for i, d := range deliveries {
		out[i] = d.Copy()
	}
	return out
}

// DeliveryInputs widens deliveries for pricing, which operates on
// inputs regardless of status.
func DeliveryInputs(deliveries []Delivery) []DeliveryInput {
	inputs := make([]DeliveryInput, len(deliveries))
	for i, d := range deliveries {
		inputs[i] = d.DeliveryInput
	}
	return inputs
}

// ConfirmedMealCounts aggregates meal quantity per plan id across
// deliveries, used for usage reporting.
func ConfirmedMealCounts(deliveries []Delivery) map[string]int {
	counts := make(map[string]int)
	for _, d := range deliveries {
		if d.Status != DeliveryStatusConfirmed {
			continue
		}
		for _, m := range d.Meals {
			counts[m.PlanID] += m.Quantity
		}
	}
	return counts
}

func copyDeliveryInput(in DeliveryInput) DeliveryInput {
	meals := make([]DeliveryMeal, len(in.Meals))
	copy(meals, in.Meals)
	return DeliveryInput{
		DeliveryTime: in.DeliveryTime,
		DeliveryDate: in.DeliveryDate,
		Discount:     copyDiscount(in.Discount),
		Meals:        meals,
	}
}

func copyDiscount(d *int64) *int64 {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
