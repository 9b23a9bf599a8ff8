package models

// Order is one invoice cycle: the deliveries billed together, their
// costs, and the destination they ship to.
type Order struct {
	ID              string      `json:"id"`
	ConsumerID      string      `json:"consumer_id"`
	SubscriptionID  string      `json:"subscription_id"`
	CreatedDate     int64       `json:"created_date"`      // epoch ms
	CartUpdatedDate int64       `json:"cart_updated_date"` // epoch ms
	InvoiceDate     int64       `json:"invoice_date"`      // epoch ms
	IsAutoGenerated bool        `json:"is_auto_generated"`
	Destination     Destination `json:"destination"`
	Costs           Cost        `json:"costs"`
	Phone           string      `json:"phone"`
	Name            string      `json:"name"`
	DonationCount   int         `json:"donation_count"`
	Deliveries      []Delivery  `json:"deliveries"`
	InvoiceID       string      `json:"invoice_id,omitempty"`
}

// MealCountForPlan sums the order's meal quantities for one plan name.
// Donations are purchased at the Standard tier, so they count toward
// Standard.
func (o *Order) MealCountForPlan(planName string) int {
	count := 0
	for i := range o.Deliveries {
		for _, m := range o.Deliveries[i].Meals {
			if m.PlanName == planName {
				count += m.Quantity
			}
		}
	}
	if planName == PlanNameStandard {
		count += o.DonationCount
	}
	return count
}

// FirstDeliveryDate returns the earliest delivery date in the order, or
// 0 for an order with no deliveries.
func (o *Order) FirstDeliveryDate() int64 {
	var first int64
	for i := range o.Deliveries {
		if d := o.Deliveries[i].DeliveryDate; first == 0 || d < first {
			first = d
		}
	}
	return first
}

// Started reports whether any delivery has left the Open state.
func (o *Order) Started() bool {
	for i := range o.Deliveries {
		if o.Deliveries[i].Status != DeliveryStatusOpen {
			return true
		}
	}
	return false
}

func (o *Order) Copy() Order {
	out := *o
	out.Deliveries = CopyDeliveries(o.Deliveries)
	out.Costs = o.Costs.Copy()
	return out
}
