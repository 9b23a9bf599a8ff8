// Package billing consumes the payment processor's recurring-billing
// capability: customers, subscriptions, invoice items, metered usage,
// and the plan catalog. The processor's primitives are consumed over
// its REST API, never reimplemented.
package billing

import "context"

// PlanMetadata carries the tier attributes the processor stores per
// plan.
type PlanMetadata struct {
	MealCount string `json:"mealCount"`
	MealPrice string `json:"mealPrice"`
}

type Plan struct {
	ID       string       `json:"id"`
	Active   bool         `json:"active"`
	Amount   int64        `json:"amount"` // week price, cents
	Nickname string       `json:"nickname"`
	Metadata PlanMetadata `json:"metadata"`
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type SubscriptionItem struct {
	ID   string `json:"id"`
	Plan *Plan  `json:"plan,omitempty"`
}

type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Plan     *Plan  `json:"plan,omitempty"`
	Items    struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

type Period struct {
	Start int64 `json:"start"` // epoch seconds
	End   int64 `json:"end"`   // epoch seconds
}

type InvoiceLine struct {
	ID               string `json:"id"`
	SubscriptionItem string `json:"subscription_item"`
	Plan             *Plan  `json:"plan,omitempty"`
	Period           Period `json:"period"`
}

type Invoice struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	BillingReason string `json:"billing_reason"`
	Lines         struct {
		Data []InvoiceLine `json:"data"`
	} `json:"lines"`
}

type InvoiceItem struct {
	ID          string `json:"id"`
	Customer    string `json:"customer"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Event is a signed webhook event envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Invoice `json:"object"`
	} `json:"data"`
}

// UpdateSubscriptionParams describes a plan switch on an existing
// subscription.
type UpdateSubscriptionParams struct {
	ItemID            string
	PlanID            string
	ProrationBehavior string // "none" on manual plan switches
	TrialEnd          int64  // epoch seconds; 0 leaves the cycle anchor alone
}

// Billing is the processor capability the lifecycle service depends on.
type Billing interface {
	CreateCustomer(ctx context.Context, email, paymentMethodID string) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error

	CreateSubscription(ctx context.Context, customerID, planID string) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, params UpdateSubscriptionParams) (*Subscription, error)
	DeleteSubscription(ctx context.Context, subscriptionID string, invoiceNow bool) error

	ListPendingInvoiceItems(ctx context.Context, customerID string, limit int) ([]InvoiceItem, error)
	DeleteInvoiceItem(ctx context.Context, invoiceItemID string) error
	CreateInvoiceItem(ctx context.Context, customerID, invoiceID, description string, amount int64) (*InvoiceItem, error)

	CreateUsageRecord(ctx context.Context, subscriptionItemID string, quantity int, timestamp int64) error

	ListPlans(ctx context.Context, limit int) ([]Plan, error)
	GetPlan(ctx context.Context, planID string) (*Plan, error)
}
