package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/models"
)

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*models.Order
	updates map[string][]map[string]interface{}
	deleted []string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[string]*models.Order),
		updates: make(map[string][]map[string]interface{}),
	}
}

func (r *fakeOrderRepo) Insert(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := order.Copy()
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := order.Copy()
	return &cp, nil
}

func (r *fakeOrderRepo) GetUpcomingByConsumer(ctx context.Context, consumerID string, fromMs int64) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, order := range r.orders {
		if order.ConsumerID == consumerID && order.FirstDeliveryDate() >= fromMs {
			cp := order.Copy()
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FirstDeliveryDate() < out[j].FirstDeliveryDate()
	})
	return out, nil
}

func (r *fakeOrderRepo) GetByInvoiceDateRange(ctx context.Context, consumerID string, fromMs, toMs int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ConsumerID == consumerID && order.InvoiceDate >= fromMs && order.InvoiceDate < toMs {
			cp := order.Copy()
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order '%s' not found", id)
	}
	for key, value := range fields {
		switch key {
		case "deliveries":
			order.Deliveries = models.CopyDeliveries(value.([]models.Delivery))
		case "costs":
			order.Costs = value.(models.Cost).Copy()
		case "invoice_id":
			order.InvoiceID = value.(string)
		case "donation_count":
			order.DonationCount = value.(int)
		case "is_auto_generated":
			order.IsAutoGenerated = value.(bool)
		case "cart_updated_date":
			order.CartUpdatedDate = value.(int64)
		case "phone":
			order.Phone = value.(string)
		case "name":
			order.Name = value.(string)
		case "destination":
			order.Destination = value.(models.Destination)
		}
	}
	r.updates[id] = append(r.updates[id], fields)
	return nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeOrderRepo) ListByDeliveryDateRange(ctx context.Context, fromMs, toMs int64) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, order := range r.orders {
		if d := order.FirstDeliveryDate(); d >= fromMs && d < toMs {
			cp := order.Copy()
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FirstDeliveryDate() < out[j].FirstDeliveryDate()
	})
	return out, nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *fakeOrderRepo) single() *models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		cp := order.Copy()
		return &cp
	}
	return nil
}

type fakeConsumerRepo struct {
	mu        sync.Mutex
	consumers map[string]*models.Consumer
	updates   map[string][]map[string]interface{}
}

func newFakeConsumerRepo() *fakeConsumerRepo {
	return &fakeConsumerRepo{
		consumers: make(map[string]*models.Consumer),
		updates:   make(map[string][]map[string]interface{}),
	}
}

func (r *fakeConsumerRepo) Insert(ctx context.Context, consumer *models.Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.consumers[consumer.ID]; ok {
		return fmt.Errorf("consumer '%s' already exists", consumer.ID)
	}
	cp := *consumer
	r.consumers[consumer.ID] = &cp
	return nil
}

func (r *fakeConsumerRepo) Upsert(ctx context.Context, consumer *models.Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *consumer
	r.consumers[consumer.ID] = &cp
	return nil
}

func (r *fakeConsumerRepo) GetByID(ctx context.Context, id string) (*models.Consumer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	consumer, ok := r.consumers[id]
	if !ok {
		return nil, nil
	}
	cp := *consumer
	return &cp, nil
}

func (r *fakeConsumerRepo) GetByCustomerID(ctx context.Context, customerID string) (*models.Consumer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, consumer := range r.consumers {
		if consumer.CustomerID == customerID {
			cp := *consumer
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConsumerRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	consumer, ok := r.consumers[id]
	if !ok {
		return fmt.Errorf("consumer '%s' not found", id)
	}
	for key, value := range fields {
		switch key {
		case "subscription_id":
			consumer.SubscriptionID = value.(string)
		case "customer_id":
			consumer.CustomerID = value.(string)
		case "profile":
			consumer.Profile = value.(models.ConsumerProfile)
		case "plan":
			if value == nil {
				consumer.Plan = nil
			} else {
				plan := value.(models.ConsumerPlan)
				consumer.Plan = &plan
			}
		}
	}
	r.updates[id] = append(r.updates[id], fields)
	return nil
}

type fakeRestRepo struct {
	mu    sync.Mutex
	rests map[string]*models.Restaurant
}

func newFakeRestRepo(rests ...*models.Restaurant) *fakeRestRepo {
	r := &fakeRestRepo{rests: make(map[string]*models.Restaurant)}
	for _, rest := range rests {
		r.rests[rest.ID] = rest
	}
	return r
}

func (r *fakeRestRepo) BulkCreate(ctx context.Context, rests []*models.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rest := range rests {
		r.rests[rest.ID] = rest
	}
	return nil
}

func (r *fakeRestRepo) Create(ctx context.Context, rest *models.Restaurant) error {
	return r.BulkCreate(ctx, []*models.Restaurant{rest})
}

func (r *fakeRestRepo) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.rests[id]
	if !ok {
		return nil, nil
	}
	return rest, nil
}

func (r *fakeRestRepo) GetByCuisines(ctx context.Context, cuisines []string) ([]*models.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Restaurant
	for _, rest := range r.rests {
		for _, want := range cuisines {
			matched := false
			for _, have := range rest.Cuisines {
				if have == want {
					out = append(out, rest)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRestRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rests), nil
}

func (r *fakeRestRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rests = make(map[string]*models.Restaurant)
	return nil
}

type usageRecord struct {
	SubscriptionItemID string
	Quantity           int
	Timestamp          int64
}

type updateSubscriptionCall struct {
	SubscriptionID string
	Params         billing.UpdateSubscriptionParams
}

// fakeBilling is an in-memory processor. Create* calls hand out
// sequential ids; failures are opt-in per method.
type fakeBilling struct {
	mu sync.Mutex

	plans         []billing.Plan
	customers     map[string]*billing.Customer
	subscriptions map[string]*billing.Subscription
	pendingItems  []billing.InvoiceItem

	createdInvoiceItems  []billing.InvoiceItem
	deletedInvoiceItems  []string
	deletedCustomers     []string
	deletedSubscriptions []string
	usageRecords         []usageRecord
	updateCalls          []updateSubscriptionCall
	listPlanCalls        int
	seq                  int

	failCreateSubscription bool
}

func newFakeBilling(plans ...billing.Plan) *fakeBilling {
	return &fakeBilling{
		plans:         plans,
		customers:     make(map[string]*billing.Customer),
		subscriptions: make(map[string]*billing.Subscription),
	}
}

func (b *fakeBilling) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s_%d", prefix, b.seq)
}

func (b *fakeBilling) planByID(planID string) *billing.Plan {
	for i := range b.plans {
		if b.plans[i].ID == planID {
			return &b.plans[i]
		}
	}
	return nil
}

func (b *fakeBilling) CreateCustomer(ctx context.Context, email, paymentMethodID string) (*billing.Customer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	customer := &billing.Customer{ID: b.nextID("cus"), Email: email}
	b.customers[customer.ID] = customer
	return customer, nil
}

func (b *fakeBilling) DeleteCustomer(ctx context.Context, customerID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.customers, customerID)
	b.deletedCustomers = append(b.deletedCustomers, customerID)
	return nil
}

func (b *fakeBilling) CreateSubscription(ctx context.Context, customerID, planID string) (*billing.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failCreateSubscription {
		return nil, fmt.Errorf("card declined")
	}
	sub := &billing.Subscription{ID: b.nextID("sub"), Customer: customerID, Plan: b.planByID(planID)}
	sub.Items.Data = []billing.SubscriptionItem{{ID: b.nextID("si"), Plan: b.planByID(planID)}}
	b.subscriptions[sub.ID] = sub
	return sub, nil
}

func (b *fakeBilling) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription '%s'", subscriptionID)
	}
	return sub, nil
}

func (b *fakeBilling) UpdateSubscription(ctx context.Context, subscriptionID string, params billing.UpdateSubscriptionParams) (*billing.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription '%s'", subscriptionID)
	}
	b.updateCalls = append(b.updateCalls, updateSubscriptionCall{SubscriptionID: subscriptionID, Params: params})
	sub.Plan = b.planByID(params.PlanID)
	for i := range sub.Items.Data {
		if sub.Items.Data[i].ID == params.ItemID {
			sub.Items.Data[i].Plan = sub.Plan
		}
	}
	return sub, nil
}

func (b *fakeBilling) DeleteSubscription(ctx context.Context, subscriptionID string, invoiceNow bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscriptions, subscriptionID)
	b.deletedSubscriptions = append(b.deletedSubscriptions, subscriptionID)
	return nil
}

func (b *fakeBilling) ListPendingInvoiceItems(ctx context.Context, customerID string, limit int) ([]billing.InvoiceItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []billing.InvoiceItem
	for _, item := range b.pendingItems {
		if item.Customer == customerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (b *fakeBilling) DeleteInvoiceItem(ctx context.Context, invoiceItemID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletedInvoiceItems = append(b.deletedInvoiceItems, invoiceItemID)
	return nil
}

func (b *fakeBilling) CreateInvoiceItem(ctx context.Context, customerID, invoiceID, description string, amount int64) (*billing.InvoiceItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item := billing.InvoiceItem{ID: b.nextID("ii"), Customer: customerID, Amount: amount, Description: description}
	b.createdInvoiceItems = append(b.createdInvoiceItems, item)
	return &item, nil
}

func (b *fakeBilling) CreateUsageRecord(ctx context.Context, subscriptionItemID string, quantity int, timestamp int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usageRecords = append(b.usageRecords, usageRecord{SubscriptionItemID: subscriptionItemID, Quantity: quantity, Timestamp: timestamp})
	return nil
}

func (b *fakeBilling) ListPlans(ctx context.Context, limit int) ([]billing.Plan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listPlanCalls++
	out := make([]billing.Plan, len(b.plans))
	copy(out, b.plans)
	return out, nil
}

func (b *fakeBilling) GetPlan(ctx context.Context, planID string) (*billing.Plan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.planByID(planID), nil
}

type fakeProducer struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{messages: make(map[string][][]byte)}
}

func (p *fakeProducer) WriteMessage(topic string, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = append(p.messages[topic], msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) topicCount(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[topic])
}

type failGeocoder struct{}

func (failGeocoder) Geocode(ctx context.Context, address1, city, state, zip string) error {
	return fmt.Errorf("no match for address")
}
