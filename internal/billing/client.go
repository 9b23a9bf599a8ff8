package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the processor's form-encoded REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("billing request %s %s failed: %w", method, path, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read billing response: %w", err)
	}
	if res.StatusCode >= 400 {
		return &APIError{Status: res.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode billing response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the processor.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billing API error (status %d): %s", e.Status, e.Body)
}

func (c *Client) CreateCustomer(ctx context.Context, email, paymentMethodID string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("payment_method", paymentMethodID)
	form.Set("invoice_settings[default_payment_method]", paymentMethodID)
	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	return c.do(ctx, http.MethodDelete, "/customers/"+customerID, nil, nil)
}

func (c *Client) CreateSubscription(ctx context.Context, customerID, planID string) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	// fails on any id that isn't an active plan
	form.Set("items[0][plan]", planID)
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, params UpdateSubscriptionParams) (*Subscription, error) {
	form := url.Values{}
	if params.ProrationBehavior != "" {
		form.Set("proration_behavior", params.ProrationBehavior)
	}
	if params.TrialEnd > 0 {
		form.Set("trial_end", strconv.FormatInt(params.TrialEnd, 10))
	}
	if params.ItemID != "" {
		form.Set("items[0][id]", params.ItemID)
		form.Set("items[0][plan]", params.PlanID)
	}
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+subscriptionID, form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) DeleteSubscription(ctx context.Context, subscriptionID string, invoiceNow bool) error {
	form := url.Values{}
	form.Set("invoice_now", strconv.FormatBool(invoiceNow))
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, form, nil)
}

func (c *Client) ListPendingInvoiceItems(ctx context.Context, customerID string, limit int) ([]InvoiceItem, error) {
	path := fmt.Sprintf("/invoiceitems?customer=%s&pending=true&limit=%d", url.QueryEscape(customerID), limit)
	var list struct {
		Data []InvoiceItem `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) DeleteInvoiceItem(ctx context.Context, invoiceItemID string) error {
	return c.do(ctx, http.MethodDelete, "/invoiceitems/"+invoiceItemID, nil, nil)
}

func (c *Client) CreateInvoiceItem(ctx context.Context, customerID, invoiceID, description string, amount int64) (*InvoiceItem, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("invoice", invoiceID)
	form.Set("description", description)
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", "usd")
	var item InvoiceItem
	if err := c.do(ctx, http.MethodPost, "/invoiceitems", form, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) CreateUsageRecord(ctx context.Context, subscriptionItemID string, quantity int, timestamp int64) error {
	form := url.Values{}
	form.Set("quantity", strconv.Itoa(quantity))
	form.Set("timestamp", strconv.FormatInt(timestamp, 10))
	form.Set("action", "set")
	return c.do(ctx, http.MethodPost, "/subscription_items/"+subscriptionItemID+"/usage_records", form, nil)
}

func (c *Client) ListPlans(ctx context.Context, limit int) ([]Plan, error) {
	path := fmt.Sprintf("/plans?active=true&limit=%d", limit)
	var list struct {
		Data []Plan `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	var plan Plan
	if err := c.do(ctx, http.MethodGet, "/plans/"+planID, nil, &plan); err != nil {
		// an unknown plan id is a lookup miss, not a transport failure
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}
