// Package server exposes the billing webhook endpoint the subscription
// lifecycle reacts to.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/SimonVuong/saute/internal/billing"
	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/pricing"
	"github.com/SimonVuong/saute/internal/services"
)

const (
	// automaticOrderWeeksAhead is how far out the invoice-upcoming hook
	// generates: one week ahead would be the nextnext order, so two.
	automaticOrderWeeksAhead = 2
	// automaticOrderInvoiceLead is the invoice date of that generated
	// order, one week past its generation horizon.
	automaticOrderInvoiceLead = 3 * 7 * 24 * time.Hour

	maxWebhookBody = 1 << 20
)

// ServerParams wires the HTTP server's collaborators.
type ServerParams struct {
	ListenAddr    string
	WebhookSecret string
	Orders        *services.OrderService
	Consumers     *services.ConsumerService
	Plans         *services.PlanService
	Now           func() time.Time
}

type Server struct {
	listenAddr    string
	webhookSecret string
	orders        *services.OrderService
	consumers     *services.ConsumerService
	plans         *services.PlanService
	now           func() time.Time
}

func New(p ServerParams) *Server {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Server{
		listenAddr:    p.ListenAddr,
		webhookSecret: p.WebhookSecret,
		orders:        p.Orders,
		consumers:     p.Consumers,
		plans:         p.Plans,
		now:           p.Now,
	}
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/webhooks/billing", s.HandleBillingWebhook)
	return mux
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", s.listenAddr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// HandleBillingWebhook verifies and dispatches signed billing events.
// Unhandled event types are acknowledged and ignored. The handler
// tolerates at-least-once delivery: confirmation checks delivery status
// and usage reporting is isolated per line item.
func (s *Server) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	event, err := billing.ParseEvent(payload, r.Header.Get("Billing-Signature"), s.webhookSecret, s.now())
	if err != nil {
		log.Printf("[SubscriptionHook] %v", err)
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	if event.Type != "invoice.upcoming" && event.Type != "invoice.created" {
		log.Printf("[SubscriptionHook] Unhandled event type: %s", event.Type)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"received":true}`)
		return
	}

	ctx := r.Context()
	invoice := &event.Data.Object
	consumer, err := s.consumers.GetConsumerByCustomerID(ctx, invoice.Customer)
	if err != nil {
		log.Printf("[SubscriptionHook] %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if event.Type == "invoice.upcoming" {
		err = s.handleInvoiceUpcoming(ctx, consumer)
	} else {
		err = s.handleInvoiceCreated(ctx, consumer, invoice)
	}
	if err != nil {
		log.Printf("[SubscriptionHook] %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"received":true}`)
}

func (s *Server) handleInvoiceUpcoming(ctx context.Context, consumer *models.Consumer) error {
	var mealPlans []models.ConsumerMealPlan
	if consumer.Plan != nil {
		if len(consumer.Plan.MealPlans) == 0 {
			return fmt.Errorf("received upcoming invoice for consumer '%s' with no meal plans", consumer.ID)
		}
		mealPlans = consumer.Plan.MealPlans
	}
	plans, err := s.plans.GetAvailablePlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to get plans: %w", err)
	}
	mealPrices, err := pricing.PricesForMealPlans(plans, mealPlans)
	if err != nil {
		return fmt.Errorf("failed to price meal plans for '%s': %w", consumer.ID, err)
	}
	invoiceDate := s.now().Add(automaticOrderInvoiceLead).UnixMilli()
	if err := s.orders.AddAutomaticOrder(ctx, automaticOrderWeeksAhead, consumer, invoiceDate, mealPrices); err != nil {
		return fmt.Errorf("failed to generate automatic order for '%s': %w", consumer.ID, err)
	}
	return nil
}

func (s *Server) handleInvoiceCreated(ctx context.Context, consumer *models.Consumer, invoice *billing.Invoice) error {
	// the first invoice of a new subscription has nothing to confirm
	if invoice.BillingReason == "subscription_create" {
		return nil
	}
	order, err := s.orders.ConfirmCurrentOrderDeliveries(ctx, consumer.ID)
	if err != nil {
		return fmt.Errorf("failed to confirm deliveries for '%s': %w", consumer.ID, err)
	}
	// redelivered events must not push a second round of invoice items
	if order.InvoiceID != invoice.ID {
		if err := s.orders.SetOrderInvoiceID(ctx, order.ID, invoice.ID); err != nil {
			return err
		}
		if err := s.orders.ProcessTaxesAndFees(ctx, invoice.Customer, invoice.ID, order.Costs, len(order.Deliveries)-1); err != nil {
			return err
		}
	}
	// a canceled subscription has no plan left to meter usage against
	if consumer.Plan == nil {
		return nil
	}
	confirmedCounts := models.ConfirmedMealCounts(order.Deliveries)
	for _, line := range invoice.Lines.Data {
		if line.SubscriptionItem == "" || line.Plan == nil {
			continue
		}
		timestamp := line.Period.End - 60
		if err := s.orders.SetOrderUsage(ctx, line.SubscriptionItem, confirmedCounts[line.Plan.ID], timestamp); err != nil {
			// one line item's failure must not block the others
			log.Printf("Failed to set order usage for order '%s': %v", order.ID, err)
		}
	}
	return nil
}
