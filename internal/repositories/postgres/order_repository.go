package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SimonVuong/saute/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	destination, err := json.Marshal(order.Destination)
	if err != nil {
		return fmt.Errorf("failed to marshal destination: %w", err)
	}
	costs, err := json.Marshal(order.Costs)
	if err != nil {
		return fmt.Errorf("failed to marshal costs: %w", err)
	}
	deliveries, err := json.Marshal(order.Deliveries)
	if err != nil {
		return fmt.Errorf("failed to marshal deliveries: %w", err)
	}

	query := `
        INSERT INTO orders (
            id, consumer_id, subscription_id, invoice_id, created_date,
            cart_updated_date, invoice_date, first_delivery_date,
            is_auto_generated, donation_count, phone, name,
            destination, costs, deliveries
        ) VALUES (
            $1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
        )
    `
	_, err = r.pool.Exec(ctx, query,
		order.ID,
		order.ConsumerID,
		order.SubscriptionID,
		order.InvoiceID,
		order.CreatedDate,
		order.CartUpdatedDate,
		order.InvoiceDate,
		order.FirstDeliveryDate(),
		order.IsAutoGenerated,
		order.DonationCount,
		order.Phone,
		order.Name,
		destination,
		costs,
		deliveries,
	)
	return err
}

const orderColumns = `
        id, consumer_id, subscription_id, COALESCE(invoice_id, ''),
        created_date, cart_updated_date, invoice_date, is_auto_generated,
        donation_count, phone, name, destination, costs, deliveries
`

func (r *OrderRepository) scanOrder(row pgx.Row) (*models.Order, error) {
	order := &models.Order{}
	var destination, costs, deliveries []byte
	err := row.Scan(
		&order.ID,
		&order.ConsumerID,
		&order.SubscriptionID,
		&order.InvoiceID,
		&order.CreatedDate,
		&order.CartUpdatedDate,
		&order.InvoiceDate,
		&order.IsAutoGenerated,
		&order.DonationCount,
		&order.Phone,
		&order.Name,
		&destination,
		&costs,
		&deliveries,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(destination, &order.Destination); err != nil {
		return nil, fmt.Errorf("failed to unmarshal destination: %w", err)
	}
	if err := json.Unmarshal(costs, &order.Costs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal costs: %w", err)
	}
	if err := json.Unmarshal(deliveries, &order.Deliveries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deliveries: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOrder(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return order, err
}

func (r *OrderRepository) GetUpcomingByConsumer(ctx context.Context, consumerID string, fromMs int64) ([]*models.Order, error) {
	query := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE consumer_id = $1 AND first_delivery_date >= $2
        ORDER BY first_delivery_date ASC
    `
	rows, err := r.pool.Query(ctx, query, consumerID, fromMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) GetByInvoiceDateRange(ctx context.Context, consumerID string, fromMs, toMs int64) (*models.Order, error) {
	query := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE consumer_id = $1 AND invoice_date >= $2 AND invoice_date < $3
        ORDER BY invoice_date ASC
        LIMIT 1
    `
	order, err := r.scanOrder(r.pool.QueryRow(ctx, query, consumerID, fromMs, toMs))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return order, err
}

// orderFieldColumns whitelists the partially updatable fields. JSONB
// fields are marshalled; the rest pass through.
var orderFieldColumns = map[string]struct {
	column string
	isJSON bool
}{
	"invoice_id":        {"invoice_id", false},
	"cart_updated_date": {"cart_updated_date", false},
	"is_auto_generated": {"is_auto_generated", false},
	"donation_count":    {"donation_count", false},
	"phone":             {"phone", false},
	"name":              {"name", false},
	"destination":       {"destination", true},
	"costs":             {"costs", true},
	"deliveries":        {"deliveries", true},
}

// UpdateFields writes only the given fields, keyed by the order's json
// field names. Orders are the unit of optimistic concurrency; partial
// merges let concurrent updates to different fields coexist.
func (r *OrderRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	set := ""
	args := []interface{}{id}
	for name, value := range fields {
		col, ok := orderFieldColumns[name]
		if !ok {
			return fmt.Errorf("order field '%s' is not updatable", name)
		}
		arg := value
		if col.isJSON {
			data, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to marshal order field '%s': %w", name, err)
			}
			arg = data
		}
		args = append(args, arg)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", col.column, len(args))
	}
	if deliveries, ok := fields["deliveries"].([]models.Delivery); ok {
		first := firstDeliveryDate(deliveries)
		args = append(args, first)
		set += fmt.Sprintf(", first_delivery_date = $%d", len(args))
	}
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $1", set)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order '%s' not found", id)
	}
	return nil
}

func (r *OrderRepository) ListByDeliveryDateRange(ctx context.Context, fromMs, toMs int64) ([]*models.Order, error) {
	query := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE first_delivery_date >= $1 AND first_delivery_date < $2
        ORDER BY first_delivery_date ASC
    `
	rows, err := r.pool.Query(ctx, query, fromMs, toMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	return err
}

func firstDeliveryDate(deliveries []models.Delivery) int64 {
	var first int64
	for i := range deliveries {
		if d := deliveries[i].DeliveryDate; first == 0 || d < first {
			first = d
		}
	}
	return first
}
