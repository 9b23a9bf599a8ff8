package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SimonVuong/saute/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConsumerRepository struct {
	pool *pgxpool.Pool
}

func NewConsumerRepository(pool *pgxpool.Pool) *ConsumerRepository {
	return &ConsumerRepository{pool: pool}
}

func consumerArgs(consumer *models.Consumer) ([]interface{}, error) {
	profile, err := json.Marshal(consumer.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	var plan []byte
	if consumer.Plan != nil {
		plan, err = json.Marshal(consumer.Plan)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan: %w", err)
		}
	}
	return []interface{}{
		consumer.ID,
		consumer.CreatedDate,
		nilIfEmpty(consumer.CustomerID),
		nilIfEmpty(consumer.SubscriptionID),
		profile,
		plan,
	}, nil
}

func (r *ConsumerRepository) Insert(ctx context.Context, consumer *models.Consumer) error {
	args, err := consumerArgs(consumer)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO consumers (id, created_date, customer_id, subscription_id, profile, plan)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func (r *ConsumerRepository) Upsert(ctx context.Context, consumer *models.Consumer) error {
	args, err := consumerArgs(consumer)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO consumers (id, created_date, customer_id, subscription_id, profile, plan)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            customer_id = EXCLUDED.customer_id,
            subscription_id = EXCLUDED.subscription_id,
            profile = EXCLUDED.profile,
            plan = EXCLUDED.plan
    `
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func (r *ConsumerRepository) scanConsumer(row pgx.Row) (*models.Consumer, error) {
	consumer := &models.Consumer{}
	var customerID, subscriptionID *string
	var profile, plan []byte
	err := row.Scan(
		&consumer.ID,
		&consumer.CreatedDate,
		&customerID,
		&subscriptionID,
		&profile,
		&plan,
	)
	if err != nil {
		return nil, err
	}
	if customerID != nil {
		consumer.CustomerID = *customerID
	}
	if subscriptionID != nil {
		consumer.SubscriptionID = *subscriptionID
	}
	if err := json.Unmarshal(profile, &consumer.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if len(plan) > 0 {
		consumer.Plan = &models.ConsumerPlan{}
		if err := json.Unmarshal(plan, consumer.Plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
	}
	return consumer, nil
}

func (r *ConsumerRepository) GetByID(ctx context.Context, id string) (*models.Consumer, error) {
	query := `
        SELECT id, created_date, customer_id, subscription_id, profile, plan
        FROM consumers WHERE id = $1
    `
	consumer, err := r.scanConsumer(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return consumer, err
}

func (r *ConsumerRepository) GetByCustomerID(ctx context.Context, customerID string) (*models.Consumer, error) {
	query := `
        SELECT id, created_date, customer_id, subscription_id, profile, plan
        FROM consumers WHERE customer_id = $1
    `
	consumer, err := r.scanConsumer(r.pool.QueryRow(ctx, query, customerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return consumer, err
}

var consumerFieldColumns = map[string]struct {
	column string
	isJSON bool
}{
	"customer_id":     {"customer_id", false},
	"subscription_id": {"subscription_id", false},
	"profile":         {"profile", true},
	"plan":            {"plan", true},
}

func (r *ConsumerRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	set := ""
	args := []interface{}{id}
	for name, value := range fields {
		col, ok := consumerFieldColumns[name]
		if !ok {
			return fmt.Errorf("consumer field '%s' is not updatable", name)
		}
		arg := value
		if col.isJSON && value != nil {
			data, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to marshal consumer field '%s': %w", name, err)
			}
			arg = data
		}
		args = append(args, arg)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", col.column, len(args))
	}
	query := fmt.Sprintf("UPDATE consumers SET %s WHERE id = $1", set)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("consumer '%s' not found", id)
	}
	return nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
