package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    consumer_id TEXT NOT NULL,
    subscription_id TEXT NOT NULL,
    invoice_id TEXT,
    created_date BIGINT NOT NULL,
    cart_updated_date BIGINT NOT NULL,
    invoice_date BIGINT NOT NULL,
    first_delivery_date BIGINT NOT NULL,
    is_auto_generated BOOLEAN NOT NULL,
    donation_count INT NOT NULL,
    phone TEXT NOT NULL,
    name TEXT NOT NULL,
    destination JSONB NOT NULL,
    costs JSONB NOT NULL,
    deliveries JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_consumer_delivery_idx
    ON orders (consumer_id, first_delivery_date);
CREATE INDEX IF NOT EXISTS orders_consumer_invoice_idx
    ON orders (consumer_id, invoice_date);

CREATE TABLE IF NOT EXISTS consumers (
    id TEXT PRIMARY KEY,
    created_date BIGINT NOT NULL,
    customer_id TEXT,
    subscription_id TEXT,
    profile JSONB NOT NULL,
    plan JSONB
);
CREATE INDEX IF NOT EXISTS consumers_customer_idx ON consumers (customer_id);

CREATE TABLE IF NOT EXISTS restaurants (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    cuisines TEXT[] NOT NULL,
    tax_rate DOUBLE PRECISION NOT NULL,
    menu JSONB NOT NULL
);
`

// EnsureSchema creates the tables the repositories rely on.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
