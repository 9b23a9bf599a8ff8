package repositories

import (
	"context"

	"github.com/SimonVuong/saute/internal/models"
)

type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// GetUpcomingByConsumer returns the consumer's orders with a first
	// delivery on or after the given epoch-ms date, ascending.
	GetUpcomingByConsumer(ctx context.Context, consumerID string, fromMs int64) ([]*models.Order, error)
	// GetByInvoiceDateRange returns the consumer's order whose invoice
	// date falls within [fromMs, toMs), or nil.
	GetByInvoiceDateRange(ctx context.Context, consumerID string, fromMs, toMs int64) (*models.Order, error)
	// UpdateFields performs a partial update-by-id. Field names are the
	// order's json keys; only changed fields are written.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	// ListByDeliveryDateRange returns every order, across consumers,
	// whose first delivery falls within [fromMs, toMs), ascending.
	ListByDeliveryDateRange(ctx context.Context, fromMs, toMs int64) ([]*models.Order, error)
}

type ConsumerRepository interface {
	Insert(ctx context.Context, consumer *models.Consumer) error
	Upsert(ctx context.Context, consumer *models.Consumer) error
	GetByID(ctx context.Context, id string) (*models.Consumer, error)
	GetByCustomerID(ctx context.Context, customerID string) (*models.Consumer, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type RestaurantRepository interface {
	BulkCreate(ctx context.Context, restaurants []*models.Restaurant) error
	Create(ctx context.Context, restaurant *models.Restaurant) error
	GetByID(ctx context.Context, id string) (*models.Restaurant, error)
	// GetByCuisines returns restaurants serving any of the cuisines.
	GetByCuisines(ctx context.Context, cuisines []string) ([]*models.Restaurant, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
