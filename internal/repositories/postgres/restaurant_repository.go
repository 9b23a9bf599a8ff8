package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SimonVuong/saute/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RestaurantRepository struct {
	pool *pgxpool.Pool
}

func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

func (r *RestaurantRepository) BulkCreate(ctx context.Context, restaurants []*models.Restaurant) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"restaurants"},
		[]string{"id", "name", "cuisines", "tax_rate", "menu"},
		pgx.CopyFromSlice(len(restaurants), func(i int) ([]interface{}, error) {
			menu, err := json.Marshal(restaurants[i].Menu)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal menu: %w", err)
			}
			return []interface{}{
				restaurants[i].ID,
				restaurants[i].Name,
				restaurants[i].Cuisines,
				restaurants[i].TaxRate,
				menu,
			}, nil
		}),
	)
	return err
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	menu, err := json.Marshal(restaurant.Menu)
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}
	query := `
        INSERT INTO restaurants (id, name, cuisines, tax_rate, menu)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err = r.pool.Exec(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.Cuisines,
		restaurant.TaxRate,
		menu,
	)
	return err
}

func (r *RestaurantRepository) scanRestaurant(row pgx.Row) (*models.Restaurant, error) {
	restaurant := &models.Restaurant{}
	var menu []byte
	err := row.Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.Cuisines,
		&restaurant.TaxRate,
		&menu,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(menu, &restaurant.Menu); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu: %w", err)
	}
	return restaurant, nil
}

func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	query := `SELECT id, name, cuisines, tax_rate, menu FROM restaurants WHERE id = $1`
	restaurant, err := r.scanRestaurant(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return restaurant, err
}

func (r *RestaurantRepository) GetByCuisines(ctx context.Context, cuisines []string) ([]*models.Restaurant, error) {
	query := `SELECT id, name, cuisines, tax_rate, menu FROM restaurants WHERE cuisines && $1`
	rows, err := r.pool.Query(ctx, query, cuisines)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []*models.Restaurant
	for rows.Next() {
		restaurant, err := r.scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, rows.Err()
}

func (r *RestaurantRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM restaurants").Scan(&count)
	return count, err
}

func (r *RestaurantRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE restaurants CASCADE")
	return err
}
