package services

import (
	"context"
	"fmt"

	"github.com/SimonVuong/saute/internal/models"
	"github.com/SimonVuong/saute/internal/repositories"
)

// RestService is the read-only restaurant catalog lookup the lifecycle
// service validates and auto-selects against.
type RestService struct {
	rests repositories.RestaurantRepository
}

func NewRestService(rests repositories.RestaurantRepository) *RestService {
	return &RestService{rests: rests}
}

// GetRest returns the restaurant with the given id, or nil.
func (s *RestService) GetRest(ctx context.Context, restID string) (*models.Restaurant, error) {
	rest, err := s.rests.GetByID(ctx, restID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rest '%s': %w", restID, err)
	}
	return rest, nil
}

// GetRestsByCuisines returns restaurants serving any of the cuisines.
func (s *RestService) GetRestsByCuisines(ctx context.Context, cuisines []string) ([]*models.Restaurant, error) {
	rests, err := s.rests.GetByCuisines(ctx, cuisines)
	if err != nil {
		return nil, fmt.Errorf("failed to get rests by cuisines %v: %w", cuisines, err)
	}
	return rests, nil
}
