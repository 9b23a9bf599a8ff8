// Package services holds the subscription lifecycle orchestration.
// Services are constructed once at process start and passed to their
// collaborators explicitly.
package services

import (
	"context"
	"fmt"

	"github.com/SimonVuong/saute/internal/models"
)

// BoolResult is a mutation outcome: Res true on success, or a short
// human-readable Error on validation failure. Internal failures are
// returned as Go errors instead and never leak detail to the caller.
type BoolResult struct {
	Res   bool   `json:"res"`
	Error string `json:"error,omitempty"`
}

// ConsumerResult is a mutation outcome carrying the updated consumer.
type ConsumerResult struct {
	Res   *models.Consumer `json:"res,omitempty"`
	Error string           `json:"error,omitempty"`
}

// Geocoder verifies that a delivery address resolves. Address
// verification is an external capability consumed at its interface.
type Geocoder interface {
	Geocode(ctx context.Context, address1, city, state, zip string) error
}

// NopGeocoder accepts every address. Used until a real geocoding
// provider is wired in; address verification degrades to format checks
// done by the cart.
type NopGeocoder struct{}

func (NopGeocoder) Geocode(ctx context.Context, address1, city, state, zip string) error {
	if address1 == "" || city == "" || state == "" || zip == "" {
		return fmt.Errorf("incomplete address")
	}
	return nil
}

func cannotBeEmpty(field string) string {
	return field + " cannot be empty"
}
