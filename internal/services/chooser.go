package services

import (
	"math/rand"

	"github.com/SimonVuong/saute/internal/models"
)

// newMealChooser returns a function that picks a random meal from the
// pool. Every meal is returned once before any repeats; once the pool
// is exhausted it refills, so repeats only occur across full cycles.
func newMealChooser(meals []models.Meal, rng *rand.Rand) func() models.Meal {
	pool := make([]models.Meal, len(meals))
	copy(pool, meals)
	return func() models.Meal {
		if len(pool) == 0 {
			pool = make([]models.Meal, len(meals))
			copy(pool, meals)
		}
		i := rng.Intn(len(pool))
		meal := pool[i]
		pool = append(pool[:i], pool[i+1:]...)
		return meal
	}
}
