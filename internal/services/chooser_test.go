package services

import (
	"math/rand"
	"testing"

	"github.com/SimonVuong/saute/internal/models"
)

func chooserMenu() []models.Meal {
	return []models.Meal{
		{ID: "meal-1", Name: "Pad Thai"},
		{ID: "meal-2", Name: "Green Curry"},
		{ID: "meal-3", Name: "Basil Chicken"},
	}
}

func TestMealChooserNoRepeatsWithinCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	choose := newMealChooser(chooserMenu(), rng)

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		meal := choose()
		if seen[meal.ID] {
			t.Fatalf("meal %s repeated before the pool was exhausted", meal.ID)
		}
		seen[meal.ID] = true
	}
}

func TestMealChooserRefillsAfterExhaustion(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	choose := newMealChooser(chooserMenu(), rng)

	counts := make(map[string]int)
	for i := 0; i < 9; i++ {
		counts[choose().ID]++
	}
	// three full cycles of a three-meal pool
	for id, n := range counts {
		if n != 3 {
			t.Fatalf("meal %s chosen %d times, want 3", id, n)
		}
	}
}

func TestMealChooserSingleMeal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	choose := newMealChooser([]models.Meal{{ID: "meal-1"}}, rng)
	for i := 0; i < 4; i++ {
		if got := choose().ID; got != "meal-1" {
			t.Fatalf("choose = %s", got)
		}
	}
}
