package models

import (
	"fmt"
	"time"
)

// IsTwoDaysLater reports whether the epoch-ms date is more than two
// days after now. Orders lock two days before delivery.
func IsTwoDaysLater(dateMs int64, now time.Time) bool {
	return time.UnixMilli(dateMs).After(now.Add(48 * time.Hour))
}

// NextDeliveryDate returns the start of the next occurrence of the
// preferred weekday that is more than two days out.
func NextDeliveryDate(day int, now time.Time) (int64, error) {
	if !IsDeliveryDayValid(day) {
		return 0, fmt.Errorf("invalid delivery day '%d'", day)
	}
	offset := day - int(now.Weekday())
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, offset)
	twoDaysOut := now.Add(48 * time.Hour)
	if date.After(twoDaysOut) {
		return date.UnixMilli(), nil
	}
	date = date.AddDate(0, 0, 7)
	// false when the chosen day falls earlier in the week
	if date.After(twoDaysOut) {
		return date.UnixMilli(), nil
	}
	return date.AddDate(0, 0, 7).UnixMilli(), nil
}
