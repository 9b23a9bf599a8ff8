package models

const (
	DeliveryStatusOpen      = "Open"
	DeliveryStatusConfirmed = "Confirmed"
	DeliveryStatusComplete  = "Complete"
	DeliveryStatusReturned  = "Returned"
	DeliveryStatusSkipped   = "Skipped"
	DeliveryStatusCanceled  = "Canceled"

	RenewalAuto = "Auto"
	RenewalSkip = "Skip"

	PlanNameStandard = "Standard"

	TagTypeCuisine  = "cuisine"
	TagTypeCategory = "category"
)

// DeliveryTimes is the fixed set of selectable delivery windows.
var DeliveryTimes = []string{
	"NineAToElevenA",
	"ElevenAToOneP",
	"OnePToThreeP",
	"ThreePToFiveP",
	"FivePToSevenP",
	"SevenPToNineP",
}

var Cuisines = []string{
	"American",
	"Bbq",
	"Chinese",
	"Indian",
	"Italian",
	"Japanese",
	"Mediterranean",
	"Mexican",
	"Thai",
	"Vegan",
	"Vegetarian",
}

func IsDeliveryTimeValid(t string) bool {
	for _, dt := range DeliveryTimes {
		if dt == t {
			return true
		}
	}
	return false
}

func IsDeliveryDayValid(d int) bool {
	return d >= 0 && d <= 6
}

func IsRenewalValid(r string) bool {
	return r == RenewalAuto || r == RenewalSkip
}

func AreCuisinesValid(cuisines []string) bool {
	for _, c := range cuisines {
		found := false
		for _, known := range Cuisines {
			if c == known {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
