package engine

import (
	"math"
	"time"
)

// Complexity summarizes how demanding a bundle is to source. It drives the
// minimum advance notice a trip must offer before departure.
type Complexity struct {
	ItemCount          int
	TotalValue         float64
	HasSpecialDelivery bool
}

type LeadTimeResult struct {
	Valid        bool
	RequiredDays int
	ActualDays   int
}

// LeadTimeValidator computes minimum advance notice from order complexity.
// Pure: no clock reads, no side effects.
type LeadTimeValidator struct {
	BaseDays           int
	HighValueThreshold float64
	MultiItemThreshold int
}

func (v LeadTimeValidator) RequiredLeadDays(c Complexity) int {
	days := v.BaseDays
	if c.TotalValue > v.HighValueThreshold {
		days++
	}
	if c.ItemCount > v.MultiItemThreshold {
		days++
	}
	if c.HasSpecialDelivery {
		days++
	}
	return days
}

// TripMeetsLeadTime checks whether a trip departing at the given time leaves
// enough runway for the bundle. Actual days is the departure distance from
// now, rounded up to whole days.
func (v LeadTimeValidator) TripMeetsLeadTime(departure, now time.Time, c Complexity) LeadTimeResult {
	required := v.RequiredLeadDays(c)
	actual := int(math.Ceil(departure.Sub(now).Hours() / 24))
	return LeadTimeResult{
		Valid:        actual >= required,
		RequiredDays: required,
		ActualDays:   actual,
	}
}
