package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testLeadTime = LeadTimeValidator{
	BaseDays:           5,
	HighValueThreshold: 1000,
	MultiItemThreshold: 3,
}

func TestRequiredLeadDays(t *testing.T) {
	tests := []struct {
		name string
		c    Complexity
		want int
	}{
		{"simple bundle", Complexity{ItemCount: 1, TotalValue: 100}, 5},
		{"high value adds a day", Complexity{ItemCount: 1, TotalValue: 1500}, 6},
		{"value at threshold does not", Complexity{ItemCount: 1, TotalValue: 1000}, 5},
		{"many items add a day", Complexity{ItemCount: 4, TotalValue: 100}, 6},
		{"item count at threshold does not", Complexity{ItemCount: 3, TotalValue: 100}, 5},
		{"special delivery adds a day", Complexity{ItemCount: 1, TotalValue: 100, HasSpecialDelivery: true}, 6},
		{"everything stacks", Complexity{ItemCount: 5, TotalValue: 2000, HasSpecialDelivery: true}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testLeadTime.RequiredLeadDays(tt.c))
		})
	}
}

func TestTripMeetsLeadTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	simple := Complexity{ItemCount: 1, TotalValue: 100}

	t.Run("departure well past the requirement", func(t *testing.T) {
		res := testLeadTime.TripMeetsLeadTime(now.Add(10*24*time.Hour), now, simple)
		assert.True(t, res.Valid)
		assert.Equal(t, 5, res.RequiredDays)
		assert.Equal(t, 10, res.ActualDays)
	})

	t.Run("departure too soon", func(t *testing.T) {
		res := testLeadTime.TripMeetsLeadTime(now.Add(3*24*time.Hour), now, simple)
		assert.False(t, res.Valid)
		assert.Equal(t, 3, res.ActualDays)
	})

	t.Run("partial days round up", func(t *testing.T) {
		// 4 days + 1 hour rounds up to 5 days, which meets the base.
		res := testLeadTime.TripMeetsLeadTime(now.Add(4*24*time.Hour+time.Hour), now, simple)
		assert.True(t, res.Valid)
		assert.Equal(t, 5, res.ActualDays)
	})

	t.Run("exact boundary is valid", func(t *testing.T) {
		res := testLeadTime.TripMeetsLeadTime(now.Add(5*24*time.Hour), now, simple)
		assert.True(t, res.Valid)
		assert.Equal(t, 5, res.ActualDays)
	})

	t.Run("departure in the past", func(t *testing.T) {
		res := testLeadTime.TripMeetsLeadTime(now.Add(-24*time.Hour), now, simple)
		assert.False(t, res.Valid)
		assert.Equal(t, -1, res.ActualDays)
	})
}
