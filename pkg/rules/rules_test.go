package rules

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	c := Default()

	cases := []struct {
		tier int
		slot string
		want int
	}{
		{45, "08:00", 10},
		{45, "17:30", 10},
		{30, "08:30", 9},
		{30, "09:00", 8},
		{30, "10:00", 7},
		{30, "16:30", 7},
		{20, "12:00", 5},
		{16, "09:00", 8},
		{99, "08:00", 0},
	}
	for _, tc := range cases {
		if got := c.Duration(tc.tier, tc.slot); got != tc.want {
			t.Errorf("Duration(%d, %s) = %d, want %d", tc.tier, tc.slot, got, tc.want)
		}
	}
}

func TestAllowedEnd(t *testing.T) {
	c := Default()

	for _, end := range []string{"17:00", "18:00", "23:30"} {
		if !c.AllowedEnd(end) {
			t.Errorf("expected %s to be an allowed end", end)
		}
	}
	for _, end := range []string{"16:00", "00:30", "03:30", ""} {
		if c.AllowedEnd(end) {
			t.Errorf("expected %s to be rejected as an end time", end)
		}
	}
}

func TestClosingSlots(t *testing.T) {
	c := Default()

	if !c.IsClosingSlot("16:30") || !c.IsClosingSlot("17:30") {
		t.Error("16:30 and 17:30 should be closing slots")
	}
	if c.IsClosingSlot("08:00") {
		t.Error("08:00 should not be a closing slot")
	}
	if got := c.EarliestClosingSlot(); got != 16*60+30 {
		t.Errorf("EarliestClosingSlot() = %d, want %d", got, 16*60+30)
	}
	if c.ClosingCapacity != 3 {
		t.Errorf("ClosingCapacity = %d, want 3", c.ClosingCapacity)
	}
}

func TestTierWeekdayRestriction(t *testing.T) {
	c := Default()

	rule, ok := c.TierRule(16)
	if !ok {
		t.Fatal("tier 16 rule missing")
	}
	if !rule.DayAllowed(time.Saturday) || !rule.DayAllowed(time.Sunday) {
		t.Error("tier 16 should allow weekends")
	}
	if rule.DayAllowed(time.Monday) {
		t.Error("tier 16 should not allow Monday")
	}

	rule45, _ := c.TierRule(45)
	if !rule45.DayAllowed(time.Monday) {
		t.Error("tier 45 should allow any day")
	}
}
