package rules

import (
	"time"

	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

// TierRule holds the per-contract-tier limits applied by the generator and
// the exchange recommender.
type TierRule struct {
	// WeekDays is the maximum number of days a worker may be assigned
	// within one generated week.
	WeekDays int
	// SundayCap is the maximum number of Sunday assignments.
	SundayCap int
	// OnlyDays restricts assignment to the listed weekdays. Empty means
	// any day.
	OnlyDays []time.Weekday
	// DefaultHours is the shift duration for any start slot without an
	// explicit override.
	DefaultHours int
	// HoursBySlot overrides DefaultHours for specific start slots.
	HoursBySlot map[string]int
}

// Catalog is the injectable rule set consumed by the scheduler and the
// exchange engine. Tests swap in reduced catalogs; production code uses
// Default().
type Catalog struct {
	// StartSlots are the candidate shift start times, in the exact order
	// the generator tries them.
	StartSlots []string
	// AllowedEnds is the whitelist of valid shift end times.
	AllowedEnds []string
	// ClosingSlots are the start times that require the can-close
	// permission.
	ClosingSlots []string
	// ClosingCapacity is how many workers may share one closing slot on
	// a single date.
	ClosingCapacity int
	// Tiers maps contract hours to the rules for that tier.
	Tiers map[int]TierRule

	allowedEndSet map[string]bool
	closingSet    map[string]bool
}

// Default returns the production rule catalog.
func Default() *Catalog {
	return New(Catalog{
		StartSlots: []string{
			"08:00", "08:30", "09:00", "10:00", "11:00",
			"12:00", "13:00", "14:30", "15:00", "16:30", "17:30",
		},
		AllowedEnds: []string{
			"17:00", "18:00", "18:30", "19:00", "20:00", "21:30", "22:00", "23:30",
		},
		ClosingSlots:    []string{"16:30", "17:30"},
		ClosingCapacity: 3,
		Tiers: map[int]TierRule{
			45: {WeekDays: 5, SundayCap: 2, DefaultHours: 10},
			30: {WeekDays: 5, SundayCap: 2, DefaultHours: 7, HoursBySlot: map[string]int{"08:30": 9, "09:00": 8}},
			20: {WeekDays: 4, SundayCap: 0, DefaultHours: 5},
			16: {WeekDays: 2, SundayCap: 0, DefaultHours: 8, OnlyDays: []time.Weekday{time.Saturday, time.Sunday}},
		},
	})
}

// New builds a Catalog from the given tables and indexes the lookup sets.
func New(c Catalog) *Catalog {
	c.allowedEndSet = make(map[string]bool, len(c.AllowedEnds))
	for _, e := range c.AllowedEnds {
		c.allowedEndSet[e] = true
	}
	c.closingSet = make(map[string]bool, len(c.ClosingSlots))
	for _, s := range c.ClosingSlots {
		c.closingSet[s] = true
	}
	return &c
}

// Duration returns the shift length in hours for a contract tier starting at
// the given slot. Unknown tiers get 0, which no feasibility check accepts.
func (c *Catalog) Duration(tier int, slot string) int {
	rule, ok := c.Tiers[tier]
	if !ok {
		return 0
	}
	if h, ok := rule.HoursBySlot[slot]; ok {
		return h
	}
	return rule.DefaultHours
}

// TierRule looks up the rule set for a contract tier.
func (c *Catalog) TierRule(tier int) (TierRule, bool) {
	r, ok := c.Tiers[tier]
	return r, ok
}

// AllowedEnd reports whether the clock is a permitted shift end time.
func (c *Catalog) AllowedEnd(clock string) bool {
	return c.allowedEndSet[clock]
}

// IsClosingSlot reports whether the start slot is a designated closing slot.
func (c *Catalog) IsClosingSlot(slot string) bool {
	return c.closingSet[slot]
}

// EarliestClosingSlot returns the earliest closing start time in minutes
// since midnight. Shifts starting at or after it require the can-close
// permission.
func (c *Catalog) EarliestClosingSlot() int {
	earliest := -1
	for _, s := range c.ClosingSlots {
		m, err := timeutil.ParseClock(s)
		if err != nil {
			continue
		}
		if earliest < 0 || m < earliest {
			earliest = m
		}
	}
	return earliest
}

// DayAllowed reports whether the tier rule permits work on the given weekday.
func (r TierRule) DayAllowed(day time.Weekday) bool {
	if len(r.OnlyDays) == 0 {
		return true
	}
	for _, d := range r.OnlyDays {
		if d == day {
			return true
		}
	}
	return false
}
