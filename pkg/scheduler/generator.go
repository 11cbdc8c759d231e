package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bfarias/turnos-api-go/pkg/models"
	"github.com/bfarias/turnos-api-go/pkg/rules"
	"github.com/bfarias/turnos-api-go/pkg/store"
	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

// Generator fills one week of shifts from worker availability, benefit
// exclusions and the rule catalog, then replaces the stored shift set with
// the result.
type Generator struct {
	workers      store.WorkerStore
	availability store.AvailabilityStore
	benefits     store.BenefitStore
	shifts       store.ShiftStore
	catalog      *rules.Catalog
	logger       *zap.Logger
}

// NewGenerator wires a Generator over its stores and rule catalog.
func NewGenerator(s *store.Stores, catalog *rules.Catalog, logger *zap.Logger) *Generator {
	return &Generator{
		workers:      s.Workers,
		availability: s.Availability,
		benefits:     s.Benefits,
		shifts:       s.Shifts,
		catalog:      catalog,
		logger:       logger,
	}
}

// workerState is the per-run rolling state for one worker. It lives for a
// single Generate call and is never persisted.
type workerState struct {
	consecutiveDays int
	lastDate        time.Time
	hasLastDate     bool
	sundays         int
	daysThisWeek    int
	hoursThisWeek   int
	assignedToday   bool
}

// Generate computes the week starting at baseDate ([base, base+6], no
// weekday alignment) and atomically replaces the entire shift collection
// with the result. It returns the inserted count and the new set.
func (g *Generator) Generate(ctx context.Context, baseDate time.Time, createdBy uint) (int, []models.Shift, error) {
	workers, err := g.workers.ListAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	windows, err := g.availability.ListAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	benefits, err := g.benefits.ListAll(ctx)
	if err != nil {
		return 0, nil, err
	}

	shifts := buildWeek(g.catalog, workers, windows, benefits, baseDate, createdBy)

	count, err := g.shifts.ReplaceAll(ctx, shifts)
	if err != nil {
		return 0, nil, err
	}

	g.logger.Info("schedule generated",
		zap.String("base_date", timeutil.FormatDate(baseDate)),
		zap.Int("shifts", count),
		zap.Int("workers", len(workers)))
	return count, shifts, nil
}

// buildWeek runs the slot-filling loop. Iteration order is load-bearing:
// dates in calendar order, start slots in catalog order, workers in roster
// order. A non-closing slot takes at most one worker per date; a closing
// slot takes up to the catalog's closing capacity.
func buildWeek(catalog *rules.Catalog, workers []models.Worker, windows []models.Availability, benefits []models.Benefit, baseDate time.Time, createdBy uint) []models.Shift {
	avail := make(map[uint]map[time.Weekday]models.Availability)
	for _, w := range windows {
		if avail[w.WorkerID] == nil {
			avail[w.WorkerID] = make(map[time.Weekday]models.Availability)
		}
		avail[w.WorkerID][time.Weekday(w.Weekday)] = w
	}
	blocked := make(map[uint]map[string]bool)
	for _, b := range benefits {
		if blocked[b.WorkerID] == nil {
			blocked[b.WorkerID] = make(map[string]bool)
		}
		blocked[b.WorkerID][b.Date] = true
	}

	state := make(map[uint]*workerState, len(workers))
	for _, w := range workers {
		state[w.ID] = &workerState{}
	}

	var shifts []models.Shift
	for i := 0; i < 7; i++ {
		date := timeutil.AddDays(baseDate, i)
		dateStr := timeutil.FormatDate(date)

		for _, st := range state {
			st.assignedToday = false
		}

		for _, slot := range catalog.StartSlots {
			closing := catalog.IsClosingSlot(slot)
			filled := 0

			for _, worker := range workers {
				st := state[worker.ID]
				end, streak, ok := feasible(catalog, worker, st, avail[worker.ID], blocked[worker.ID], date, slot)
				if !ok {
					continue
				}

				shifts = append(shifts, models.Shift{
					WorkerID:  worker.ID,
					Date:      dateStr,
					StartTime: slot,
					EndTime:   end,
					CreatedBy: createdBy,
				})

				st.assignedToday = true
				st.consecutiveDays = streak
				st.lastDate = date
				st.hasLastDate = true
				st.daysThisWeek++
				st.hoursThisWeek += catalog.Duration(worker.ContractHours, slot)
				if date.Weekday() == time.Sunday {
					st.sundays++
				}

				filled++
				if !closing || filled >= catalog.ClosingCapacity {
					break
				}
			}
		}
	}
	return shifts
}

// feasible runs every assignment rule for one (worker, date, slot)
// candidate. On success it returns the computed end clock and the streak
// value the worker would carry after the assignment.
func feasible(catalog *rules.Catalog, worker models.Worker, st *workerState, windows map[time.Weekday]models.Availability, blockedDates map[string]bool, date time.Time, slot string) (end string, streak int, ok bool) {
	// One shift per worker per date.
	if st.assignedToday {
		return "", 0, false
	}

	rule, haveRule := catalog.TierRule(worker.ContractHours)
	if !haveRule {
		return "", 0, false
	}

	dur := catalog.Duration(worker.ContractHours, slot)
	if dur == 0 {
		return "", 0, false
	}
	startMin, err := timeutil.ParseClock(slot)
	if err != nil {
		return "", 0, false
	}
	endMin := startMin + dur*60
	end = timeutil.FormatClock(endMin)
	if !catalog.AllowedEnd(end) {
		return "", 0, false
	}

	// Availability window must cover both the start and the computed end.
	window, hasWindow := windows[date.Weekday()]
	if !hasWindow {
		return "", 0, false
	}
	winStart, err1 := timeutil.ParseClock(window.StartTime)
	winEnd, err2 := timeutil.ParseClock(window.EndTime)
	if err1 != nil || err2 != nil {
		return "", 0, false
	}
	if winStart > startMin || winEnd < endMin {
		return "", 0, false
	}

	if blockedDates[timeutil.FormatDate(date)] {
		return "", 0, false
	}

	if !rule.DayAllowed(date.Weekday()) {
		return "", 0, false
	}

	// Sunday counter only increments during the run; there is no monthly
	// reset.
	if date.Weekday() == time.Sunday && st.sundays >= rule.SundayCap {
		return "", 0, false
	}

	// Streak resets to 1 whenever the gap since the last assigned date is
	// not exactly one day.
	streak = 1
	if st.hasLastDate && timeutil.DaysBetween(st.lastDate, date) == 1 {
		streak = st.consecutiveDays + 1
	}
	if streak > 6 {
		return "", 0, false
	}

	if st.daysThisWeek >= rule.WeekDays {
		return "", 0, false
	}

	if st.hoursThisWeek+dur > worker.ContractHours {
		return "", 0, false
	}

	if catalog.IsClosingSlot(slot) && !worker.CanClose {
		return "", 0, false
	}

	return end, streak, true
}
