package exchange

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bfarias/turnos-api-go/pkg/models"
	"github.com/bfarias/turnos-api-go/pkg/rules"
	"github.com/bfarias/turnos-api-go/pkg/store"
	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

// Origin describes the shift a worker wants to trade away. The shift may be
// hypothetical: when ShiftID is nil only the (worker, date, start, end)
// descriptor is used.
type Origin struct {
	WorkerID  uint
	ShiftID   *uint
	Date      string
	StartTime string
	EndTime   string
}

// Recommendation is one feasible counterpart for an origin shift. A swap
// carries the candidate's shift the requester would take in return; a
// coverage has no target.
type Recommendation struct {
	WorkerID    uint          `json:"worker_id"`
	WorkerName  string        `json:"worker_name"`
	Type        string        `json:"type"`
	TargetShift *models.Shift `json:"target_shift,omitempty"`
}

// Recommender proposes swap and coverage candidates for a shift within its
// Monday-to-Sunday week. All reads are unlocked; a recommendation can go
// stale by confirmation time.
type Recommender struct {
	workers      store.WorkerStore
	availability store.AvailabilityStore
	benefits     store.BenefitStore
	leaves       store.LeaveStore
	shifts       store.ShiftStore
	catalog      *rules.Catalog
	logger       *zap.Logger
	now          func() time.Time
}

// NewRecommender wires a Recommender over its stores and rule catalog.
func NewRecommender(s *store.Stores, catalog *rules.Catalog, logger *zap.Logger) *Recommender {
	return &Recommender{
		workers:      s.Workers,
		availability: s.Availability,
		benefits:     s.Benefits,
		leaves:       s.Leaves,
		shifts:       s.Shifts,
		catalog:      catalog,
		logger:       logger,
		now:          time.Now,
	}
}

// Recommend returns every feasible (candidate, target) pair for the origin
// shift, plus pure coverage candidates. It never fails on business grounds:
// an unknown origin worker or an empty week yields an empty list.
func (r *Recommender) Recommend(ctx context.Context, origin Origin) ([]Recommendation, error) {
	date, err := timeutil.ParseDate(origin.Date)
	if err != nil {
		return nil, err
	}
	monday := timeutil.MondayOf(date)
	sunday := timeutil.AddDays(monday, 6)

	// A shift that has already started cannot be traded away.
	if startMin, err := timeutil.ParseClock(origin.StartTime); err == nil {
		startAt := date.Add(time.Duration(startMin) * time.Minute)
		if !r.now().Before(startAt) {
			r.logger.Warn("recommend: origin shift already started",
				zap.Uint("worker_id", origin.WorkerID),
				zap.String("date", origin.Date),
				zap.String("start_time", origin.StartTime))
			return []Recommendation{}, nil
		}
	}

	workers, err := r.workers.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	windows, err := r.availability.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	benefits, err := r.benefits.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	leaves, err := r.leaves.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	weekShifts, err := r.shifts.ListByDateRange(ctx, timeutil.FormatDate(monday), timeutil.FormatDate(sunday))
	if err != nil {
		return nil, err
	}

	var requester *models.Worker
	for i := range workers {
		if workers[i].ID == origin.WorkerID {
			requester = &workers[i]
			break
		}
	}
	if requester == nil {
		r.logger.Warn("recommend: origin worker not found", zap.Uint("worker_id", origin.WorkerID))
		return []Recommendation{}, nil
	}

	ruleData := newFeasibilityData(r.catalog, windows, benefits, leaves)

	byWorker := make(map[uint][]models.Shift)
	for _, sh := range weekShifts {
		byWorker[sh.WorkerID] = append(byWorker[sh.WorkerID], sh)
	}

	originCand := candidateShift{Date: origin.Date, StartTime: origin.StartTime, EndTime: origin.EndTime}
	// The requester is assumed to give the origin shift up, so their own
	// feasibility is judged without it.
	requesterSet := excludeOrigin(byWorker[requester.ID], origin)

	recs := []Recommendation{}
	for i := range workers {
		candidate := &workers[i]
		if candidate.ID == requester.ID {
			continue
		}
		held := byWorker[candidate.ID]
		if len(held) == 0 {
			continue
		}
		if !ruleData.fits(candidate, held, originCand) {
			continue
		}

		swapFound := false
		for j := range held {
			target := held[j]
			back := candidateShift{Date: target.Date, StartTime: target.StartTime, EndTime: target.EndTime}
			if !ruleData.fits(requester, requesterSet, back) {
				continue
			}
			recs = append(recs, Recommendation{
				WorkerID:    candidate.ID,
				WorkerName:  candidate.Name,
				Type:        models.ExchangeSwap,
				TargetShift: &held[j],
			})
			swapFound = true
		}
		if !swapFound {
			recs = append(recs, Recommendation{
				WorkerID:   candidate.ID,
				WorkerName: candidate.Name,
				Type:       models.ExchangeCoverage,
			})
		}
	}
	return recs, nil
}

func excludeOrigin(shifts []models.Shift, origin Origin) []models.Shift {
	out := make([]models.Shift, 0, len(shifts))
	for _, sh := range shifts {
		if origin.ShiftID != nil && sh.ID == *origin.ShiftID {
			continue
		}
		if origin.ShiftID == nil &&
			sh.WorkerID == origin.WorkerID && sh.Date == origin.Date &&
			sh.StartTime == origin.StartTime && sh.EndTime == origin.EndTime {
			continue
		}
		out = append(out, sh)
	}
	return out
}

// candidateShift is the (date, start, end) triple a feasibility check
// evaluates for a worker.
type candidateShift struct {
	Date      string
	StartTime string
	EndTime   string
}

type feasibilityData struct {
	catalog   *rules.Catalog
	windows   map[uint]map[time.Weekday]models.Availability
	blocked   map[uint]map[string]bool
	leaves    map[uint][]models.Leave
	closingAt int
}

func newFeasibilityData(catalog *rules.Catalog, windows []models.Availability, benefits []models.Benefit, leaves []models.Leave) *feasibilityData {
	d := &feasibilityData{
		catalog:   catalog,
		windows:   make(map[uint]map[time.Weekday]models.Availability),
		blocked:   make(map[uint]map[string]bool),
		leaves:    make(map[uint][]models.Leave),
		closingAt: catalog.EarliestClosingSlot(),
	}
	for _, w := range windows {
		if d.windows[w.WorkerID] == nil {
			d.windows[w.WorkerID] = make(map[time.Weekday]models.Availability)
		}
		d.windows[w.WorkerID][time.Weekday(w.Weekday)] = w
	}
	for _, b := range benefits {
		if d.blocked[b.WorkerID] == nil {
			d.blocked[b.WorkerID] = make(map[string]bool)
		}
		d.blocked[b.WorkerID][b.Date] = true
	}
	for _, l := range leaves {
		d.leaves[l.WorkerID] = append(d.leaves[l.WorkerID], l)
	}
	return d
}

func (d *feasibilityData) onLeave(workerID uint, date string) bool {
	for _, l := range d.leaves[workerID] {
		if l.Covers(date) {
			return true
		}
	}
	return false
}

// durationHours is the exchange engine's duration rule: elapsed time minus a
// fixed one-hour unpaid break, floored at zero. This deliberately differs
// from the generator's catalog durations.
func durationHours(start, end string) float64 {
	s, err1 := timeutil.ParseClock(start)
	e, err2 := timeutil.ParseClock(end)
	if err1 != nil || err2 != nil {
		return 0
	}
	h := float64(e-s)/60 - 1
	if h < 0 {
		return 0
	}
	return h
}

// fits reports whether the worker could hold cand on top of the given shift
// set without breaking availability, benefit, leave, tier, Sunday,
// weekly-hour, closing or overlap rules. Counters are judged only against the passed-in
// set.
func (d *feasibilityData) fits(worker *models.Worker, held []models.Shift, cand candidateShift) bool {
	date, err := timeutil.ParseDate(cand.Date)
	if err != nil {
		return false
	}
	startMin, err1 := timeutil.ParseClock(cand.StartTime)
	endMin, err2 := timeutil.ParseClock(cand.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}

	window, ok := d.windows[worker.ID][date.Weekday()]
	if !ok {
		return false
	}
	winStart, err1 := timeutil.ParseClock(window.StartTime)
	winEnd, err2 := timeutil.ParseClock(window.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}
	if winStart > startMin || winEnd < endMin {
		return false
	}

	if d.blocked[worker.ID][cand.Date] {
		return false
	}
	if d.onLeave(worker.ID, cand.Date) {
		return false
	}

	rule, ok := d.catalog.TierRule(worker.ContractHours)
	if !ok {
		return false
	}
	if !rule.DayAllowed(date.Weekday()) {
		return false
	}

	if date.Weekday() == time.Sunday {
		sundays := map[string]bool{}
		for _, sh := range held {
			if shDate, err := timeutil.ParseDate(sh.Date); err == nil && shDate.Weekday() == time.Sunday {
				sundays[sh.Date] = true
			}
		}
		if len(sundays) >= rule.SundayCap {
			return false
		}
	}

	total := durationHours(cand.StartTime, cand.EndTime)
	for _, sh := range held {
		total += durationHours(sh.StartTime, sh.EndTime)
	}
	if total > float64(worker.ContractHours) {
		return false
	}

	if d.closingAt >= 0 && startMin >= d.closingAt && !worker.CanClose {
		return false
	}

	for _, sh := range held {
		if sh.Date == cand.Date && timeutil.Overlap(cand.StartTime, cand.EndTime, sh.StartTime, sh.EndTime) {
			return false
		}
	}

	return true
}
