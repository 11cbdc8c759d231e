package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bfarias/turnos-api-go/pkg/database"
	"github.com/bfarias/turnos-api-go/pkg/models"
	"github.com/bfarias/turnos-api-go/pkg/rules"
	"github.com/bfarias/turnos-api-go/pkg/store"
	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

// monday2024 is a Monday; the generated horizon is [monday2024, +6].
var monday2024 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func allWeekAvailability(workerID uint, start, end string) []models.Availability {
	var windows []models.Availability
	for day := 0; day < 7; day++ {
		windows = append(windows, models.Availability{
			WorkerID:  workerID,
			Weekday:   day,
			StartTime: start,
			EndTime:   end,
		})
	}
	return windows
}

func TestBuildWeekFullTimeWorker(t *testing.T) {
	catalog := rules.Default()
	workers := []models.Worker{{ID: 1, Name: "Ana", ContractHours: 45, CanClose: true}}
	windows := allWeekAvailability(1, "08:00", "23:30")

	shifts := buildWeek(catalog, workers, windows, nil, monday2024, 1)

	// 10h shifts cap out at 4 days of a 45h contract.
	if len(shifts) != 4 {
		t.Fatalf("expected 4 shifts, got %d", len(shifts))
	}
	wantDates := []string{"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06"}
	for i, sh := range shifts {
		if sh.Date != wantDates[i] {
			t.Errorf("shift %d on %s, want %s", i, sh.Date, wantDates[i])
		}
		if sh.StartTime != "08:00" || sh.EndTime != "18:00" {
			t.Errorf("shift %d = %s-%s, want 08:00-18:00", i, sh.StartTime, sh.EndTime)
		}
	}
}

func TestBuildWeekDurationsMatchCatalog(t *testing.T) {
	catalog := rules.Default()
	workers := []models.Worker{
		{ID: 1, ContractHours: 45, CanClose: true},
		{ID: 2, ContractHours: 30, CanClose: true},
		{ID: 3, ContractHours: 20},
		{ID: 4, ContractHours: 16},
	}
	var windows []models.Availability
	for _, w := range workers {
		windows = append(windows, allWeekAvailability(w.ID, "08:00", "23:30")...)
	}
	byID := map[uint]models.Worker{}
	for _, w := range workers {
		byID[w.ID] = w
	}

	shifts := buildWeek(catalog, workers, windows, nil, monday2024, 1)
	if len(shifts) == 0 {
		t.Fatal("expected some shifts")
	}

	for _, sh := range shifts {
		owner := byID[sh.WorkerID]
		dur := catalog.Duration(owner.ContractHours, sh.StartTime)
		wantEnd := timeutil.FormatClock(timeutil.MustClock(sh.StartTime) + dur*60)
		if sh.EndTime != wantEnd {
			t.Errorf("worker %d %s %s-%s: end does not match catalog duration %dh",
				sh.WorkerID, sh.Date, sh.StartTime, sh.EndTime, dur)
		}
		if !catalog.AllowedEnd(sh.EndTime) {
			t.Errorf("end %s not in the allowed end set", sh.EndTime)
		}
	}
}

func TestBuildWeekSlotOccupancy(t *testing.T) {
	catalog := rules.Default()
	var workers []models.Worker
	var windows []models.Availability
	for id := uint(1); id <= 6; id++ {
		workers = append(workers, models.Worker{ID: id, ContractHours: 30, CanClose: true})
		windows = append(windows, allWeekAvailability(id, "08:00", "23:30")...)
	}

	shifts := buildWeek(catalog, workers, windows, nil, monday2024, 1)

	occupancy := map[string]int{}
	for _, sh := range shifts {
		occupancy[sh.Date+" "+sh.StartTime]++
	}
	for key, n := range occupancy {
		slot := key[len(key)-5:]
		limit := 1
		if catalog.IsClosingSlot(slot) {
			limit = catalog.ClosingCapacity
		}
		if n > limit {
			t.Errorf("slot %s has %d workers, limit %d", key, n, limit)
		}
	}
}

func TestBuildWeekClosingCapacity(t *testing.T) {
	catalog := rules.Default()
	// Windows only cover the closing slot, so 16:30 is the single feasible
	// start (tier 30 ends 23:30 there).
	var workers []models.Worker
	var windows []models.Availability
	for id := uint(1); id <= 4; id++ {
		workers = append(workers, models.Worker{ID: id, ContractHours: 30, CanClose: true})
		windows = append(windows, allWeekAvailability(id, "16:00", "23:30")...)
	}

	shifts := buildWeek(catalog, workers, windows, nil, monday2024, 1)

	firstDay := 0
	for _, sh := range shifts {
		if sh.StartTime != "16:30" {
			t.Errorf("unexpected start %s, every feasible slot should be 16:30", sh.StartTime)
		}
		if sh.Date == "2024-06-03" {
			firstDay++
		}
	}
	if firstDay != 3 {
		t.Errorf("closing slot took %d workers on day one, want capacity 3", firstDay)
	}
}

func TestBuildWeekPartTimeWeekendOnly(t *testing.T) {
	catalog := rules.Default()
	workers := []models.Worker{{ID: 1, ContractHours: 16}}
	windows := allWeekAvailability(1, "08:00", "23:30")

	shifts := buildWeek(catalog, workers, windows, nil, monday2024, 1)

	// Saturday only: the Sunday cap for tier 16 is zero.
	if len(shifts) != 1 {
		t.Fatalf("expected 1 shift, got %d", len(shifts))
	}
	if shifts[0].Date != "2024-06-08" {
		t.Errorf("tier 16 assigned on %s, want Saturday 2024-06-08", shifts[0].Date)
	}
	if shifts[0].StartTime != "09:00" || shifts[0].EndTime != "17:00" {
		t.Errorf("tier 16 shift %s-%s, want 09:00-17:00", shifts[0].StartTime, shifts[0].EndTime)
	}
}

func TestBuildWeekBenefitBlocksDate(t *testing.T) {
	catalog := rules.Default()
	workers := []models.Worker{{ID: 1, ContractHours: 45, CanClose: true}}
	windows := allWeekAvailability(1, "08:00", "23:30")
	benefits := []models.Benefit{{WorkerID: 1, Date: "2024-06-04", Type: "leave"}}

	shifts := buildWeek(catalog, workers, windows, benefits, monday2024, 1)

	for _, sh := range shifts {
		if sh.Date == "2024-06-04" {
			t.Error("worker assigned on a benefit day")
		}
	}
	if len(shifts) != 4 {
		t.Errorf("expected 4 shifts around the benefit day, got %d", len(shifts))
	}
}

func TestBuildWeekSundayCapZero(t *testing.T) {
	catalog := rules.Default()
	workers := []models.Worker{{ID: 1, ContractHours: 20}}
	windows := allWeekAvailability(1, "08:00", "23:30")

	// Base on a Sunday so the cap is hit before the weekly day cap.
	sunday := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	shifts := buildWeek(catalog, workers, windows, nil, sunday, 1)

	for _, sh := range shifts {
		if sh.Date == "2024-06-02" {
			t.Error("tier 20 worker assigned on a Sunday despite cap 0")
		}
	}
	if len(shifts) != 4 {
		t.Errorf("expected 4 weekday shifts, got %d", len(shifts))
	}
}

func TestBuildWeekConsecutiveDayLimit(t *testing.T) {
	// Reduced catalog where nothing but the streak rule can stop a seventh
	// straight day.
	catalog := rules.New(rules.Catalog{
		StartSlots:      []string{"09:00"},
		AllowedEnds:     []string{"15:00"},
		ClosingCapacity: 3,
		Tiers: map[int]rules.TierRule{
			45: {WeekDays: 7, SundayCap: 2, DefaultHours: 6},
		},
	})
	workers := []models.Worker{{ID: 1, ContractHours: 45}}
	windows := allWeekAvailability(1, "08:00", "23:30")

	shifts := buildWeek(catalog, workers, windows, nil, monday2024, 1)

	if len(shifts) != 6 {
		t.Fatalf("expected streak to stop at 6 days, got %d shifts", len(shifts))
	}
	for _, sh := range shifts {
		if sh.Date == "2024-06-09" {
			t.Error("seventh consecutive day was assigned")
		}
	}
}

func newTestEnv(t *testing.T) (*store.Stores, *Generator) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	stores := store.New(db)
	return stores, NewGenerator(stores, rules.Default(), zap.NewNop())
}

func TestGenerateReplacesEntireStore(t *testing.T) {
	ctx := context.Background()
	stores, gen := newTestEnv(t)

	worker := models.Worker{Name: "Ana", Email: "ana@x", PasswordHash: "h", ContractHours: 45, CanClose: true}
	if err := stores.Workers.Create(ctx, &worker); err != nil {
		t.Fatalf("creating worker: %v", err)
	}
	for _, w := range allWeekAvailability(worker.ID, "08:00", "23:30") {
		w := w
		if err := stores.Availability.Upsert(ctx, &w); err != nil {
			t.Fatalf("creating availability: %v", err)
		}
	}
	// A stray shift far outside the generated week must not survive.
	stray := models.Shift{WorkerID: worker.ID, Date: "2030-01-01", StartTime: "08:00", EndTime: "18:00"}
	if err := stores.Shifts.Create(ctx, &stray); err != nil {
		t.Fatalf("creating stray shift: %v", err)
	}

	count, generated, err := gen.Generate(ctx, monday2024, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if count != len(generated) {
		t.Errorf("count %d does not match returned set %d", count, len(generated))
	}

	stored, err := stores.Shifts.ListAll(ctx)
	if err != nil {
		t.Fatalf("listing shifts: %v", err)
	}
	if len(stored) != count {
		t.Fatalf("store holds %d shifts, want exactly the %d generated", len(stored), count)
	}
	for _, sh := range stored {
		if sh.Date == "2030-01-01" {
			t.Error("stray shift survived the replace")
		}
	}
}
