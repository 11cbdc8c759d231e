package exchange

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
)

func newTestDB(t *testing.T) (*gorm.DB, *store.Stores) {
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
	return db, store.New(db)
}

func seedWorker(t *testing.T, stores *store.Stores, name string, hours int, canClose bool) uint {
	t.Helper()
	ctx := context.Background()
	w := models.Worker{Name: name, Email: name + "@test", PasswordHash: "h", ContractHours: hours, CanClose: canClose}
	if err := stores.Workers.Create(ctx, &w); err != nil {
		t.Fatalf("creating worker %s: %v", name, err)
	}
	for day := 0; day < 7; day++ {
		a := models.Availability{WorkerID: w.ID, Weekday: day, StartTime: "08:00", EndTime: "23:30"}
		if err := stores.Availability.Upsert(ctx, &a); err != nil {
			t.Fatalf("creating availability for %s: %v", name, err)
		}
	}
	return w.ID
}

// newTestRecommender pins the clock before the fixture week so the
// started-shift guard does not interfere.
func newTestRecommender(stores *store.Stores) *Recommender {
	r := NewRecommender(stores, rules.Default(), zap.NewNop())
	r.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func seedShift(t *testing.T, stores *store.Stores, workerID uint, date, start, end string) uint {
	t.Helper()
	sh := models.Shift{WorkerID: workerID, Date: date, StartTime: start, EndTime: end}
	if err := stores.Shifts.Create(context.Background(), &sh); err != nil {
		t.Fatalf("creating shift: %v", err)
	}
	return sh.ID
}

func TestRecommendFindsSwapPair(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "18:00")
	targetID := seedShift(t, stores, w2, "2024-06-04", "08:00", "18:00")

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Type != models.ExchangeSwap {
		t.Errorf("type = %s, want swap", rec.Type)
	}
	if rec.WorkerID != w2 {
		t.Errorf("candidate = %d, want %d", rec.WorkerID, w2)
	}
	if rec.TargetShift == nil || rec.TargetShift.ID != targetID {
		t.Errorf("target shift = %+v, want id %d", rec.TargetShift, targetID)
	}
}

func TestRecommendDowngradesToCoverage(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "18:00")
	seedShift(t, stores, w2, "2024-06-04", "08:00", "18:00")

	// The requester cannot take the return leg, so only coverage remains.
	benefit := models.Benefit{WorkerID: w1, Date: "2024-06-04", Type: "leave"}
	if err := stores.Benefits.Create(ctx, &benefit); err != nil {
		t.Fatalf("creating benefit: %v", err)
	}

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Type != models.ExchangeCoverage {
		t.Errorf("type = %s, want coverage", recs[0].Type)
	}
	if recs[0].TargetShift != nil {
		t.Errorf("coverage carries a target shift: %+v", recs[0].TargetShift)
	}
}

func TestRecommendUnknownWorkerYieldsEmptyList(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: 999,
		Date:     "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("unknown worker must not error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations for an unknown worker, want 0", len(recs))
	}
}

func TestRecommendSkipsWorkersWithoutWeekShifts(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "18:00")
	// w2's only shift sits in the next week, outside the origin's horizon.
	seedShift(t, stores, w2, "2024-06-10", "08:00", "18:00")

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations, want 0 when no one works the week", len(recs))
	}
}

func TestRecommendClosingShiftNeedsPermission(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, false)

	originID := seedShift(t, stores, w1, "2024-06-03", "17:30", "22:00")
	seedShift(t, stores, w2, "2024-06-04", "08:00", "18:00")

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "17:30", EndTime: "22:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations, want 0: the candidate cannot close", len(recs))
	}
}

func TestRecommendRespectsSundayCap(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 20, false)

	// Origin falls on the Sunday of the week; tier 20 has a zero Sunday cap.
	originID := seedShift(t, stores, w1, "2024-06-09", "08:00", "18:00")
	seedShift(t, stores, w2, "2024-06-05", "12:00", "17:00")

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-09", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations, want 0: Sunday cap excludes the candidate", len(recs))
	}
}

func TestRecommendRejectsSameDayOverlap(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "16:00")
	// Overlaps the origin on the same date, so w2 cannot take it on.
	seedShift(t, stores, w2, "2024-06-03", "12:00", "20:00")

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "16:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	for _, rec := range recs {
		if rec.WorkerID == w2 && rec.Type == models.ExchangeSwap {
			t.Errorf("overlapping candidate was offered a swap")
		}
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations, want 0", len(recs))
	}
}

func TestRecommendLeaveBlocksCandidate(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "18:00")
	seedShift(t, stores, w2, "2024-06-04", "08:00", "18:00")

	leave := models.Leave{WorkerID: w2, StartDate: "2024-06-01", EndDate: "2024-06-07"}
	if err := stores.Leaves.Create(ctx, &leave); err != nil {
		t.Fatalf("creating leave: %v", err)
	}

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations, want 0: the candidate is on leave", len(recs))
	}
}

func TestRecommendLeaveBlocksReturnLeg(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "18:00")
	seedShift(t, stores, w2, "2024-06-04", "08:00", "18:00")

	// The requester's leave covers only the target date, so the swap
	// degrades to coverage.
	leave := models.Leave{WorkerID: w1, StartDate: "2024-06-04", EndDate: "2024-06-04"}
	if err := stores.Leaves.Create(ctx, &leave); err != nil {
		t.Fatalf("creating leave: %v", err)
	}

	r := newTestRecommender(stores)
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Type != models.ExchangeCoverage {
		t.Errorf("type = %s, want coverage when the return leg is on leave", recs[0].Type)
	}
}

func TestRecommendStartedShiftYieldsEmptyList(t *testing.T) {
	ctx := context.Background()
	_, stores := newTestDB(t)
	w1 := seedWorker(t, stores, "ana", 45, true)
	w2 := seedWorker(t, stores, "celeste", 45, true)

	originID := seedShift(t, stores, w1, "2024-06-03", "08:00", "18:00")
	seedShift(t, stores, w2, "2024-06-04", "08:00", "18:00")

	r := newTestRecommender(stores)
	// One minute past the origin's start.
	r.now = func() time.Time { return time.Date(2024, 6, 3, 8, 1, 0, 0, time.UTC) }
	recs, err := r.Recommend(ctx, Origin{
		WorkerID: w1, ShiftID: &originID,
		Date: "2024-06-03", StartTime: "08:00", EndTime: "18:00",
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations for a started shift, want 0", len(recs))
	}
}

func TestDurationHours(t *testing.T) {
	tests := []struct {
		start, end string
		want       float64
	}{
		{"08:00", "18:00", 9},
		{"08:00", "16:00", 7},
		{"14:00", "14:30", 0},
		{"10:00", "10:00", 0},
	}
	for _, tt := range tests {
		if got := durationHours(tt.start, tt.end); got != tt.want {
			t.Errorf("durationHours(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}
