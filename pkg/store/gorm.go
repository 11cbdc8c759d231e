package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bfarias/turnos-api-go/pkg/models"
)

// ── workers ──

type workerStore struct {
	db *gorm.DB
}

// NewWorkerStore builds a WorkerStore over db.
func NewWorkerStore(db *gorm.DB) WorkerStore {
	return &workerStore{db: db}
}

func (s *workerStore) ListAll(ctx context.Context) ([]models.Worker, error) {
	var workers []models.Worker
	err := s.db.WithContext(ctx).Order("id").Find(&workers).Error
	return workers, err
}

func (s *workerStore) Get(ctx context.Context, id uint) (*models.Worker, error) {
	var w models.Worker
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *workerStore) GetByEmail(ctx context.Context, email string) (*models.Worker, error) {
	var w models.Worker
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *workerStore) Create(ctx context.Context, w *models.Worker) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *workerStore) Update(ctx context.Context, w *models.Worker) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *workerStore) Delete(ctx context.Context, id uint) error {
	// Related rows go first so no shift or window dangles.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("worker_id = ?", id).Delete(&models.Availability{}).Error; err != nil {
			return err
		}
		if err := tx.Where("worker_id = ?", id).Delete(&models.Benefit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("worker_id = ?", id).Delete(&models.Leave{}).Error; err != nil {
			return err
		}
		if err := tx.Where("worker_id = ?", id).Delete(&models.Shift{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Worker{}, id).Error
	})
}

// ── availability ──

type availabilityStore struct {
	db *gorm.DB
}

// NewAvailabilityStore builds an AvailabilityStore over db.
func NewAvailabilityStore(db *gorm.DB) AvailabilityStore {
	return &availabilityStore{db: db}
}

func (s *availabilityStore) ListAll(ctx context.Context) ([]models.Availability, error) {
	var windows []models.Availability
	err := s.db.WithContext(ctx).Order("worker_id, weekday").Find(&windows).Error
	return windows, err
}

func (s *availabilityStore) ListByWorker(ctx context.Context, workerID uint) ([]models.Availability, error) {
	var windows []models.Availability
	err := s.db.WithContext(ctx).Where("worker_id = ?", workerID).Order("weekday").Find(&windows).Error
	return windows, err
}

func (s *availabilityStore) Upsert(ctx context.Context, a *models.Availability) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "worker_id"}, {Name: "weekday"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"start_time": a.StartTime,
			"end_time":   a.EndTime,
		}),
	}).Create(a).Error
}

func (s *availabilityStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Availability{}, id).Error
}

// ── benefits ──

type benefitStore struct {
	db *gorm.DB
}

// NewBenefitStore builds a BenefitStore over db.
func NewBenefitStore(db *gorm.DB) BenefitStore {
	return &benefitStore{db: db}
}

func (s *benefitStore) ListAll(ctx context.Context) ([]models.Benefit, error) {
	var benefits []models.Benefit
	err := s.db.WithContext(ctx).Order("date").Find(&benefits).Error
	return benefits, err
}

func (s *benefitStore) ListByWorker(ctx context.Context, workerID uint) ([]models.Benefit, error) {
	var benefits []models.Benefit
	err := s.db.WithContext(ctx).Where("worker_id = ?", workerID).Order("date").Find(&benefits).Error
	return benefits, err
}

func (s *benefitStore) Create(ctx context.Context, b *models.Benefit) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *benefitStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Benefit{}, id).Error
}

// ── leaves ──

type leaveStore struct {
	db *gorm.DB
}

// NewLeaveStore builds a LeaveStore over db.
func NewLeaveStore(db *gorm.DB) LeaveStore {
	return &leaveStore{db: db}
}

func (s *leaveStore) ListAll(ctx context.Context) ([]models.Leave, error) {
	var leaves []models.Leave
	err := s.db.WithContext(ctx).Order("start_date").Find(&leaves).Error
	return leaves, err
}

func (s *leaveStore) ListByWorker(ctx context.Context, workerID uint) ([]models.Leave, error) {
	var leaves []models.Leave
	err := s.db.WithContext(ctx).Where("worker_id = ?", workerID).Order("start_date").Find(&leaves).Error
	return leaves, err
}

func (s *leaveStore) Create(ctx context.Context, l *models.Leave) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *leaveStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Leave{}, id).Error
}

// ── shifts ──

type shiftStore struct {
	db *gorm.DB
}

// NewShiftStore builds a ShiftStore over db. Pass a transaction handle to get
// a transaction-scoped store; the ForUpdate methods only make sense there.
func NewShiftStore(db *gorm.DB) ShiftStore {
	return &shiftStore{db: db}
}

// locked adds SELECT ... FOR UPDATE on Postgres. SQLite has no row-lock
// syntax; its transactions serialize on the database file instead.
func (s *shiftStore) locked(ctx context.Context) *gorm.DB {
	tx := s.db.WithContext(ctx)
	if s.db.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *shiftStore) ListAll(ctx context.Context) ([]models.Shift, error) {
	var shifts []models.Shift
	err := s.db.WithContext(ctx).Order("date, start_time, id").Find(&shifts).Error
	return shifts, err
}

func (s *shiftStore) ListByDateRange(ctx context.Context, from, to string) ([]models.Shift, error) {
	var shifts []models.Shift
	err := s.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date, start_time, id").
		Find(&shifts).Error
	return shifts, err
}

func (s *shiftStore) Get(ctx context.Context, id uint) (*models.Shift, error) {
	var sh models.Shift
	if err := s.db.WithContext(ctx).First(&sh, id).Error; err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *shiftStore) Create(ctx context.Context, sh *models.Shift) error {
	return s.db.WithContext(ctx).Create(sh).Error
}

func (s *shiftStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Shift{}, id).Error
}

func (s *shiftStore) ReplaceAll(ctx context.Context, shifts []models.Shift) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Shift{}).Error; err != nil {
			return err
		}
		if len(shifts) == 0 {
			return nil
		}
		return tx.CreateInBatches(shifts, 200).Error
	})
	if err != nil {
		return 0, err
	}
	return len(shifts), nil
}

func (s *shiftStore) GetForUpdate(ctx context.Context, id uint) (*models.Shift, error) {
	var sh models.Shift
	if err := s.locked(ctx).First(&sh, id).Error; err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *shiftStore) GetByLocatorForUpdate(ctx context.Context, workerID uint, date, start, end string) (*models.Shift, error) {
	var sh models.Shift
	err := s.locked(ctx).
		Where("worker_id = ? AND date = ? AND start_time = ? AND end_time = ?", workerID, date, start, end).
		Order("id ASC").
		First(&sh).Error
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *shiftStore) ListSameDayForUpdate(ctx context.Context, workerID uint, date string, excludeID uint) ([]models.Shift, error) {
	var shifts []models.Shift
	err := s.locked(ctx).
		Where("worker_id = ? AND date = ? AND id <> ?", workerID, date, excludeID).
		Order("id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (s *shiftStore) UpdateOwner(ctx context.Context, id, workerID uint) (*models.Shift, error) {
	res := s.db.WithContext(ctx).Model(&models.Shift{}).Where("id = ?", id).Update("worker_id", workerID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.Get(ctx, id)
}

// ── exchange ledger ──

type exchangeLedger struct {
	db *gorm.DB
}

// NewExchangeLedger builds an ExchangeLedger over db.
func NewExchangeLedger(db *gorm.DB) ExchangeLedger {
	return &exchangeLedger{db: db}
}

func (s *exchangeLedger) Append(ctx context.Context, e *models.Exchange) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *exchangeLedger) List(ctx context.Context, from, to string) ([]models.Exchange, error) {
	q := s.db.WithContext(ctx).Model(&models.Exchange{})
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	var records []models.Exchange
	err := q.Order("created_at DESC, id DESC").Find(&records).Error
	return records, err
}
