package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/bfarias/turnos-api-go/pkg/models"
)

// WorkerStore is the roster read/write surface. The scheduler and the
// exchange engine only ever read from it.
type WorkerStore interface {
	ListAll(ctx context.Context) ([]models.Worker, error)
	Get(ctx context.Context, id uint) (*models.Worker, error)
	GetByEmail(ctx context.Context, email string) (*models.Worker, error)
	Create(ctx context.Context, w *models.Worker) error
	Update(ctx context.Context, w *models.Worker) error
	Delete(ctx context.Context, id uint) error
}

// AvailabilityStore manages per-worker weekly windows.
type AvailabilityStore interface {
	ListAll(ctx context.Context) ([]models.Availability, error)
	ListByWorker(ctx context.Context, workerID uint) ([]models.Availability, error)
	Upsert(ctx context.Context, a *models.Availability) error
	Delete(ctx context.Context, id uint) error
}

// BenefitStore manages assignment-blocking benefit days.
type BenefitStore interface {
	ListAll(ctx context.Context) ([]models.Benefit, error)
	ListByWorker(ctx context.Context, workerID uint) ([]models.Benefit, error)
	Create(ctx context.Context, b *models.Benefit) error
	Delete(ctx context.Context, id uint) error
}

// LeaveStore manages multi-day absences.
type LeaveStore interface {
	ListAll(ctx context.Context) ([]models.Leave, error)
	ListByWorker(ctx context.Context, workerID uint) ([]models.Leave, error)
	Create(ctx context.Context, l *models.Leave) error
	Delete(ctx context.Context, id uint) error
}

// ShiftStore manages shift rows. The ForUpdate variants acquire row locks on
// Postgres and must be called from within a transaction-scoped store (see
// NewShiftStore over a tx handle).
type ShiftStore interface {
	ListAll(ctx context.Context) ([]models.Shift, error)
	ListByDateRange(ctx context.Context, from, to string) ([]models.Shift, error)
	Get(ctx context.Context, id uint) (*models.Shift, error)
	Create(ctx context.Context, s *models.Shift) error
	Delete(ctx context.Context, id uint) error

	// ReplaceAll discards every stored shift and inserts the given set as
	// one atomic operation. It returns the number of inserted rows.
	ReplaceAll(ctx context.Context, shifts []models.Shift) (int, error)

	GetForUpdate(ctx context.Context, id uint) (*models.Shift, error)
	// GetByLocatorForUpdate resolves a shift by (worker, date, start, end),
	// picking the lowest id when duplicates exist.
	GetByLocatorForUpdate(ctx context.Context, workerID uint, date, start, end string) (*models.Shift, error)
	// ListSameDayForUpdate locks the worker's shifts on a date, excluding
	// one id, ordered by id ascending.
	ListSameDayForUpdate(ctx context.Context, workerID uint, date string, excludeID uint) ([]models.Shift, error)
	UpdateOwner(ctx context.Context, id, workerID uint) (*models.Shift, error)
}

// ExchangeLedger is the append-only record of confirmed exchanges.
type ExchangeLedger interface {
	Append(ctx context.Context, e *models.Exchange) error
	List(ctx context.Context, from, to string) ([]models.Exchange, error)
}

// Stores bundles every store over one database handle.
type Stores struct {
	Workers      WorkerStore
	Availability AvailabilityStore
	Benefits     BenefitStore
	Leaves       LeaveStore
	Shifts       ShiftStore
	Exchanges    ExchangeLedger
}

// New builds the full store set over db.
func New(db *gorm.DB) *Stores {
	return &Stores{
		Workers:      NewWorkerStore(db),
		Availability: NewAvailabilityStore(db),
		Benefits:     NewBenefitStore(db),
		Leaves:       NewLeaveStore(db),
		Shifts:       NewShiftStore(db),
		Exchanges:    NewExchangeLedger(db),
	}
}
