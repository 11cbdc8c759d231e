package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bfarias/turnos-api-go/pkg/models"
	"github.com/bfarias/turnos-api-go/pkg/store"
	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

var (
	// ErrInvalidRequest flags a malformed confirmation; nothing has been
	// mutated when it is returned.
	ErrInvalidRequest = errors.New("invalid exchange request")
	// ErrShiftNotFound flags an origin or target shift that could not be
	// located.
	ErrShiftNotFound = errors.New("shift not found")
)

// ConfirmRequest identifies the exchange to apply. The origin shift is given
// either by id or by the (requester, date, start, end) locator; a swap also
// needs the target shift id.
type ConfirmRequest struct {
	Type          string
	RequesterID   uint
	CandidateID   uint
	Date          string
	OriginShiftID *uint
	StartTime     string
	EndTime       string
	TargetShiftID *uint
}

// ConfirmResult reports the appended ledger record and every shift the
// transaction reassigned.
type ConfirmResult struct {
	Exchange      models.Exchange `json:"exchange"`
	UpdatedShifts []models.Shift  `json:"updated_shifts"`
}

// Confirmer applies a chosen swap or coverage as one all-or-nothing
// transaction with row locks on every shift it reads. It trusts the caller's
// chosen pair: feasibility is not re-validated, and resubmitting an applied
// swap performs the reverse swap.
type Confirmer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewConfirmer builds a Confirmer over the database handle.
func NewConfirmer(db *gorm.DB, logger *zap.Logger) *Confirmer {
	return &Confirmer{db: db, logger: logger}
}

func (req *ConfirmRequest) validate() error {
	if req.Type != models.ExchangeSwap && req.Type != models.ExchangeCoverage {
		return fmt.Errorf("%w: type must be %q or %q", ErrInvalidRequest, models.ExchangeSwap, models.ExchangeCoverage)
	}
	if req.RequesterID == 0 || req.CandidateID == 0 || req.Date == "" {
		return fmt.Errorf("%w: requester_id, candidate_id and date are required", ErrInvalidRequest)
	}
	if _, err := timeutil.ParseDate(req.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if req.OriginShiftID == nil && (req.StartTime == "" || req.EndTime == "") {
		return fmt.Errorf("%w: start_time and end_time are required without origin_shift_id", ErrInvalidRequest)
	}
	if req.Type == models.ExchangeSwap && req.TargetShiftID == nil {
		return fmt.Errorf("%w: target_shift_id is required for a swap", ErrInvalidRequest)
	}
	return nil
}

// Confirm validates, locks, mutates and records the exchange. Any failure
// after validation rolls the whole transaction back; no partial application
// is observable.
func (c *Confirmer) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var result ConfirmResult
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shifts := store.NewShiftStore(tx)
		ledger := store.NewExchangeLedger(tx)

		origin, err := locateOrigin(ctx, shifts, req)
		if err != nil {
			return err
		}

		var updated []models.Shift
		record := models.Exchange{
			OriginShiftID: origin.ID,
			RequesterID:   req.RequesterID,
			CandidateID:   req.CandidateID,
			Date:          req.Date,
			Type:          req.Type,
			Status:        models.StatusConfirmed,
		}
		now := time.Now()
		record.ConfirmedAt = &now

		switch req.Type {
		case models.ExchangeSwap:
			target, err := shifts.GetForUpdate(ctx, *req.TargetShiftID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: target shift %d", ErrShiftNotFound, *req.TargetShiftID)
				}
				return err
			}
			if target.ID == origin.ID {
				return fmt.Errorf("%w: cannot swap a shift with itself", ErrInvalidRequest)
			}

			a, err := shifts.UpdateOwner(ctx, origin.ID, req.CandidateID)
			if err != nil {
				return err
			}
			b, err := shifts.UpdateOwner(ctx, target.ID, req.RequesterID)
			if err != nil {
				return err
			}
			updated = []models.Shift{*a, *b}
			record.TargetShiftID = &target.ID

		case models.ExchangeCoverage:
			a, err := shifts.UpdateOwner(ctx, origin.ID, req.CandidateID)
			if err != nil {
				return err
			}
			updated = []models.Shift{*a}

			// One cascading reassignment only: the candidate's
			// lowest-id remaining shift that date goes back to the
			// requester, even when they held several.
			sameDay, err := shifts.ListSameDayForUpdate(ctx, req.CandidateID, origin.Date, origin.ID)
			if err != nil {
				return err
			}
			if len(sameDay) > 0 {
				back, err := shifts.UpdateOwner(ctx, sameDay[0].ID, req.RequesterID)
				if err != nil {
					return err
				}
				updated = append(updated, *back)
			}
		}

		if err := ledger.Append(ctx, &record); err != nil {
			return err
		}
		result = ConfirmResult{Exchange: record, UpdatedShifts: updated}
		return nil
	})
	if err != nil {
		c.logger.Warn("exchange confirmation failed",
			zap.String("type", req.Type),
			zap.Uint("requester", req.RequesterID),
			zap.Uint("candidate", req.CandidateID),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("exchange confirmed",
		zap.String("type", req.Type),
		zap.Uint("origin_shift", result.Exchange.OriginShiftID),
		zap.Uint("requester", req.RequesterID),
		zap.Uint("candidate", req.CandidateID))
	return &result, nil
}

// locateOrigin resolves shift A by id or by composite locator, taking the
// lowest id among duplicate (worker, date, start, end) rows.
func locateOrigin(ctx context.Context, shifts store.ShiftStore, req ConfirmRequest) (*models.Shift, error) {
	if req.OriginShiftID != nil {
		sh, err := shifts.GetForUpdate(ctx, *req.OriginShiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: origin shift %d", ErrShiftNotFound, *req.OriginShiftID)
			}
			return nil, err
		}
		return sh, nil
	}
	sh, err := shifts.GetByLocatorForUpdate(ctx, req.RequesterID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no shift matches the origin locator", ErrShiftNotFound)
		}
		return nil, err
	}
	return sh, nil
}
