package models

import "time"

// Exchange types and statuses. The exchange engine only ever writes
// confirmed records; confirmation is synchronous.
const (
	ExchangeSwap     = "swap"
	ExchangeCoverage = "coverage"

	StatusConfirmed = "confirmed"
)

// Worker roles.
const (
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Worker represents an employee on the roster. ContractHours is the weekly
// contract tier (16, 20, 30 or 45) driving duration and eligibility rules.
type Worker struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Email         string    `gorm:"unique;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	Role          string    `gorm:"default:staff" json:"role"`
	ContractHours int       `gorm:"not null" json:"contract_hours"`
	CanClose      bool      `gorm:"default:false" json:"can_close"`
	CreatedAt     time.Time `json:"created_at"`
}

// Availability is a worker's weekly window for one weekday. The scheduler
// assumes at most one row per (worker, weekday).
type Availability struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	WorkerID  uint   `gorm:"uniqueIndex:idx_worker_weekday;not null" json:"worker_id"`
	Weekday   int    `gorm:"uniqueIndex:idx_worker_weekday;not null" json:"weekday"`
	StartTime string `gorm:"not null" json:"start_time"`
	EndTime   string `gorm:"not null" json:"end_time"`
}

// Benefit blocks any assignment for the worker on the given date (leave,
// comp day, and so on).
type Benefit struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	WorkerID uint   `gorm:"index;not null" json:"worker_id"`
	Date     string `gorm:"index;not null" json:"date"`
	Type     string `gorm:"not null" json:"type"`
}

// Leave is a multi-day absence. Every date in [StartDate, EndDate] blocks
// the worker from taking on exchanged shifts.
type Leave struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	WorkerID  uint   `gorm:"index;not null" json:"worker_id"`
	StartDate string `gorm:"index;not null" json:"start_date"`
	EndDate   string `gorm:"not null" json:"end_date"`
}

// Covers reports whether the date falls inside the leave range. Dates are
// "YYYY-MM-DD" strings, so the comparison is lexicographic.
func (l Leave) Covers(date string) bool {
	return l.StartDate <= date && date <= l.EndDate
}

// Shift is a single assignment. Exactly one worker owns a shift at any time;
// ownership is the only field an exchange mutates.
type Shift struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	WorkerID  uint   `gorm:"index;not null" json:"worker_id"`
	Date      string `gorm:"index;not null" json:"date"`
	StartTime string `gorm:"not null" json:"start_time"`
	EndTime   string `gorm:"not null" json:"end_time"`
	CreatedBy uint   `json:"created_by"`
	Notes     string `json:"notes"`
}

// Exchange is the audit record of a confirmed swap or coverage.
type Exchange struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	OriginShiftID uint       `gorm:"not null" json:"origin_shift_id"`
	RequesterID   uint       `gorm:"index;not null" json:"requester_id"`
	CandidateID   uint       `gorm:"index;not null" json:"candidate_id"`
	Date          string     `gorm:"index;not null" json:"date"`
	Type          string     `gorm:"not null" json:"type"`
	Status        string     `gorm:"not null" json:"status"`
	TargetShiftID *uint      `json:"target_shift_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at"`
}
