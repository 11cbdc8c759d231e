package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bfarias/turnos-api-go/pkg/auth"
	"github.com/bfarias/turnos-api-go/pkg/models"
	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// ── workers ──

// WorkerInput is the create/update payload for roster entries.
type WorkerInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	ContractHours int    `json:"contract_hours" binding:"required"`
	CanClose      bool   `json:"can_close"`
}

// ListWorkers returns the roster in id order.
func (h *Handler) ListWorkers(c *gin.Context) {
	workers, err := h.Stores.Workers.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, workers)
}

// CreateWorker adds a roster entry.
func (h *Handler) CreateWorker(c *gin.Context) {
	var input WorkerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}
	role := input.Role
	if role == "" {
		role = models.RoleStaff
	}
	worker := models.Worker{
		Name:          input.Name,
		Email:         input.Email,
		PasswordHash:  hash,
		Role:          role,
		ContractHours: input.ContractHours,
		CanClose:      input.CanClose,
	}
	if err := h.Stores.Workers.Create(c.Request.Context(), &worker); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create worker"})
		return
	}
	c.JSON(http.StatusCreated, worker)
}

// UpdateWorker edits a roster entry.
func (h *Handler) UpdateWorker(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	worker, err := h.Stores.Workers.Get(c.Request.Context(), id)
	if err != nil {
		notFoundOr500(c, err, "Worker")
		return
	}

	var input WorkerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	worker.Name = input.Name
	worker.Email = input.Email
	worker.ContractHours = input.ContractHours
	worker.CanClose = input.CanClose
	if input.Role != "" {
		worker.Role = input.Role
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
			return
		}
		worker.PasswordHash = hash
	}
	if err := h.Stores.Workers.Update(c.Request.Context(), worker); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update worker"})
		return
	}
	c.JSON(http.StatusOK, worker)
}

// DeleteWorker removes a roster entry and everything hanging off it.
func (h *Handler) DeleteWorker(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Stores.Workers.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete worker"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ── availability ──

// AvailabilityInput is the upsert payload for a weekly window.
type AvailabilityInput struct {
	WorkerID  uint   `json:"worker_id" binding:"required"`
	Weekday   *int   `json:"weekday" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// ListAvailability returns every weekly window, optionally for one worker.
func (h *Handler) ListAvailability(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("worker_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker_id"})
			return
		}
		windows, err := h.Stores.Availability.ListByWorker(ctx, uint(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusOK, windows)
		return
	}
	windows, err := h.Stores.Availability.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, windows)
}

// UpsertAvailability creates or replaces the window for a (worker, weekday).
func (h *Handler) UpsertAvailability(c *gin.Context) {
	var input AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *input.Weekday < 0 || *input.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be 0 (Sunday) through 6 (Saturday)"})
		return
	}
	if _, err := timeutil.ParseClock(input.StartTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be HH:MM"})
		return
	}
	if _, err := timeutil.ParseClock(input.EndTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be HH:MM"})
		return
	}
	window := models.Availability{
		WorkerID:  input.WorkerID,
		Weekday:   *input.Weekday,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	if err := h.Stores.Availability.Upsert(c.Request.Context(), &window); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save availability"})
		return
	}
	c.JSON(http.StatusOK, window)
}

// DeleteAvailability removes one weekly window.
func (h *Handler) DeleteAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Stores.Availability.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ── benefits ──

// BenefitInput is the create payload for a benefit day.
type BenefitInput struct {
	WorkerID uint   `json:"worker_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Type     string `json:"type" binding:"required"`
}

// ListBenefits returns benefit days, optionally for one worker.
func (h *Handler) ListBenefits(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("worker_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker_id"})
			return
		}
		benefits, err := h.Stores.Benefits.ListByWorker(ctx, uint(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusOK, benefits)
		return
	}
	benefits, err := h.Stores.Benefits.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, benefits)
}

// CreateBenefit registers a benefit day blocking assignment.
func (h *Handler) CreateBenefit(c *gin.Context) {
	var input BenefitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := timeutil.ParseDate(input.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	benefit := models.Benefit{WorkerID: input.WorkerID, Date: input.Date, Type: input.Type}
	if err := h.Stores.Benefits.Create(c.Request.Context(), &benefit); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create benefit"})
		return
	}
	c.JSON(http.StatusCreated, benefit)
}

// DeleteBenefit removes a benefit day.
func (h *Handler) DeleteBenefit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Stores.Benefits.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete benefit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ── leaves ──

// LeaveInput is the create payload for a multi-day absence.
type LeaveInput struct {
	WorkerID  uint   `json:"worker_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// ListLeaves returns leave ranges, optionally for one worker.
func (h *Handler) ListLeaves(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("worker_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker_id"})
			return
		}
		leaves, err := h.Stores.Leaves.ListByWorker(ctx, uint(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusOK, leaves)
		return
	}
	leaves, err := h.Stores.Leaves.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, leaves)
}

// CreateLeave registers a leave range blocking exchange feasibility.
func (h *Handler) CreateLeave(c *gin.Context) {
	var input LeaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := timeutil.ParseDate(input.StartDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	if _, err := timeutil.ParseDate(input.EndDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}
	if input.EndDate < input.StartDate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date before start_date"})
		return
	}
	leave := models.Leave{WorkerID: input.WorkerID, StartDate: input.StartDate, EndDate: input.EndDate}
	if err := h.Stores.Leaves.Create(c.Request.Context(), &leave); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create leave"})
		return
	}
	c.JSON(http.StatusCreated, leave)
}

// DeleteLeave removes a leave range.
func (h *Handler) DeleteLeave(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Stores.Leaves.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete leave"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ── shifts ──

// ShiftInput is the manual shift creation payload.
type ShiftInput struct {
	WorkerID  uint   `json:"worker_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Notes     string `json:"notes"`
}

// ListShifts returns shifts, limited by ?from=/?to= dates when given.
func (h *Handler) ListShifts(c *gin.Context) {
	ctx := c.Request.Context()
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		shifts, err := h.Stores.Shifts.ListAll(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusOK, shifts)
		return
	}
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	shifts, err := h.Stores.Shifts.ListByDateRange(ctx, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// CreateShift records a manually assigned shift.
func (h *Handler) CreateShift(c *gin.Context) {
	var input ShiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := timeutil.ParseDate(input.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if _, err := timeutil.ParseClock(input.StartTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be HH:MM"})
		return
	}
	if _, err := timeutil.ParseClock(input.EndTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be HH:MM"})
		return
	}
	shift := models.Shift{
		WorkerID:  input.WorkerID,
		Date:      input.Date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		CreatedBy: c.GetUint("worker_id"),
		Notes:     input.Notes,
	}
	if err := h.Stores.Shifts.Create(c.Request.Context(), &shift); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create shift"})
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// DeleteShift removes one shift row.
func (h *Handler) DeleteShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Stores.Shifts.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete shift"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
