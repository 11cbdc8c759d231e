package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bfarias/turnos-api-go/pkg/auth"
	"github.com/bfarias/turnos-api-go/pkg/exchange"
	"github.com/bfarias/turnos-api-go/pkg/scheduler"
	"github.com/bfarias/turnos-api-go/pkg/store"
	"github.com/bfarias/turnos-api-go/pkg/timeutil"
)

// Handler contains dependencies for the route handlers.
type Handler struct {
	Stores      *store.Stores
	Generator   *scheduler.Generator
	Recommender *exchange.Recommender
	Confirmer   *exchange.Confirmer
	Auth        *auth.Manager
	Logger      *zap.Logger
}

// RequestLogger tags every request with an id and logs it on completion.
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.NewString()
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)

		start := time.Now()
		c.Next()

		h.Logger.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// AuthMiddleware verifies the bearer token and stores the caller's claims.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}
		c.Set("worker_id", claims.WorkerID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireManager restricts a route to manager accounts.
func (h *Handler) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "manager" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Manager role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginInput is the login request payload.
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a worker and issues a session token.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	worker, err := h.Stores.Workers.GetByEmail(c.Request.Context(), input.Email)
	if err != nil || !auth.CheckPasswordHash(input.Password, worker.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(worker)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "worker": worker})
}

// GenerateInput is the schedule generation payload.
type GenerateInput struct {
	BaseDate string `json:"base_date" binding:"required"`
}

// GenerateSchedule computes a full week from the base date and replaces the
// stored shift set.
func (h *Handler) GenerateSchedule(c *gin.Context) {
	var input GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	base, err := timeutil.ParseDate(input.BaseDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_date must be YYYY-MM-DD"})
		return
	}

	count, shifts, err := h.Generator.Generate(c.Request.Context(), base, c.GetUint("worker_id"))
	if err != nil {
		h.Logger.Error("schedule generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate schedule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": count, "shifts": shifts})
}

// RecommendInput describes the origin shift to trade away. The shift may be
// hypothetical; shift_id is optional.
type RecommendInput struct {
	WorkerID  uint   `json:"worker_id" binding:"required"`
	ShiftID   *uint  `json:"shift_id"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// RecommendExchange lists feasible swap and coverage counterparts.
func (h *Handler) RecommendExchange(c *gin.Context) {
	var input RecommendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, err := h.Recommender.Recommend(c.Request.Context(), exchange.Origin{
		WorkerID:  input.WorkerID,
		ShiftID:   input.ShiftID,
		Date:      input.Date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	})
	if err != nil {
		h.Logger.Error("recommendation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not compute recommendations"})
		return
	}

	swaps := []exchange.Recommendation{}
	coverages := []exchange.Recommendation{}
	for _, r := range recs {
		if r.TargetShift != nil {
			swaps = append(swaps, r)
		} else {
			coverages = append(coverages, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"swaps": swaps, "coverages": coverages})
}

// ConfirmInput is the exchange confirmation payload.
type ConfirmInput struct {
	Type          string `json:"type" binding:"required"`
	RequesterID   uint   `json:"requester_id" binding:"required"`
	CandidateID   uint   `json:"candidate_id" binding:"required"`
	Date          string `json:"date" binding:"required"`
	OriginShiftID *uint  `json:"origin_shift_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	TargetShiftID *uint  `json:"target_shift_id"`
}

// ConfirmExchange applies a chosen swap or coverage atomically.
func (h *Handler) ConfirmExchange(c *gin.Context) {
	var input ConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Confirmer.Confirm(c.Request.Context(), exchange.ConfirmRequest{
		Type:          strings.ToLower(input.Type),
		RequesterID:   input.RequesterID,
		CandidateID:   input.CandidateID,
		Date:          input.Date,
		OriginShiftID: input.OriginShiftID,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		TargetShiftID: input.TargetShiftID,
	})
	if err != nil {
		switch {
		case errors.Is(err, exchange.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, exchange.ErrShiftNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not confirm exchange"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListExchanges returns the confirmed exchange history, optionally limited
// by ?from= and ?to= dates.
func (h *Handler) ListExchanges(c *gin.Context) {
	records, err := h.Stores.Exchanges.List(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.Logger.Error("exchange history query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch exchange history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// notFoundOr500 maps a store error to 404 or 500.
func notFoundOr500(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}
