package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bfarias/turnos-api-go/pkg/auth"
	"github.com/bfarias/turnos-api-go/pkg/config"
	"github.com/bfarias/turnos-api-go/pkg/database"
	"github.com/bfarias/turnos-api-go/pkg/exchange"
	"github.com/bfarias/turnos-api-go/pkg/handlers"
	"github.com/bfarias/turnos-api-go/pkg/logger"
	"github.com/bfarias/turnos-api-go/pkg/rules"
	"github.com/bfarias/turnos-api-go/pkg/scheduler"
	"github.com/bfarias/turnos-api-go/pkg/store"
)

func main() {
	// Load .env if it exists. Try root and parent directories for
	// flexibility.
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg, err := config.Load(os.Getenv("TURNOS_CONFIG"))
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Init(cfg.Database)
	if err != nil {
		zlog.Fatal("database init failed", zap.Error(err))
	}

	stores := store.New(db)
	if err := auth.EnsureManagerExists(context.Background(), stores.Workers, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		zlog.Fatal("manager bootstrap failed", zap.Error(err))
	}

	catalog := rules.Default()
	h := &handlers.Handler{
		Stores:      stores,
		Generator:   scheduler.NewGenerator(stores, catalog, zlog),
		Recommender: exchange.NewRecommender(stores, catalog, zlog),
		Confirmer:   exchange.NewConfirmer(db, zlog),
		Auth:        auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour),
		Logger:      zlog,
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), h.RequestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Turnos API",
			"version": "1.0.0",
		})
	})
	r.POST("/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/workers", h.ListWorkers)
		api.GET("/availabilities", h.ListAvailability)
		api.GET("/benefits", h.ListBenefits)
		api.GET("/leaves", h.ListLeaves)
		api.GET("/shifts", h.ListShifts)
		api.GET("/exchanges", h.ListExchanges)

		api.POST("/exchanges/recommend", h.RecommendExchange)
		api.POST("/exchanges/confirm", h.ConfirmExchange)
	}

	mgmt := api.Group("")
	mgmt.Use(h.RequireManager())
	{
		mgmt.POST("/workers", h.CreateWorker)
		mgmt.PUT("/workers/:id", h.UpdateWorker)
		mgmt.DELETE("/workers/:id", h.DeleteWorker)

		mgmt.POST("/availabilities", h.UpsertAvailability)
		mgmt.DELETE("/availabilities/:id", h.DeleteAvailability)

		mgmt.POST("/benefits", h.CreateBenefit)
		mgmt.DELETE("/benefits/:id", h.DeleteBenefit)

		mgmt.POST("/leaves", h.CreateLeave)
		mgmt.DELETE("/leaves/:id", h.DeleteLeave)

		mgmt.POST("/shifts", h.CreateShift)
		mgmt.DELETE("/shifts/:id", h.DeleteShift)

		mgmt.POST("/schedule/generate", h.GenerateSchedule)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
