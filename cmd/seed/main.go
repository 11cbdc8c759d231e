package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/bfarias/turnos-api-go/pkg/auth"
	"github.com/bfarias/turnos-api-go/pkg/config"
	"github.com/bfarias/turnos-api-go/pkg/database"
	"github.com/bfarias/turnos-api-go/pkg/models"
	"github.com/bfarias/turnos-api-go/pkg/store"
)

// Seeds a manager account and a small demo roster with availability, so a
// fresh database can run a generation immediately.
//
// Usage: go run ./cmd/seed <manager-email> <manager-password>
func main() {
	_ = godotenv.Load("../.env")
	_ = godotenv.Load(".env")

	if len(os.Args) < 3 {
		fmt.Println("Usage: seed <manager-email> <manager-password>")
		os.Exit(1)
	}
	email, password := os.Args[1], os.Args[2]

	cfg, err := config.Load(os.Getenv("TURNOS_CONFIG"))
	if err != nil {
		fmt.Printf("Error: could not load config: %v\n", err)
		os.Exit(1)
	}
	db, err := database.Init(cfg.Database)
	if err != nil {
		fmt.Printf("Error: could not open database: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	stores := store.New(db)

	if err := auth.EnsureManagerExists(ctx, stores.Workers, email, password); err != nil {
		fmt.Printf("Error: manager bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Manager account ready: %s\n", email)

	demo := []struct {
		worker models.Worker
		start  string
		end    string
	}{
		{models.Worker{Name: "Carla Rojas", Email: "carla@demo.local", ContractHours: 45, CanClose: true}, "08:00", "23:30"},
		{models.Worker{Name: "Diego Soto", Email: "diego@demo.local", ContractHours: 30, CanClose: true}, "08:30", "22:00"},
		{models.Worker{Name: "Valentina Paz", Email: "valentina@demo.local", ContractHours: 20, CanClose: false}, "09:00", "18:00"},
		{models.Worker{Name: "Tomas Ibarra", Email: "tomas@demo.local", ContractHours: 16, CanClose: false}, "08:00", "20:00"},
	}

	created := 0
	for _, d := range demo {
		w := d.worker
		if _, err := stores.Workers.GetByEmail(ctx, w.Email); err == nil {
			continue
		}
		hash, err := auth.HashPassword("demo1234")
		if err != nil {
			fmt.Printf("Error: hashing demo password: %v\n", err)
			os.Exit(1)
		}
		w.PasswordHash = hash
		w.Role = models.RoleStaff
		if err := stores.Workers.Create(ctx, &w); err != nil {
			fmt.Printf("Error: creating %s: %v\n", w.Email, err)
			os.Exit(1)
		}
		for day := time.Sunday; day <= time.Saturday; day++ {
			window := models.Availability{
				WorkerID:  w.ID,
				Weekday:   int(day),
				StartTime: d.start,
				EndTime:   d.end,
			}
			if err := stores.Availability.Upsert(ctx, &window); err != nil {
				fmt.Printf("Error: availability for %s: %v\n", w.Email, err)
				os.Exit(1)
			}
		}
		created++
	}
	fmt.Printf("Demo roster ready (%d new workers)\n", created)
}
