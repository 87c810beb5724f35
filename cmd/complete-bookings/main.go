// Command complete-bookings marks confirmed bookings of ended events as
// completed, which makes their owners eligible to review. Run it from cron.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/config"
	"github.com/iliyamo/eventmate/internal/database"
	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadDB()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	svc := ledger.New(repository.NewStore(db), clock.NewSystem())
	n, err := svc.CompleteFinished(ctx)
	if err != nil {
		log.Fatalf("complete bookings: %v", err)
	}
	log.Printf("completed %d booking(s)", n)
}
