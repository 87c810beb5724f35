// Command seed loads a host account, a few cities and sample events into
// an empty database. Running it twice leaves the data unchanged.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/config"
	"github.com/iliyamo/eventmate/internal/database"
	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
	"github.com/iliyamo/eventmate/internal/repository"
)

var cities = []model.City{
	{Name: "Lisbon", Country: "Portugal", Slug: "lisbon", IsFeatured: true},
	{Name: "Berlin", Country: "Germany", Slug: "berlin", IsFeatured: true},
	{Name: "Austin", State: "Texas", Country: "United States", Slug: "austin"},
}

type sampleEvent struct {
	title    string
	category string
	city     string
	location string
	inDays   int
	hours    int
	price    int64
	capacity int
}

var samples = []sampleEvent{
	{"Riverside Jazz Night", "music", "lisbon", "Cais do Sodré", 14, 3, 2500, 120},
	{"Go Meetup: Concurrency Patterns", "tech", "berlin", "Factory Görlitzer Park", 21, 2, 0, 80},
	{"Sunrise Yoga in the Park", "wellness", "austin", "Zilker Park", 7, 1, 1000, 30},
	{"Street Food Festival", "food", "lisbon", "LX Factory", 30, 8, 500, 500},
}

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

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	hostID, err := seedHost(ctx, repository.NewUserRepo(db))
	if err != nil {
		log.Fatalf("seed host: %v", err)
	}

	cityRepo := repository.NewCityRepo(db)
	cityIDs := make(map[string]uint64, len(cities))
	for _, c := range cities {
		id, err := cityRepo.Upsert(ctx, c)
		if err != nil {
			log.Fatalf("seed city %s: %v", c.Slug, err)
		}
		cityIDs[c.Slug] = id
	}

	clk := clock.NewSystem()
	svc := ledger.New(repository.NewStore(db), clk)
	day := clk.Now().Truncate(24 * time.Hour)
	created := 0
	for _, s := range samples {
		if _, err := svc.EventBySlug(ctx, ledger.Slugify(s.title)); err == nil {
			continue
		} else if !errors.Is(err, ledger.ErrEventNotFound) {
			log.Fatalf("look up %q: %v", s.title, err)
		}
		cityID := cityIDs[s.city]
		start := day.AddDate(0, 0, s.inDays).Add(19 * time.Hour)
		_, err := svc.PublishEvent(ctx, model.Event{
			HostID:     hostID,
			CityID:     &cityID,
			Title:      s.title,
			Category:   s.category,
			Location:   s.location,
			StartsAt:   start,
			EndsAt:     start.Add(time.Duration(s.hours) * time.Hour),
			PriceCents: s.price,
			Capacity:   s.capacity,
		})
		if err != nil {
			log.Fatalf("publish %q: %v", s.title, err)
		}
		created++
	}
	log.Printf("seed complete: %d cities, %d new events", len(cities), created)
}

func seedHost(ctx context.Context, users *repository.UserRepo) (uint64, error) {
	email := envOr("SEED_HOST_EMAIL", "host@eventmate.local")
	u, err := users.GetByEmail(ctx, email)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return 0, err
	}
	return users.Create(ctx, email, "eventmate-host", envOr("SEED_HOST_PASSWORD", "change-me-please"), true, 10)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
