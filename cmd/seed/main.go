package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/logger"
	"stagedoor/internal/models"
	"stagedoor/internal/repository"

	"github.com/google/uuid"
)

var dryRun = flag.Bool("dry-run", false, "Show what would be seeded without making changes")

type seedShow struct {
	name     string
	details  string
	price    int64
	tickets  int32
	location string
	daysOut  int
	times    []seedShowTime
}

type seedShowTime struct {
	time  string
	seats *int32
}

func seats(n int32) *int32 { return &n }

var sampleShows = []seedShow{
	{
		name:     "Hamilton",
		details:  "The story of America then, told by America now.",
		price:    12500,
		tickets:  300,
		location: "Richard Rodgers Theatre, New York",
		daysOut:  14,
		times: []seedShowTime{
			{time: "19:00", seats: seats(150)},
			{time: "14:00", seats: seats(150)},
		},
	},
	{
		name:     "The Phantom of the Opera",
		details:  "A disfigured musical genius haunts the Paris Opera House.",
		price:    9800,
		tickets:  250,
		location: "Her Majesty's Theatre, London",
		daysOut:  21,
		times: []seedShowTime{
			{time: "19:30"},
		},
	},
	{
		name:     "The Lion King",
		details:  "The African savanna comes to life on stage.",
		price:    11000,
		tickets:  400,
		location: "Minskoff Theatre, New York",
		daysOut:  7,
		times: []seedShowTime{
			{time: "19:00", seats: seats(200)},
			{time: "13:00", seats: seats(200)},
		},
	},
	{
		name:     "Wicked",
		details:  "The untold story of the witches of Oz.",
		price:    8900,
		tickets:  350,
		location: "Apollo Victoria Theatre, London",
		daysOut:  30,
		times: []seedShowTime{
			{time: "19:30"},
			{time: "14:30"},
		},
	},
	{
		name:     "Sold Out Preview",
		details:  "An intimate preview night with no seats left.",
		price:    5000,
		tickets:  1,
		location: "Studio Stage, Berlin",
		daysOut:  3,
	},
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting seed", "shows", len(sampleShows), "dry_run", *dryRun)

	if *dryRun {
		for _, s := range sampleShows {
			fmt.Printf("would create %q at %s (%d tickets, %d show times)\n",
				s.name, s.location, s.tickets, len(s.times))
		}
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	repos := repository.NewRepositories(db)
	ctx := context.Background()

	for _, s := range sampleShows {
		if err := seedOne(ctx, repos, s); err != nil {
			logger.Fatal("Failed to seed show", "name", s.name, "error", err)
		}
	}

	slog.Info("Seed completed")
}

func seedOne(ctx context.Context, repos *repository.Repositories, s seedShow) error {
	show := &models.Show{
		ID:           uuid.New(),
		Name:         s.name,
		Details:      s.details,
		Price:        s.price,
		TotalTickets: s.tickets,
		Location:     s.location,
		ShowNumber:   models.NewShowNumber(),
		ShowDate:     time.Now().AddDate(0, 0, s.daysOut),
	}

	if err := repos.Shows.Create(ctx, show); err != nil {
		return err
	}

	date := show.ShowDate.Format("2006-01-02")
	for _, t := range s.times {
		st := &models.ShowTime{
			ID:         uuid.New(),
			ShowID:     show.ID,
			Date:       date,
			Time:       t.time,
			TotalSeats: t.seats,
		}
		if st.TotalSeats != nil {
			var zero int32
			st.BookedSeats = &zero
		}
		if err := repos.ShowTimes.Create(ctx, st); err != nil {
			return err
		}
	}

	slog.Info("Seeded show", "id", show.ID, "name", show.Name)
	return nil
}
