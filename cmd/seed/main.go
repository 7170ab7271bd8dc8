package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/config"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/repository"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/seed"
	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "operation (1: insert random users, 2: insert random shift templates, 3: insert the standard service templates)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create the database pool
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open only builds the pool object, an explicit ping proves the DSN
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	// Create the repository
	repo := repository.NewRepository(cfg, dbpool)

	// Run the requested operation
	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("number of users must be positive")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("failed to generate random user", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(context.Background(), user); err != nil {
					slog.Error("failed to insert user", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("users inserted", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("number of templates must be positive")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				tpl := utils.GenerateRandomShiftTemplate()
				if err := repo.CreateShiftTemplate(context.Background(), tpl); err != nil {
					slog.Error("failed to insert shift template", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("shift templates inserted", slog.Int("count", n-cnt))
		}
	case 3:
		seed.SeedServiceTemplates(context.Background(), repo)
	default:
		slog.Error("unknown operation")
	}
}
