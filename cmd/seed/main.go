// Package main resets the database schema and loads sample data: the
// confirmed user diver1 (password "testerpw"), the Blue Hole site and a
// bucket-list entry linking them.
//
// It reads the same environment as the server, so APP_ENV selects which
// database is wiped.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pkordes/dive-logbook/internal/config"
	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/repo"
	"github.com/pkordes/dive-logbook/internal/service"
	"github.com/pkordes/dive-logbook/migrations"
)

var lighthouse = domain.DiveSite{
	ID:   23265,
	Name: "The Blue Hole - Lighthouse Atoll",
	Lat:  17.245744,
	Lng:  -87.555542,
	Description: "The Blue Hole is a giant marine sinkhole off the coast of Belize. " +
		"This deep dive offers views of massive stalactites and divers often spot nurse sharks, " +
		"reef sharks, black tip sharks, and giant groupers.",
	Location: "Lighthouse Atoll, Belize",
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if cfg.Env == config.Production {
		slog.Error("refusing to reset a production database")
		os.Exit(1)
	}

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed complete", "env", cfg.Env)
}

func run(ctx context.Context, cfg config.Config) error {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	err = migrations.Reset(ctx, sqlDB)
	_ = sqlDB.Close()
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		users := repo.NewUserRepo(tx)
		diver1, err := service.NewUserService(users, cfg.BcryptCost).Signup(ctx, domain.SignupInput{
			Username: "diver1",
			Email:    "diver1@test.com",
			Password: "testerpw",
		})
		if err != nil {
			return err
		}
		if _, err := users.MarkConfirmed(ctx, diver1.Email); err != nil {
			return err
		}

		site, err := repo.NewDiveSiteRepo(tx).Create(ctx, lighthouse)
		if err != nil {
			return err
		}
		if _, err := repo.NewBucketListRepo(tx).Add(ctx, diver1.ID, site.ID); err != nil {
			return err
		}
		slog.Info("seeded", "user", diver1.Username, "site", site.Name)
		return nil
	})
}
