package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/app/services"
	"github.com/yigit/rollcall/internal/bootstrap"
	"github.com/yigit/rollcall/internal/db"
	"github.com/yigit/rollcall/internal/pkg/logger"
	"github.com/yigit/rollcall/internal/seed"
)

func main() {
	configPath := filepath.Join("configs", "config.yaml")
	if path := os.Getenv("ROLLCALL_CONFIG"); path != "" {
		configPath = path
	}

	ctx := context.Background()
	connect := func() (*backend, error) {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
		if err != nil {
			return nil, err
		}
		pool, err := db.NewPostgresPool(cfg)
		if err != nil {
			return nil, err
		}
		repos := repositories.NewRepositories(pool)
		return &backend{
			users:    repos.UserRepository,
			tokens:   repos.TokenRepository,
			calendar: services.NewCalendarService(repos.SemesterRepository, repos.HolidayRepository),
			migrate: func(ctx context.Context) error {
				return bootstrap.RunMigrations(ctx, pool, cfg.Database.MigrationsDir, lgr)
			},
			seed: func(ctx context.Context) error {
				return seed.CreateDefaultData(ctx, repos, lgr)
			},
			close: pool.Close,
		}, nil
	}

	cli := newCommandLine(ctx, connect)
	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
