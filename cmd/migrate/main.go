package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "Roll back this many migrations instead of migrating up")
	flag.Parse()

	_ = config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	logger = logger.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Down(ctx, pool, logger, *down); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.Int("steps", *down))
		return
	}
	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	logger.Info("migrations applied")
}
