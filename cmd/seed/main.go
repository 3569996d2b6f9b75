package main

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	productrepo "storefront/internal/repository/product"
	productsvc "storefront/internal/service/product"
	"storefront/internal/seed"
)

func main() {
	_ = config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	products := productsvc.New(productrepo.NewPostgres(pool, logger))
	if err := seed.Apply(ctx, products); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
