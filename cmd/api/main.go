package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
)

func main() {
	dotenvErr := config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		logger = zap.NewExample()
		logger.Warn("invalid LOG_LEVEL, using example logger", zap.Error(err))
	}
	defer logger.Sync()
	logger = logger.Named("api")
	if dotenvErr != nil {
		logger.Warn("could not load .env file", zap.Error(dotenvErr))
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger.Named("products"))
	productService := productsvc.New(productRepo)
	cartRepo := cartrepo.NewPostgres(dbpool, logger.Named("carts"))
	cartService := cartsvc.New(cartRepo, productRepo, "USD", logger.Named("carts"))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:        cartService,
		ProductSvc:     productService,
		CookieName:     cfg.CartCookieName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
