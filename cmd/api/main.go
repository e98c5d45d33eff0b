package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rematter-io/rematter-backend/api"
	"github.com/rematter-io/rematter-backend/api/controllers"
	"github.com/rematter-io/rematter-backend/api/routes"
	"github.com/rematter-io/rematter-backend/internal/admin"
	"github.com/rematter-io/rematter-backend/internal/auth"
	"github.com/rematter-io/rematter-backend/internal/orders"
	"github.com/rematter-io/rematter-backend/internal/products"
	"github.com/rematter-io/rematter-backend/internal/transactions"
	"github.com/rematter-io/rematter-backend/internal/users"
	"github.com/rematter-io/rematter-backend/pkg/config"
	"github.com/rematter-io/rematter-backend/pkg/db"
	"github.com/rematter-io/rematter-backend/pkg/logger"
	"github.com/rematter-io/rematter-backend/pkg/metrics"
	"github.com/rematter-io/rematter-backend/pkg/migrate"
	"github.com/rematter-io/rematter-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	usersRepo := users.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	txnRepo := transactions.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		TxRunner:       dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, nil)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(ctx, "failed to create products service", err)
		os.Exit(1)
	}

	txnService, err := transactions.NewService(txnRepo, ordersRepo, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create transactions service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(dbClient.DB(), usersRepo, ordersRepo)
	if err != nil {
		logg.Error(ctx, "failed to create admin service", err)
		os.Exit(1)
	}

	router := routes.New(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Metrics:  metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Auth:     controllers.NewAuthController(authService, logg),
		Products: controllers.NewProductsController(productsService, logg),
		Orders:   controllers.NewOrdersController(ordersService, txnService, logg),
		Admin:    controllers.NewAdminController(adminService, txnService, logg),
		Health:   controllers.NewHealthController(dbClient, redisClient, logg),
	})

	server := api.NewServer(cfg.App, router, logg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(context.Background(), "shutdown incomplete", err)
			os.Exit(1)
		}
		<-errCh
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
