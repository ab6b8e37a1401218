package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/dailywork/api/handler"
	"github.com/fastygo/dailywork/internal/config"
	"github.com/fastygo/dailywork/internal/infrastructure/buffer"
	"github.com/fastygo/dailywork/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/dailywork/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/dailywork/internal/infrastructure/redis"
	"github.com/fastygo/dailywork/internal/middleware"
	"github.com/fastygo/dailywork/internal/router"
	"github.com/fastygo/dailywork/internal/services"
	"github.com/fastygo/dailywork/internal/services/lifecycle"
	"github.com/fastygo/dailywork/pkg/httpcontext"
	"github.com/fastygo/dailywork/pkg/logger"
	"github.com/fastygo/dailywork/pkg/timeconv"
	"github.com/fastygo/dailywork/repository/postgres"
	redisRepo "github.com/fastygo/dailywork/repository/redis"
	activityUC "github.com/fastygo/dailywork/usecase/activity"
	authUC "github.com/fastygo/dailywork/usecase/auth"
	taskUC "github.com/fastygo/dailywork/usecase/task"
	userUC "github.com/fastygo/dailywork/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	clock, err := timeconv.New(cfg.Timezone)
	if err != nil {
		zapLogger.Fatal("invalid time zone", zap.String("zone", cfg.Timezone), zap.Error(err))
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient.Close)

	journalStore, err := buffer.Open(cfg.Journal.Path, "activity")
	if err != nil {
		zapLogger.Fatal("failed to open activity journal", zap.Error(err))
	}
	manager.RegisterCloser("journal_store", journalStore.Close)

	mon := monitor.New(monitor.Probes{
		Postgres: monitor.PostgresProbe(pool),
		Redis:    monitor.RedisProbe(redisClient),
		Journal:  journalStore,
	}, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Auth.SessionTTL)

	journal := services.NewActivityJournal(journalStore, mon, activityRepo, zapLogger, services.JournalConfig{
		Interval:   cfg.Journal.SyncInterval,
		BatchSize:  cfg.Journal.BatchSize,
		MaxRetries: cfg.Journal.MaxRetry,
		Retention:  cfg.Journal.Retention,
	})
	journal.Start()
	manager.Register("activity_journal", func(ctx context.Context) error {
		journal.Stop(ctx)
		return nil
	})

	directory := userUC.New(userRepo, userUC.NewBcryptHasher(cfg.Auth.BcryptCost), zapLogger)
	authUseCase := authUC.New(directory, sessionRepo, authUC.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		SessionTTL: cfg.Auth.SessionTTL,
	}, zapLogger)
	taskTree := taskUC.New(taskRepo, journal, clock, zapLogger)
	activityUseCase := activityUC.New(activityRepo, clock, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:     apiHandler.NewUserHandler(directory, ctxAdapter, zapLogger),
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Task:     apiHandler.NewTaskHandler(taskTree, ctxAdapter, zapLogger),
		Activity: apiHandler.NewActivityHandler(activityUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.Auth(authUseCase, cfg.Context.RequestTimeout, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("time_zone", clock.Location().String()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
