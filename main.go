// File: main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloomify-scheduler/config"
	"bloomify-scheduler/cron"
	"bloomify-scheduler/database"
	availabilityRepo "bloomify-scheduler/database/repository/availability"
	bookingRepo "bloomify-scheduler/database/repository/booking"
	recurringRepo "bloomify-scheduler/database/repository/recurring"
	"bloomify-scheduler/handlers"
	"bloomify-scheduler/middleware"
	"bloomify-scheduler/routes"
	"bloomify-scheduler/services/availability"
	"bloomify-scheduler/services/booking"
	"bloomify-scheduler/services/notification"
	"bloomify-scheduler/services/recurrence"
	"bloomify-scheduler/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	if err := database.InitDB(logger); err != nil {
		logger.Fatal("main: failed to initialize MongoDB", zap.Error(err))
	}
	if err := utils.InitCache(); err != nil {
		logger.Fatal("main: failed to initialize Redis cache", zap.Error(err))
	}
	db := database.GetDatabase()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for name, ensure := range map[string]func(context.Context, *mongo.Database) error{
		"availability": availabilityRepo.EnsureIndexes,
		"bookings":     bookingRepo.EnsureIndexes,
		"recurring":    recurringRepo.EnsureIndexes,
	} {
		if err := ensure(bootCtx, db); err != nil {
			logger.Fatal("main: failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}
	bootCancel()

	// repositories. Commits read schedules straight from MongoDB; the Redis
	// cache only serves slot listings and schedule reads.
	schedules := availabilityRepo.NewMongoAvailabilityRepo(db)
	scheduleRepo := availabilityRepo.NewCachedAvailabilityRepo(
		schedules,
		utils.CacheClient,
		config.AppConfig.ScheduleCacheTTL,
		logger,
	)
	bookings := bookingRepo.NewMongoBookingRepo(db)
	rules := recurringRepo.NewMongoRecurringRepo(db)
	clock := utils.SystemClock{}

	// services.
	notificationService := notification.NewDefaultNotificationService(logger)
	availabilityService := &availability.DefaultAvailabilityService{
		Repo:     scheduleRepo,
		Bookings: bookings,
		Clock:    clock,
		Logger:   logger,
	}
	recurringService := &recurrence.DefaultRecurringService{
		Repo:            rules,
		Clock:           clock,
		Logger:          logger,
		DefaultTimezone: config.AppConfig.DefaultTimezone,
	}
	coordinator := &booking.DefaultBookingCoordinator{
		Schedules:       schedules,
		Store:           bookings,
		Clock:           clock,
		Logger:          logger,
		NotificationSvc: notificationService,
	}

	// occurrence worker.
	queueClient := asynq.NewClient(cron.QueueRedisOpt())
	defer queueClient.Close()
	stopWorker, err := cron.InitOccurrenceWorker(&cron.OccurrenceWorker{
		Rules:           recurringService,
		Coordinator:     coordinator,
		NotificationSvc: notificationService,
		Queue:           queueClient,
		Clock:           clock,
		Lookahead:       config.AppConfig.OccurrenceLookahead,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("main: failed to start occurrence worker", zap.Error(err))
	}

	queueRedis, err := utils.NewRedisClient(config.AppConfig.RedisQueueDB)
	if err != nil {
		logger.Fatal("main: failed to connect to queue Redis", zap.Error(err))
	}
	healthCtx, stopHealth := context.WithCancel(context.Background())
	utils.StartHealthMonitor(healthCtx, []*redis.Client{utils.CacheClient, queueRedis}, database.MongoClient, 30*time.Second)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(config.TrustedProxyList()); err != nil {
		logger.Fatal("main: invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, logger))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewAvailabilityHandler(availabilityService),
		handlers.NewBookingHandler(coordinator, bookings),
		handlers.NewRecurringHandler(recurringService, clock),
	)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	stopWorker()
	stopHealth()
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: MongoDB disconnect failed: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
