package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cineops/showtime-api/api/swagger"
	"github.com/cineops/showtime-api/internal/handler"
	"github.com/cineops/showtime-api/internal/middleware"
	"github.com/cineops/showtime-api/internal/repository"
	"github.com/cineops/showtime-api/internal/service"
	"github.com/cineops/showtime-api/pkg/cache"
	"github.com/cineops/showtime-api/pkg/config"
	"github.com/cineops/showtime-api/pkg/database"
	"github.com/cineops/showtime-api/pkg/lock"
	"github.com/cineops/showtime-api/pkg/logger"
	corsmiddleware "github.com/cineops/showtime-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cineops/showtime-api/pkg/middleware/requestid"
	"github.com/cineops/showtime-api/pkg/storage"
)

// @title Showtime API
// @version 1.0.0
// @description Cinema showtime scheduling: bookings, conflict detection and forecast generation
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, using in-process room locks", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetrics()

	movieRepo := repository.NewMovieRepository(db)
	cinemaRepo := repository.NewCinemaRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	forecastRepo := repository.NewForecastRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)

	var roomLocker lock.RoomLocker
	if redisClient != nil {
		roomLocker = lock.NewRedisRoomLocker(redisClient, cfg.Booking.RoomLockTTL, cfg.Booking.RoomLockRetry)
	} else {
		roomLocker = lock.NewLocalRoomLocker()
	}

	var notificationClient *redis.Client
	if cfg.Notifications.Enabled {
		notificationClient = redisClient
	}
	notifier := service.NewNotificationService(notificationClient, cfg.Notifications, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	conflictSvc := service.NewConflictService(scheduleRepo, logr)
	bookingSvc := service.NewBookingService(
		scheduleRepo, movieRepo, cinemaRepo, conflictSvc,
		roomLocker, db, notifier, metrics,
		service.BookingLimits{MaxListRangeDays: cfg.Booking.MaxListRangeDays, MaxPageSize: cfg.Booking.MaxPageSize},
		validate, logr,
	)
	predictionSvc := service.NewPredictionService(predictionRepo, cinemaRepo, nil, logr)
	forecastSvc := service.NewForecastService(
		forecastRepo, scheduleRepo, movieRepo, cinemaRepo, predictionSvc,
		nil, db, notifier, metrics, cfg.Forecast, nil, validate, logr,
	)
	movieSvc := service.NewMovieService(movieRepo, validate, logr)
	cinemaSvc := service.NewCinemaService(cinemaRepo, validate, logr)
	var reportSvc *service.ReportService
	if cfg.Reports.Enabled && cfg.Reports.ArchiveDir != "" {
		archive, err := storage.NewLocalStorage(cfg.Reports.ArchiveDir)
		if err != nil {
			logr.Fatal("failed to prepare report archive", zap.Error(err))
		}
		reportSvc = service.NewReportService(forecastRepo, scheduleRepo, predictionRepo, bookingSvc, archive, logr)
	} else {
		reportSvc = service.NewReportService(forecastRepo, scheduleRepo, predictionRepo, bookingSvc, nil, logr)
	}
	dispatcher := service.NewDispatcher(bookingSvc, forecastSvc, conflictSvc, cinemaRepo, movieRepo)

	movieHandler := handler.NewMovieHandler(movieSvc)
	cinemaHandler := handler.NewCinemaHandler(cinemaSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, conflictSvc, movieSvc, reportSvc)
	forecastHandler := handler.NewForecastHandler(forecastSvc, predictionSvc, reportSvc)
	commandHandler := handler.NewCommandHandler(dispatcher)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/movies", movieHandler.List)
		api.POST("/movies", movieHandler.Create)
		api.GET("/movies/:id", movieHandler.Get)
		api.PUT("/movies/:id", movieHandler.Update)
		api.DELETE("/movies/:id", movieHandler.Delete)

		api.GET("/cinemas", cinemaHandler.List)
		api.POST("/cinemas", cinemaHandler.Create)
		api.GET("/cinemas/:id", cinemaHandler.Get)
		api.PUT("/cinemas/:id", cinemaHandler.Update)
		api.DELETE("/cinemas/:id", cinemaHandler.Delete)
		api.GET("/cinemas/:id/available-slots", bookingHandler.AvailableSlots)
		api.GET("/cinema-types", cinemaHandler.ListTypes)

		api.GET("/schedules", bookingHandler.List)
		api.POST("/schedules", bookingHandler.Create)
		api.POST("/schedules/conflicts", bookingHandler.CheckConflicts)
		api.GET("/schedules/:id", bookingHandler.Get)
		api.PUT("/schedules/:id", bookingHandler.Update)
		api.DELETE("/schedules/:id", bookingHandler.Cancel)

		api.GET("/forecasts", forecastHandler.List)
		api.POST("/forecasts", forecastHandler.Create)
		api.GET("/forecasts/:id", forecastHandler.Get)
		api.DELETE("/forecasts/:id", forecastHandler.Delete)
		api.POST("/forecasts/:id/regenerate", forecastHandler.Regenerate)
		api.GET("/forecasts/:id/schedules", forecastHandler.Schedules)
		api.GET("/forecasts/:id/prediction", forecastHandler.Prediction)

		if cfg.Reports.Enabled {
			api.GET("/schedules/export", bookingHandler.ExportCSV)
			api.GET("/forecasts/:id/report", forecastHandler.Report)
		}

		api.POST("/commands", commandHandler.Execute)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
