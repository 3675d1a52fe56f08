package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's bundled middlewares

	"github.com/skillswap/course-marketplace/internal/config" // Internal config loader
	"github.com/skillswap/course-marketplace/internal/database"
	"github.com/skillswap/course-marketplace/internal/handler"
	"github.com/skillswap/course-marketplace/internal/jobs"
	"github.com/skillswap/course-marketplace/internal/logger"
	"github.com/skillswap/course-marketplace/internal/middleware"
	"github.com/skillswap/course-marketplace/internal/queue"
	"github.com/skillswap/course-marketplace/internal/repository"
	"github.com/skillswap/course-marketplace/internal/router" // Internal router setup
	"github.com/skillswap/course-marketplace/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("schema migration failed", "error", err)
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, logout denylist disabled")
	} else {
		defer rdb.Close()
	}

	// Repositories
	users := repository.NewUserRepo(db)
	resets := repository.NewResetTokenRepo(db)
	courses := repository.NewCourseRepo(db)
	carts := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	wishlists := repository.NewWishlistRepo(db)
	stats := repository.NewStatsRepo(db)
	sessions := repository.NewSessionStore(rdb)

	// A nil *Publisher must not reach the service as a non-nil interface.
	var events service.OrderEvents
	if pub := queue.NewPublisher(cfg.AMQPURL, log); pub != nil {
		events = pub
	} else {
		log.Warn("AMQP url not set, order events disabled")
	}

	// Services
	authSvc := service.NewAuthService(users, resets, sessions, service.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		BcryptCost:    cfg.BcryptCost,
		ResetTokenTTL: cfg.ResetTokenTTL,
		ClientURL:     cfg.ClientURL,
	}, log)
	courseSvc := service.NewCourseService(courses, log)
	cartSvc := service.NewCartService(carts, courses, enrollments, log)
	orderSvc := service.NewOrderService(orders, carts, events, log)
	enrollSvc := service.NewEnrollmentService(enrollments, courses, orders, log)
	wishSvc := service.NewWishlistService(wishlists, courses, log)
	adminSvc := service.NewAdminService(users, stats, log)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLogger(log))

	router.Register(e, router.Handlers{ // Register application routes
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Secure: cfg.CookieSecure,
			MaxAge: cfg.TokenTTL,
		}, log),
		Courses:     handler.NewCourseHandler(courseSvc, log),
		Carts:       handler.NewCartHandler(cartSvc, log),
		Orders:      handler.NewOrderHandler(orderSvc, log),
		Enrollments: handler.NewEnrollmentHandler(enrollSvc, log),
		Wishlists:   handler.NewWishlistHandler(wishSvc, log),
		Admin:       handler.NewAdminHandler(adminSvc, log),
	}, authSvc, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ConsumerEnabled && cfg.AMQPURL != "" {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.OrderLogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order consumer stopped", "error", err)
			}
		}()
	}

	scheduler := jobs.NewScheduler(resets, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("scheduler start failed", "error", err)
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
}
