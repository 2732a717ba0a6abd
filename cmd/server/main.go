// Package main starts the carebook booking server: configuration, logging,
// database, repositories, services, handlers and an HTTP(S) listener.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/config"
	"github.com/atinyakov/carebook/internal/db"
	"github.com/atinyakov/carebook/internal/logger"
	"github.com/atinyakov/carebook/internal/repository"
	"github.com/atinyakov/carebook/internal/server/handler/http"
	"github.com/atinyakov/carebook/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New(logger.WithFile(options.LogFile))
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	var tokenRepo service.TokenRepository
	switch options.TokenStore {
	case config.TokenStoreRedis:
		rdb, err := repository.NewRedisClient(ctx, options.RedisAddr, options.RedisPassword)
		if err != nil {
			zapLogger.Fatal("cannot connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		tokenRepo = repository.NewRedisTokenRepository(rdb)
	default:
		tokenRepo = repository.NewPostgresTokenRepository(postgresDB)
		// redis expires keys itself
		_ = db.StartExpiredTokenCleaner(ctx, postgresDB, options.CleanupInterval, zapLogger)
	}

	userRepo := repository.NewPostgresUserRepository(postgresDB)
	bookingRepo := repository.NewPostgresBookingRepository(postgresDB)
	paymentRepo := repository.NewPostgresPaymentRepository(postgresDB)

	authService := service.NewAuthService(userRepo, tokenRepo, options.TokenTTL)
	bookingService := service.NewBookingService(bookingRepo)
	paymentService := service.NewPaymentService(bookingRepo, paymentRepo, service.NewSandboxProvider())

	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService, Logger: zapLogger},
		&http.BookingHandler{BookingService: bookingService, Logger: zapLogger},
		&http.PaymentHandler{PaymentService: paymentService, Logger: zapLogger},
		authService,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLS() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port), zap.String("token_store", options.TokenStore))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port), zap.String("token_store", options.TokenStore))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
