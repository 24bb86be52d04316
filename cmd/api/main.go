package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/COCO0911/staybooking-project/internal/app"
	"github.com/COCO0911/staybooking-project/internal/clock"
	"github.com/COCO0911/staybooking-project/internal/config"
	"github.com/COCO0911/staybooking-project/internal/geo"
	"github.com/COCO0911/staybooking-project/internal/platform/logger"
	miniostore "github.com/COCO0911/staybooking-project/internal/storage/minio"
	"github.com/COCO0911/staybooking-project/internal/storage/postgres"
	transporthttp "github.com/COCO0911/staybooking-project/internal/transport/http"
	"github.com/COCO0911/staybooking-project/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatal("db ping", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}

	imageStore, err := miniostore.NewImageStore(startupCtx, miniostore.Config{
		Endpoint:  cfg.ImageStoreEndpoint,
		AccessKey: cfg.ImageStoreAccessKey,
		SecretKey: cfg.ImageStoreSecretKey,
		Bucket:    cfg.ImageStoreBucket,
		UseSSL:    cfg.ImageStoreUseSSL,
	})
	if err != nil {
		log.Fatal("connect to image store", zap.Error(err))
	}

	geocoder := geo.NewNominatimGeocoder(cfg.GeocoderBaseURL)

	stayRepo := postgres.NewStayRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)

	staySvc := app.NewStayService(stayRepo, reservationRepo, locationRepo, imageStore, geocoder, clock.NewSystem(), log)
	reservationSvc := app.NewReservationService(reservationRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/stays", transporthttp.HandleStays(staySvc))
	mux.Handle("/stays/", transporthttp.HandleStayByID(staySvc))
	mux.Handle("/stays/reservations/", transporthttp.HandleStayReservations(reservationSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	corsOrigins := parseCSV(cfg.CORSOrigins)
	handler := transporthttp.RequestLogger(transporthttp.CORS(corsOrigins, mux), log)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		log.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
