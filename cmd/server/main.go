package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dialysisfind/config"
	"dialysisfind/database"
	"dialysisfind/handlers"
	"dialysisfind/location"
	"dialysisfind/logging"
	"dialysisfind/worker"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// main loads configuration, connects to the database, starts the geocoding
// worker and serves the API.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	table := location.DefaultTable()
	if cfg.Locations.File != "" {
		table, err = location.LoadTable(cfg.Locations.File)
		if err != nil {
			logger.Fatal("Failed to load locations", zap.String("file", cfg.Locations.File), zap.Error(err))
		}
	}

	if cfg.Geocoding.GoogleMapsAPIKey != "" {
		worker.StartGeocodingWorker(ctx, db, worker.NewGoogleGeocoder(cfg.Geocoding.GoogleMapsAPIKey), worker.Options{
			BatchSize:   cfg.Worker.BatchSize,
			Concurrency: cfg.Worker.Concurrency,
			Interval:    cfg.Worker.Interval,
		}, logger)
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, geocoding worker disabled")
	}

	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET not set, dashboard and admin routes will reject every token")
	}

	mux := handlers.NewMux(db, table, []byte(cfg.JWT.Secret), logger)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "PATCH", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
