package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dialysisfind/database"
	"dialysisfind/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 200
	DefaultConcurrency = 50
	DefaultInterval    = 2 * time.Second

	googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, err error)
}

type Options struct {
	BatchSize   int
	Concurrency int
	Interval    time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// StartGeocodingWorker resolves PENDING centers on every tick until ctx is
// cancelled.
func StartGeocodingWorker(ctx context.Context, db *sql.DB, geocoder Geocoder, opts Options, logger *zap.Logger) {
	opts = opts.withDefaults()
	logger.Info("Starting geocoding worker",
		zap.Int("batch", opts.BatchSize),
		zap.Int("concurrency", opts.Concurrency),
		zap.Duration("interval", opts.Interval))

	ticker := time.NewTicker(opts.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("Geocoding worker stopped")
				return
			case <-ticker.C:
				if _, err := ProcessPendingCenters(ctx, db, geocoder, opts, logger); err != nil {
					logger.Warn("Geocoding batch failed", zap.Error(err))
				}
			}
		}
	}()
}

// ProcessPendingCenters geocodes one batch of PENDING centers and returns
// how many were resolved. Failures on single centers are logged and left
// PENDING for the next batch.
func ProcessPendingCenters(ctx context.Context, db *sql.DB, geocoder Geocoder, opts Options, logger *zap.Logger) (int, error) {
	opts = opts.withDefaults()
	centers, err := database.PendingCenters(ctx, db, opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("pending centers: %w", err)
	}

	results := make([]bool, len(centers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, c := range centers {
		g.Go(func() error {
			lat, lon, err := geocoder.Geocode(gctx, AddressQuery(c))
			if err != nil {
				logger.Warn("Geocoding failed", zap.String("id", c.ID), zap.String("name", c.Name), zap.Error(err))
				return nil
			}
			if err := database.ResolveCoordinates(gctx, db, c.ID, lat, lon); err != nil {
				logger.Warn("Failed to update center", zap.String("id", c.ID), zap.Error(err))
				return nil
			}
			logger.Debug("Resolved center", zap.String("name", c.Name), zap.Float64("lat", lat), zap.Float64("lon", lon))
			results[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	resolved := 0
	for _, ok := range results {
		if ok {
			resolved++
		}
	}
	return resolved, nil
}

// AddressQuery builds the geocoding query for a center, most specific part
// first.
func AddressQuery(c models.Center) string {
	parts := []string{c.Name}
	for _, p := range []string{c.Address, c.City, c.State, "Malaysia"} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:  apiKey,
		BaseURL: googleGeocodeURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	apiURL := fmt.Sprintf("%s?address=%s&key=%s", g.BaseURL, url.QueryEscape(address), url.QueryEscape(g.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, 0, err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var result struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
		Status string `json:"status"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, err
	}

	if result.Status != "OK" {
		return 0, 0, fmt.Errorf("API error: %s", result.Status)
	}

	if len(result.Results) == 0 {
		return 0, 0, fmt.Errorf("no results found")
	}

	return result.Results[0].Geometry.Location.Lat, result.Results[0].Geometry.Location.Lng, nil
}
