package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type GeocodingConfig struct {
	GoogleMapsAPIKey string `mapstructure:"googleMapsAPIKey"`
}

type WorkerConfig struct {
	BatchSize   int           `mapstructure:"batchSize"`
	Concurrency int           `mapstructure:"concurrency"`
	Interval    time.Duration `mapstructure:"interval"`
}

type DedupConfig struct {
	ThresholdKm float64 `mapstructure:"thresholdKm"`
}

type LocationsConfig struct {
	File string `mapstructure:"file"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Locations LocationsConfig `mapstructure:"locations"`
	Debug     bool            `mapstructure:"debug"`
}

var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.allowedOrigins":      "ALLOWED_ORIGINS",
	"database.url":               "DATABASE_URL",
	"jwt.secret":                 "JWT_SECRET",
	"geocoding.googleMapsAPIKey": "GOOGLE_MAPS_API_KEY",
	"worker.batchSize":           "WORKER_BATCH_SIZE",
	"worker.concurrency":         "WORKER_CONCURRENCY",
	"worker.interval":            "WORKER_INTERVAL",
	"dedup.thresholdKm":          "DEDUP_THRESHOLD_KM",
	"locations.file":             "LOCATIONS_FILE",
	"debug":                      "DEBUG",
}

// Load reads .env, then an optional config.yaml under path, then the
// environment. Later sources win.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "3003")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("worker.batchSize", 200)
	v.SetDefault("worker.concurrency", 50)
	v.SetDefault("worker.interval", 2*time.Second)
	v.SetDefault("dedup.thresholdKm", 0.1)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)
	return cfg, nil
}

// splitOrigins accepts either a YAML list or a single comma separated env
// value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
