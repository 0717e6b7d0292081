package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	JWTSecret            string
	TokenTTL             time.Duration
	ExternalTokenTTL     time.Duration
	UploadDir            string
	UploadMaxBytes       int64
	NotificationCacheTTL time.Duration
	DashboardCacheTTL    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FYP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FYP API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "12h")
	v.SetDefault("external_token.ttl", "72h")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", 50<<20)
	v.SetDefault("notification.cache_ttl", "1m")
	v.SetDefault("dashboard.cache_ttl", "1m")

	tokenTTL, err := parseDuration(v, "token.ttl", "12h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}
	externalTTL, err := parseDuration(v, "external_token.ttl", "72h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid external token ttl: %w", err)
	}
	notificationTTL, err := parseDuration(v, "notification.cache_ttl", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid notification cache ttl: %w", err)
	}
	dashboardTTL, err := parseDuration(v, "dashboard.cache_ttl", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		TokenTTL:             tokenTTL,
		ExternalTokenTTL:     externalTTL,
		UploadDir:            v.GetString("upload.dir"),
		UploadMaxBytes:       v.GetInt64("upload.max_bytes"),
		NotificationCacheTTL: notificationTTL,
		DashboardCacheTTL:    dashboardTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 50 << 20
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	value := v.GetString(key)
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
