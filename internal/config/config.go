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
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	TokenTTL               time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int
	HistoryCap             int
	RetentionAge           time.Duration
	RetentionCheckInterval time.Duration
	StreamChannelBase      string
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
	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Relay Chat API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("cloudinary.folder", "relay/attachments")
	v.SetDefault("upload.max_mb", 8)
	v.SetDefault("history.cap", 50)
	v.SetDefault("retention.age", "24h")
	v.SetDefault("retention.check_interval", "1h")
	v.SetDefault("stream.channel_base", "relay")

	tokenTTL, err := parseDuration(v, "token.ttl", 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	retentionAge, err := parseDuration(v, "retention.age", 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid retention age: %w", err)
	}

	checkInterval, err := parseDuration(v, "retention.check_interval", time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid retention check interval: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		TokenTTL:               tokenTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		HistoryCap:             v.GetInt("history.cap"),
		RetentionAge:           retentionAge,
		RetentionCheckInterval: checkInterval,
		StreamChannelBase:      v.GetString("stream.channel_base"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 8
	}

	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = 50
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	return time.ParseDuration(raw)
}
