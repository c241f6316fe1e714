package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the marketplace client.
type Config struct {
	AppName        string
	AppEnv         string
	APIBaseURL     string
	RequestTimeout time.Duration
	DialTimeout    time.Duration
	LogLevel       string
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MARKET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "marketchat")
	v.SetDefault("app.env", "development")
	v.SetDefault("api.base_url", "http://127.0.0.1:8002")
	v.SetDefault("request.timeout", "10s")
	v.SetDefault("dial.timeout", "10s")
	v.SetDefault("log.level", "info")

	requestTimeout, err := time.ParseDuration(v.GetString("request.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}

	dialTimeout, err := time.ParseDuration(v.GetString("dial.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dial timeout: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		APIBaseURL:     strings.TrimRight(v.GetString("api.base_url"), "/"),
		RequestTimeout: requestTimeout,
		DialTimeout:    dialTimeout,
		LogLevel:       strings.ToLower(v.GetString("log.level")),
	}

	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return Config{}, fmt.Errorf("api base url must be an http(s) origin: %q", cfg.APIBaseURL)
	}

	return cfg, nil
}
