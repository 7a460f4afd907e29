// Package config provides environment-based configuration for Portico.
//
// Configuration is loaded from environment variables using Viper, with
// sensible defaults for local development. The single value every
// cross-subdomain URL is built from is APP_DOMAIN, the registrable root
// application domain; when absent it falls back to "localhost" so the edge
// is usable on a developer machine without any environment.
//
// # Environment Variables
//
//   - APP_DOMAIN: Registrable root domain (may carry a port in development).
//     Default: localhost
//   - APP_SCHEME: URL scheme for absolute navigation targets. Default: https
//     (http when APP_DOMAIN is a localhost host)
//   - DIRECTORY_URL: Base URL of the upstream tenant directory API.
//     Default: http://localhost:8000/api/v1
//   - SESSION_SECRET: HMAC key for credential verification.
//   - SESSION_TTL: Session and cookie lifetime. Default: 168h
//   - REDIS_ADDR: Redis address for the session store. Empty = in-memory.
//   - CONSOLE_PATH: Operator console landing path. Default: /godfather/dashboard
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - PORT: HTTP server port. Default: 8080
//
// # Example Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Serving tenants under *.%s\n", cfg.AppDomain)
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppDomain     string        `mapstructure:"APP_DOMAIN"`
	AppScheme     string        `mapstructure:"APP_SCHEME"`
	DirectoryURL  string        `mapstructure:"DIRECTORY_URL"`
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	ConsolePath   string        `mapstructure:"CONSOLE_PATH"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	Port          int           `mapstructure:"PORT"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("APP_DOMAIN", "localhost")
	v.SetDefault("APP_SCHEME", "")
	v.SetDefault("DIRECTORY_URL", "http://localhost:8000/api/v1")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CONSOLE_PATH", "/godfather/dashboard")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 8080)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AppScheme == "" {
		if strings.Contains(cfg.AppDomain, "localhost") {
			cfg.AppScheme = "http"
		} else {
			cfg.AppScheme = "https"
		}
	}

	return &cfg, nil
}
