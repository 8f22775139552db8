// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Partner  PartnerConfig
	Risk     RiskConfig
	KYC      KYCConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// PartnerConfig holds credentials and endpoints for the settlement partner API.
// Credentials are always injected, never hard-coded.
type PartnerConfig struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// RiskConfig drives the risk tiering and enhanced verification policy.
type RiskConfig struct {
	HighRiskCountries    []string
	EnhancedKYCThreshold int64
}

// KYCConfig controls the asynchronous verification workflow.
type KYCConfig struct {
	ResolutionDelay time.Duration
	PollInterval    time.Duration
	AwaitTimeout    time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-this-secret"),
			Expiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),
		},
		Partner: PartnerConfig{
			BaseURL:  getEnv("PARTNER_API_URL", ""),
			Email:    getEnv("PARTNER_API_EMAIL", ""),
			Password: getEnv("PARTNER_API_PASSWORD", ""),
			Timeout:  getDurationEnv("PARTNER_API_TIMEOUT", 15*time.Second),
		},
		Risk: RiskConfig{
			HighRiskCountries:    getListEnv("RISK_HIGH_RISK_COUNTRIES", []string{"NG", "CM"}),
			EnhancedKYCThreshold: getInt64Env("RISK_ENHANCED_KYC_THRESHOLD", 500),
		},
		KYC: KYCConfig{
			ResolutionDelay: getDurationEnv("KYC_RESOLUTION_DELAY", 2*time.Second),
			PollInterval:    getDurationEnv("KYC_POLL_INTERVAL", 250*time.Millisecond),
			AwaitTimeout:    getDurationEnv("KYC_AWAIT_TIMEOUT", 30*time.Second),
		},
	}
}

// ValidateCore checks settings the pipeline cannot run without.
func (c *Config) ValidateCore() error {
	if c.Partner.BaseURL == "" {
		return fmt.Errorf("PARTNER_API_URL is required")
	}
	if c.Partner.Email == "" || c.Partner.Password == "" {
		return fmt.Errorf("PARTNER_API_EMAIL and PARTNER_API_PASSWORD are required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// or redis+tls:// scheme if present
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
