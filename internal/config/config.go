package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	RedisHost   string
	RedisPort   string
	DatabaseURL string
	ScoringURL  string

	ScanTimeout     time.Duration
	RecentScans     int
	HistoryPageSize int
	SessionTTL      time.Duration

	DNSResolver string
	EnableDNS   bool
	EnableWhois bool
	EnableGeo   bool
	GeoIPPath   string
	GeoIPURL    string

	HealthInterval string
	TrustProxy     bool
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ScoringURL:      getEnv("SCORING_URL", "http://localhost:8500"),
		ScanTimeout:     getEnvDuration("SCAN_TIMEOUT", 5*time.Second),
		RecentScans:     getEnvInt("RECENT_SCANS", 5),
		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 10),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		DNSResolver:     getEnv("DNS_RESOLVER", "8.8.8.8:53"),
		EnableDNS:       getEnvBool("ENABLE_DNS", true),
		EnableWhois:     getEnvBool("ENABLE_WHOIS", true),
		EnableGeo:       getEnvBool("ENABLE_GEO", false),
		GeoIPPath:       getEnv("GEOIP_PATH", "data/GeoLite2-City.mmdb"),
		GeoIPURL:        os.Getenv("GEOIP_URL"),
		HealthInterval:  getEnv("HEALTH_INTERVAL", "@every 1m"),
		TrustProxy:      getEnvBool("TRUST_PROXY", true),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
