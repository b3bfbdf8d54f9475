// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds everything the service needs at startup.
type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string

	ChapaSecretKey string
	ChapaBaseURL   string

	// BaseURL is the externally reachable address of this service, used to
	// build the gateway callback and return URLs.
	BaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration. MONGOURI and CHAPA_SECRET_KEY have no safe
// defaults and are required.
func Load() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		MongoURI:       os.Getenv("MONGOURI"),
		DBName:         getenv("DB_NAME", "eventease"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		ChapaSecretKey: os.Getenv("CHAPA_SECRET_KEY"),
		ChapaBaseURL:   getenv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
		BaseURL:        getenv("BASE_URL", "http://localhost:8080"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getenv("SMTP_PORT", "587"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       getenv("SMTP_FROM", "no-reply@eventease.local"),
	}

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGOURI environment variable not set")
	}
	if cfg.ChapaSecretKey == "" {
		return Config{}, fmt.Errorf("CHAPA_SECRET_KEY environment variable not set")
	}
	return cfg, nil
}
