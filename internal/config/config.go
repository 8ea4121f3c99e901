package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         string
	DataDir      string
	LogLevel     string
	JWTSecret    string
	AdminKey     string
	AdminKeyHash string
	RateFeedURL  string
	DigestCron   string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AdminEmail   string
}

// NewConfig loads configuration from the environment, reading a .env file
// first when one is present.
func NewConfig() (*Config, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DataDir:      getEnv("DATA_DIR", "data"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:    getEnv("JWT_SECRET", "secret"),
		AdminKey:     getEnv("ADMIN_KEY", "admin123"),
		AdminKeyHash: getEnv("ADMIN_KEY_HASH", ""),
		RateFeedURL:  getEnv("RATE_FEED_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		DigestCron:   getEnv("DIGEST_CRON", "0 9 * * *"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@globaldigitalbank.example"),
		AdminEmail:   getEnv("ADMIN_EMAIL", ""),
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminKey == "" && cfg.AdminKeyHash == "" {
		return nil, fmt.Errorf("ADMIN_KEY or ADMIN_KEY_HASH is required")
	}

	return cfg, nil
}

// EmailEnabled reports whether SMTP is configured for outbound mail.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.AdminEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
