package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port           string
	ListenHost     string
	AllowedOrigins []string
	DBConn         string
	LogLevel       string
	JWTSecret      string
	LocalDBPath    string
	RunMigrations  bool

	DolarAPIURL string
	AladhanURL  string
	Latitude    float64
	Longitude   float64

	SyncSchedule     string
	ReminderSchedule string
	RateSchedule     string
	PrayerSchedule   string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	NotifyEmail  string

	BackupKey  string
	HMACSecret string
}

var defaults = map[string]any{
	"PORT":              "8080",
	"LISTEN_HOST":       "127.0.0.1",
	"ALLOWED_ORIGINS":   "http://localhost:5173,http://127.0.0.1:5173",
	"DB_CONN":           "host=localhost port=5436 user=test password=test dbname=barakah sslmode=disable",
	"LOG_LEVEL":         "INFO",
	"JWT_SECRET":        "secret",
	"LOCAL_DB_PATH":     "data/barakah.db",
	"RUN_MIGRATIONS":    true,
	"DOLAR_API_URL":     "https://dolarapi.com",
	"ALADHAN_URL":       "https://api.aladhan.com",
	"LATITUDE":          -34.6037,
	"LONGITUDE":         -58.3816,
	"SYNC_SCHEDULE":     "@every 15m",
	"REMINDER_SCHEDULE": "@every 1m",
	"RATE_SCHEDULE":     "0 10 * * *",
	"PRAYER_SCHEDULE":   "5 0 * * *",
	"SMTP_HOST":         "",
	"SMTP_PORT":         "587",
	"SMTP_USERNAME":     "",
	"SMTP_PASSWORD":     "",
	"SENDER_EMAIL":      "",
	"NOTIFY_EMAIL":      "",
	"BACKUP_KEY":        "",
	"HMAC_SECRET":       "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6",
}

// NewConfig loads configuration from the environment, with an optional
// config.yaml (or the file named by BARAKAH_CONFIG) underneath it
func NewConfig() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := os.Getenv("BARAKAH_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || os.Getenv("BARAKAH_CONFIG") != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:             v.GetString("PORT"),
		ListenHost:       v.GetString("LISTEN_HOST"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		DBConn:           v.GetString("DB_CONN"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		LocalDBPath:      v.GetString("LOCAL_DB_PATH"),
		RunMigrations:    v.GetBool("RUN_MIGRATIONS"),
		DolarAPIURL:      strings.TrimRight(v.GetString("DOLAR_API_URL"), "/"),
		AladhanURL:       strings.TrimRight(v.GetString("ALADHAN_URL"), "/"),
		Latitude:         v.GetFloat64("LATITUDE"),
		Longitude:        v.GetFloat64("LONGITUDE"),
		SyncSchedule:     v.GetString("SYNC_SCHEDULE"),
		ReminderSchedule: v.GetString("REMINDER_SCHEDULE"),
		RateSchedule:     v.GetString("RATE_SCHEDULE"),
		PrayerSchedule:   v.GetString("PRAYER_SCHEDULE"),
		SMTPHost:         v.GetString("SMTP_HOST"),
		SMTPPort:         v.GetString("SMTP_PORT"),
		SMTPUsername:     v.GetString("SMTP_USERNAME"),
		SMTPPassword:     v.GetString("SMTP_PASSWORD"),
		SenderEmail:      v.GetString("SENDER_EMAIL"),
		NotifyEmail:      v.GetString("NOTIFY_EMAIL"),
		BackupKey:        v.GetString("BACKUP_KEY"),
		HMACSecret:       v.GetString("HMAC_SECRET"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.LocalDBPath == "" {
		return nil, fmt.Errorf("LOCAL_DB_PATH is required")
	}
	if cfg.HMACSecret == "" {
		return nil, fmt.Errorf("HMAC_SECRET is required")
	}
	if n := len(cfg.BackupKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("BACKUP_KEY must be 16, 24, or 32 bytes, got %d", n)
	}
	return cfg, nil
}

// Addr is the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenHost, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MailEnabled reports whether reminder mail can be sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.NotifyEmail != ""
}
