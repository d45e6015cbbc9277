package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and passed to every component that needs it.
type Config struct {
	HTTPAddr string
	LogLevel string

	// DatabaseURL selects PostgreSQL when set; SQLite at SQLitePath otherwise.
	DatabaseURL string
	SQLitePath  string

	SecretKey    string
	SessionTTL   time.Duration
	CookieSecure bool

	FinnhubAPIKey   string
	FinnhubBaseURL  string
	UpstreamTimeout time.Duration
	UpstreamRate    float64
	UpstreamBurst   int

	UsersPath    string
	KeywordsPath string

	// AllowedOrigins may make credentialed cross-origin requests. Empty
	// disables CORS headers entirely.
	AllowedOrigins []string
}

const defaultSecret = "default_dev_key_xyz"

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "users.db")
	v.SetDefault("SECRET_KEY", defaultSecret)
	v.SetDefault("SESSION_TTL", 30*24*time.Hour)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("FINNHUB_API_KEY", "")
	v.SetDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1")
	v.SetDefault("UPSTREAM_TIMEOUT", 8*time.Second)
	v.SetDefault("UPSTREAM_RATE", 1.0)
	v.SetDefault("UPSTREAM_BURST", 5)
	v.SetDefault("USERS_PATH", "")
	v.SetDefault("KEYWORDS_PATH", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads an optional .env file, then the environment, then an optional
// YAML file named by FINBOARD_CONFIG. Environment values win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("FINBOARD_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		SecretKey:       v.GetString("SECRET_KEY"),
		SessionTTL:      v.GetDuration("SESSION_TTL"),
		CookieSecure:    v.GetBool("COOKIE_SECURE"),
		FinnhubAPIKey:   v.GetString("FINNHUB_API_KEY"),
		FinnhubBaseURL:  v.GetString("FINNHUB_BASE_URL"),
		UpstreamTimeout: v.GetDuration("UPSTREAM_TIMEOUT"),
		UpstreamRate:    v.GetFloat64("UPSTREAM_RATE"),
		UpstreamBurst:   v.GetInt("UPSTREAM_BURST"),
		UsersPath:       v.GetString("USERS_PATH"),
		KeywordsPath:    v.GetString("KEYWORDS_PATH"),
		AllowedOrigins:  splitList(v.GetString("ALLOWED_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return errors.New("either DATABASE_URL or SQLITE_PATH must be set")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// DefaultSecret reports whether the development session secret is in use.
func (c Config) DefaultSecret() bool {
	return c.SecretKey == defaultSecret
}

// UsesPostgres reports whether the client-server store was selected.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}
