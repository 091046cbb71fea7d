package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration loaded from environment variables and an
// optional config file.
type Config struct {
	DBDriver          string
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	AccessTTLSeconds  int64
	RefreshTTLSeconds int64
	CorsOrigins       []string
	Port              string
	Timezone          string
	RedisAddr         string
	RedisPassword     string
	LogDir            string
	LogRetentionDays  int
	LogLevel          string
}

var defaults = map[string]interface{}{
	"db_driver":           DriverPostgres,
	"jwt_issuer":          "wellness",
	"access_ttl_seconds":  14400,
	"refresh_ttl_seconds": 1209600,
	"port":                "8080",
	"timezone":            "UTC",
	"log_dir":             "storage/logs",
	"log_retention_days":  7,
	"log_level":           "info",
}

// Load reads .env (if present), then the config file at path (if non-empty),
// then environment variables, which take precedence.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	for key := range defaults {
		_ = v.BindEnv(key)
	}
	for _, key := range []string{"database_url", "jwt_secret", "cors_origins", "redis_addr", "redis_password"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		DBDriver:          strings.ToLower(strings.TrimSpace(v.GetString("db_driver"))),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:         strings.TrimSpace(v.GetString("jwt_secret")),
		JWTIssuer:         v.GetString("jwt_issuer"),
		AccessTTLSeconds:  v.GetInt64("access_ttl_seconds"),
		RefreshTTLSeconds: v.GetInt64("refresh_ttl_seconds"),
		CorsOrigins:       parseCSV(v.GetString("cors_origins")),
		Port:              v.GetString("port"),
		Timezone:          v.GetString("timezone"),
		RedisAddr:         strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:     v.GetString("redis_password"),
		LogDir:            v.GetString("log_dir"),
		LogRetentionDays:  clampRetention(v.GetInt("log_retention_days")),
		LogLevel:          v.GetString("log_level"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing env var: %s", strings.Join(missing, ", "))
	}
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the zone used to decide which calendar day "today" is.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func clampRetention(days int) int {
	if days <= 0 {
		return 7
	}
	if days > 7 {
		return 7
	}
	return days
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
