// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Game     GameConfig     `mapstructure:"game"`
	Payment  PaymentConfig  `mapstructure:"payment"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token     string `mapstructure:"token"`
	WebAppURL string `mapstructure:"web_app_url"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// GameConfig holds treasure hunt engine configuration.
type GameConfig struct {
	PointsPerGame      int     `mapstructure:"points_per_game"`
	GPSToleranceMeters float64 `mapstructure:"gps_tolerance_meters"`
	FindDistanceMeters float64 `mapstructure:"find_distance_meters"`
	MaxDistanceMeters  float64 `mapstructure:"max_distance_meters"`
	DailyPlayLimit     int     `mapstructure:"daily_play_limit"`
	BonusMin           int64   `mapstructure:"bonus_min"`
	BonusMax           int64   `mapstructure:"bonus_max"`
	JackpotFloor       int64   `mapstructure:"jackpot_floor"`
	JackpotProbability float64 `mapstructure:"jackpot_probability"`
}

// PaymentConfig holds payment provider configuration.
type PaymentConfig struct {
	APIToken     string        `mapstructure:"api_token"`
	Testnet      bool          `mapstructure:"testnet"`
	DemoMode     bool          `mapstructure:"demo_mode"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Asset        string        `mapstructure:"asset"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, PAYMENT_API_TOKEN.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geohunter")
	v.SetDefault("database.name", "geohunter")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Game defaults
	v.SetDefault("game.points_per_game", 5)
	v.SetDefault("game.gps_tolerance_meters", 20.0)
	v.SetDefault("game.find_distance_meters", 10.0)
	v.SetDefault("game.max_distance_meters", 100.0)
	v.SetDefault("game.daily_play_limit", 10)
	v.SetDefault("game.bonus_min", 10)
	v.SetDefault("game.bonus_max", 50)
	v.SetDefault("game.jackpot_floor", 1000)
	v.SetDefault("game.jackpot_probability", 0.0005)

	// Payment defaults
	v.SetDefault("payment.poll_interval", "300s")
	v.SetDefault("payment.asset", "USDT")

	// Bot defaults
	v.SetDefault("bot.web_app_url", "https://sevryuk88.github.io/GeoHunter-/geohtml.html")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
