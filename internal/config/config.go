// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	NotifyLog  = "log"
	NotifySES  = "ses"
	NotifyAMQP = "amqp"
)

type DatabaseConfig struct {
	Driver    string `yaml:"driver"`
	Filename  string `yaml:"filename"`
	AuthToken string `yaml:"-"` // Loaded from environment
}

type BookingConfig struct {
	OpenHour    int `yaml:"open_hour"`
	CloseHour   int `yaml:"close_hour"`
	SlotMinutes int `yaml:"slot_minutes"`
}

type NotificationsConfig struct {
	Driver      string `yaml:"driver"`
	FromAddress string `yaml:"from_address"`
	SESRegion   string `yaml:"ses_region"`
	AMQPQueue   string `yaml:"amqp_queue"`

	// Loaded from environment
	AWSAccessKeyID     string `yaml:"-"`
	AWSSecretAccessKey string `yaml:"-"`
	AMQPURL            string `yaml:"-"`
}

type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisDB       int           `yaml:"redis_db"`
	RulesTTL      time.Duration `yaml:"rules_ttl"`
	RedisPassword string        `yaml:"-"` // Loaded from environment
}

// Enabled reports whether a Redis address is configured.
func (c CacheConfig) Enabled() bool { return strings.TrimSpace(c.RedisAddr) != "" }

type SchedulerConfig struct {
	WaitlistExpiryCron string `yaml:"waitlist_expiry_cron"`
}

type RateLimitConfig struct {
	BookingPerMinute int `yaml:"booking_per_minute"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`

	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Cache         CacheConfig         `yaml:"cache"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults, and reads secrets from the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()

	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Database.AuthToken = os.Getenv("DATABASE_AUTH_TOKEN")
	cfg.Notifications.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Notifications.AWSSecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.Notifications.AMQPURL = os.Getenv("AMQP_URL")
	cfg.Cache.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.SlotMinutes == 0 {
		c.Booking.SlotMinutes = 60
	}
	if c.Booking.OpenHour == 0 && c.Booking.CloseHour == 0 {
		c.Booking.OpenHour, c.Booking.CloseHour = 6, 22
	}
	if c.Notifications.Driver == "" {
		c.Notifications.Driver = NotifyLog
	}
	if c.Notifications.AMQPQueue == "" {
		c.Notifications.AMQPQueue = "courtside.waitlist.notifications"
	}
	if c.Cache.RulesTTL == 0 {
		c.Cache.RulesTTL = 5 * time.Minute
	}
	if c.Scheduler.WaitlistExpiryCron == "" {
		c.Scheduler.WaitlistExpiryCron = "*/5 * * * *"
	}
	if c.RateLimit.BookingPerMinute == 0 {
		c.RateLimit.BookingPerMinute = 10
	}
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "" || c.App.Environment == "development"
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.OpenHour < 0 || c.Booking.OpenHour >= c.Booking.CloseHour {
		return fmt.Errorf("booking open_hour must be before close_hour")
	}
	// Slot ends are clock times, so the day cannot run to 24:00.
	if c.Booking.CloseHour > 23 {
		return fmt.Errorf("booking close_hour must be at most 23")
	}
	if c.Booking.SlotMinutes < 0 {
		return fmt.Errorf("booking slot_minutes must be positive")
	}

	switch c.Notifications.Driver {
	case NotifyLog:
	case NotifySES:
		if c.Notifications.SESRegion == "" || c.Notifications.FromAddress == "" {
			return fmt.Errorf("ses_region and from_address are required for ses notifications")
		}
	case NotifyAMQP:
		if c.Notifications.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required for amqp notifications")
		}
	default:
		return fmt.Errorf("unsupported notification driver: %s", c.Notifications.Driver)
	}

	if c.RateLimit.BookingPerMinute < 0 {
		return fmt.Errorf("ratelimit booking_per_minute must be positive")
	}
	return nil
}
