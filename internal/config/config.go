package config

import (
	"errors"
	"fmt"
	"os"

	"tripledoble/internal/models"
	"tripledoble/internal/pricing"
	"tripledoble/internal/schedule"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig        `yaml:"app"`
	Telegram      TelegramConfig   `yaml:"telegram"`
	Database      DatabaseConfig   `yaml:"database"`
	Redis         RedisConfig      `yaml:"redis"`
	Backup        BackupConfig     `yaml:"backup"`
	Monitoring    MonitoringConfig `yaml:"monitoring"`
	Logging       LoggingConfig    `yaml:"logging"`
	API           APIConfig        `yaml:"api"`
	Schedule      schedule.Config  `yaml:"schedule"`
	Pricing       pricing.Rates    `yaml:"pricing"`
	Admins        []int64          `yaml:"admins"`
	AdminContacts []string         `yaml:"admin_contacts"`
	Blacklist     []int64          `yaml:"blacklist"`
	WhatsApp      WhatsAppConfig   `yaml:"whatsapp"`
	Exports       ExportConfig     `yaml:"exports"`
	Bot           BotConfig        `yaml:"bot"`
}

type BotConfig struct {
	PaginationSize    int `yaml:"pagination_size"`
	MaxBookingDays    int `yaml:"max_booking_days"`
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type WhatsAppConfig struct {
	Number string `yaml:"number"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env, если есть; его отсутствие не ошибка
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE") {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if err := c.Schedule.Validate(); err != nil {
		return err
	}

	if c.Pricing.AnnexMember <= 0 || c.Pricing.AnnexNonMember <= 0 ||
		c.Pricing.MainMember <= 0 || c.Pricing.MainNonMember <= 0 {
		return errors.New("pricing rates must be positive")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	if c.Schedule.OpenTime == "" {
		c.Schedule = schedule.DefaultConfig()
	}
	if c.Pricing == (pricing.Rates{}) {
		c.Pricing = pricing.DefaultRates()
	}

	// Bot defaults
	if c.Bot.PaginationSize == 0 {
		c.Bot.PaginationSize = models.DefaultPendingPageSize
	}
	if c.Bot.MaxBookingDays == 0 {
		c.Bot.MaxBookingDays = 365
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
}
