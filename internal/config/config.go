package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	Barcode  BarcodeConfig  `yaml:"barcode"`
	APNs     APNsConfig     `yaml:"apns"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int      `yaml:"port" env:"SERVER_PORT"`
	Host           string   `yaml:"host" env:"SERVER_HOST"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	MaxUploadMB    int64    `yaml:"max_upload_mb" env:"SERVER_MAX_UPLOAD_MB"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	InMemory bool   `yaml:"in_memory" env:"DB_IN_MEMORY"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
}

// AWSConfig holds object storage configuration
type AWSConfig struct {
	Region        string `yaml:"region" env:"AWS_REGION"`
	S3Bucket      string `yaml:"s3_bucket" env:"AWS_S3_BUCKET"`
	AccessKey     string `yaml:"access_key" env:"AWS_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"AWS_SECRET_KEY"`
	Endpoint      string `yaml:"endpoint" env:"AWS_ENDPOINT"`
	PublicBaseURL string `yaml:"public_base_url" env:"AWS_PUBLIC_BASE_URL"`
	EventImageDir string `yaml:"event_image_dir"`
	DayImageDir   string `yaml:"day_image_dir"`
	BarcodeDir    string `yaml:"barcode_dir"`
}

// BarcodeConfig holds barcode generator configuration
type BarcodeConfig struct {
	WorkDir      string        `yaml:"work_dir" env:"BARCODE_WORK_DIR"`
	StripWidth   int           `yaml:"strip_width"`
	Height       int           `yaml:"height"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// APNsConfig holds Apple push configuration. Push is disabled when KeyPath is empty.
type APNsConfig struct {
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION"`
}

// Enabled reports whether push delivery is configured
func (c *APNsConfig) Enabled() bool {
	return c.KeyPath != ""
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret" env:"JWT_SECRET"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// MetricsConfig holds prometheus configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
}

// Path returns the config file path from CONFIG_PATH, falling back to config.yaml
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads configuration from a YAML file and applies environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 64
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AWS.EventImageDir == "" {
		c.AWS.EventImageDir = "event/"
	}
	if c.AWS.DayImageDir == "" {
		c.AWS.DayImageDir = "day/"
	}
	if c.AWS.BarcodeDir == "" {
		c.AWS.BarcodeDir = "barcode/"
	}
	if c.Barcode.WorkDir == "" {
		c.Barcode.WorkDir = os.TempDir()
	}
	if c.Barcode.StripWidth == 0 {
		c.Barcode.StripWidth = 8
	}
	if c.Barcode.Height == 0 {
		c.Barcode.Height = 400
	}
	if c.Barcode.FetchTimeout == 0 {
		c.Barcode.FetchTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Database.InMemory {
		return nil
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database.host and database.dbname are required")
	}
	if c.AWS.S3Bucket == "" {
		return errors.New("aws.s3_bucket is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
