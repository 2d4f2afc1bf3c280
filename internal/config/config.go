package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Images   ImagesConfig   `yaml:"images"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Disk     DiskConfig     `yaml:"disk"`
	NATS     NATSConfig     `yaml:"nats"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// APIKey, when set, is accepted in X-API-Key as an alternative to a bearer token on admin routes.
	APIKey string `yaml:"api_key"`
	// PublicURL overrides scheme://host when building absolute image URLs.
	PublicURL   string   `yaml:"public_url"`
	CORSOrigins []string `yaml:"cors_origins"`
	Gzip        bool     `yaml:"gzip"`
}

type DatabaseConfig struct {
	// Driver is one of postgres, mysql, sqlite.
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
	// SQLitePath is used by the sqlite driver. ":memory:" keeps everything in process.
	SQLitePath string `yaml:"sqlite_path"`
}

func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name)
	case "sqlite":
		return d.SQLitePath
	default:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			d.User, d.Password, d.Host, d.Port, d.Name)
	}
}

type ImagesConfig struct {
	// Backend is one of db, minio, disk.
	Backend  string `yaml:"backend"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Fit      string `yaml:"fit"` // contain or fill
	Quality  int    `yaml:"quality"`
	MaxBytes int64  `yaml:"max_bytes"`
	TmpDir   string `yaml:"tmp_dir"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type DiskConfig struct {
	Path string `yaml:"path"`
}

type NATSConfig struct {
	// URL is optional; without it directory events are only logged and broadcast in process.
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	Issuer            string        `yaml:"issuer"`
	BcryptCost        int           `yaml:"bcrypt_cost"`
	BootstrapUser     string        `yaml:"bootstrap_user"`
	BootstrapPassword string        `yaml:"bootstrap_password"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// placeholderSecrets are sample values that must never sign tokens.
var placeholderSecrets = map[string]bool{
	"change-me": true,
	"changeme":  true,
	"secret":    true,
}

// Validate checks the combinations setDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver %q: must be postgres, mysql or sqlite", c.Database.Driver)
	}
	switch c.Images.Backend {
	case "db", "disk":
	case "minio":
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("images.backend minio requires minio.endpoint and minio.bucket")
		}
	default:
		return fmt.Errorf("images.backend %q: must be db, minio or disk", c.Images.Backend)
	}
	if c.Images.Backend == "disk" && c.Disk.Path == "" {
		return fmt.Errorf("images.backend disk requires disk.path")
	}
	if c.Images.Fit != "contain" && c.Images.Fit != "fill" {
		return fmt.Errorf("images.fit %q: must be contain or fill", c.Images.Fit)
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality %d: must be within 1..100", c.Images.Quality)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if placeholderSecrets[strings.ToLower(c.Auth.JWTSecret)] {
		return fmt.Errorf("auth.jwt_secret %q is a placeholder; set FMT_JWT_SECRET", c.Auth.JWTSecret)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case "mysql":
			cfg.Database.Port = 3306
		default:
			cfg.Database.Port = 5432
		}
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "findmyteacher.db"
	}
	if cfg.Images.Backend == "" {
		cfg.Images.Backend = "db"
	}
	if cfg.Images.Width == 0 {
		cfg.Images.Width = 200
	}
	if cfg.Images.Height == 0 {
		cfg.Images.Height = 267
	}
	if cfg.Images.Fit == "" {
		cfg.Images.Fit = "contain"
	}
	if cfg.Images.Quality == 0 {
		cfg.Images.Quality = 90
	}
	if cfg.Images.MaxBytes == 0 {
		cfg.Images.MaxBytes = 20 << 20
	}
	if cfg.Images.TmpDir == "" {
		cfg.Images.TmpDir = os.TempDir()
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "findmyteacher"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FMT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FMT_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FMT_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("FMT_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("FMT_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("FMT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FMT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FMT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FMT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FMT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FMT_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("FMT_IMAGES_BACKEND"); v != "" {
		cfg.Images.Backend = v
	}
	if v := os.Getenv("FMT_IMAGES_FIT"); v != "" {
		cfg.Images.Fit = v
	}
	if v := os.Getenv("FMT_TMP_DIR"); v != "" {
		cfg.Images.TmpDir = v
	}
	if v := os.Getenv("FMT_DISK_PATH"); v != "" {
		cfg.Disk.Path = v
	}
	if v := os.Getenv("FMT_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FMT_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FMT_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FMT_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FMT_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FMT_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("FMT_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("FMT_BOOTSTRAP_USER"); v != "" {
		cfg.Auth.BootstrapUser = v
	}
	if v := os.Getenv("FMT_BOOTSTRAP_PASSWORD"); v != "" {
		cfg.Auth.BootstrapPassword = v
	}
	if v := os.Getenv("FMT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
