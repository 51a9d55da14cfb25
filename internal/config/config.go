package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
	Meili    MeiliConfig    `yaml:"meili"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Minio    MinioConfig    `yaml:"minio"`
	Enhance  EnhanceConfig  `yaml:"enhance"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver         string `yaml:"driver"`
	URL            string `yaml:"url"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// RedisConfig leaves URL empty to keep sessions in process memory.
type RedisConfig struct {
	URL string `yaml:"url"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type MeiliConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type EnhanceConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8787", CORSOrigin: "*"},
		Database: DatabaseConfig{Driver: "sqlite", URL: "./data/cadence.db", MigrateOnStart: true},
		Session:  SessionConfig{TTL: 7 * 24 * time.Hour},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		AMQP:     AMQPConfig{Exchange: "events"},
		Minio:    MinioConfig{Bucket: "cadence-exports"},
		Enhance:  EnhanceConfig{Model: "gpt-4o-mini", Timeout: 30 * time.Second},
	}
}

// Load layers defaults, the YAML file at path (or the first default location
// found when path is empty) and environment overrides.
func Load(path string) (Config, error) {
	c := Default()

	paths := []string{"etc/cadence.yaml", "/etc/cadence/config.yaml"}
	if path != "" {
		paths = []string{path}
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if path != "" {
				return Config{}, fmt.Errorf("read config %s: %w", p, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", p, err)
		}
		break
	}

	envOverride(&c.Server.Addr, "CADENCE_ADDR")
	envOverride(&c.Server.CORSOrigin, "CADENCE_CORS_ORIGIN")
	envOverride(&c.Database.Driver, "CADENCE_DATABASE_DRIVER")
	envOverride(&c.Database.URL, "DATABASE_URL")
	envOverrideBool(&c.Database.MigrateOnStart, "CADENCE_MIGRATE_ON_START")
	envOverride(&c.Redis.URL, "REDIS_URL")
	envOverrideDuration(&c.Session.TTL, "CADENCE_SESSION_TTL")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Meili.URL, "MEILI_URL")
	envOverride(&c.Meili.APIKey, "MEILI_MASTER_KEY")
	envOverride(&c.AMQP.URL, "AMQP_URL")
	envOverride(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	envOverride(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	envOverride(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	envOverride(&c.Minio.Bucket, "MINIO_BUCKET")
	envOverrideBool(&c.Minio.UseSSL, "MINIO_USE_SSL")
	envOverride(&c.Enhance.BaseURL, "CADENCE_ENHANCE_URL")
	envOverride(&c.Enhance.APIKey, "CADENCE_ENHANCE_API_KEY")
	envOverride(&c.Enhance.Model, "CADENCE_ENHANCE_MODEL")

	if c.Session.TTL <= 0 {
		return Config{}, fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	return c, nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envOverrideDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
