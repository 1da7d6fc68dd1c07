package configs

import (
	"fmt"
	"time"

	"github.com/crooner-app/crooner/internal/infrastructure/env"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rate_limiter"`
	Store       StoreConfig       `koanf:"store"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	Limit  int           `koanf:"limit"`
	Window time.Duration `koanf:"window"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type LoggingConfig struct {
	Level      string `koanf:"level"`
	FilePath   string `koanf:"file_path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if one was found; defaults alone are a valid setup.
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	setDefault(k, "rate_limiter.limit", 20)
	setDefault(k, "rate_limiter.window", time.Second)

	setDefault(k, "store.path", "./crooner.db")

	setDefault(k, "logging.level", "info")
	setDefault(k, "logging.file_path", "")
	setDefault(k, "logging.max_size_mb", 50)
	setDefault(k, "logging.max_backups", 3)
	setDefault(k, "logging.max_age_days", 14)
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if limit := env.GetInt("RATE_LIMIT", 0); limit > 0 {
		k.Set("rate_limiter.limit", limit)
	}
	if window := env.GetInt("RATE_LIMIT_WINDOW_SECONDS", 0); window > 0 {
		k.Set("rate_limiter.window", time.Duration(window)*time.Second)
	}

	if path := env.GetString("STORE_PATH", ""); path != "" {
		k.Set("store.path", path)
	}

	if level := env.GetString("LOG_LEVEL", ""); level != "" {
		k.Set("logging.level", level)
	}
	if filePath := env.GetString("LOG_FILE_PATH", ""); filePath != "" {
		k.Set("logging.file_path", filePath)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
