package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sir_venger/upload_lite/internal/models"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	MetaDSN    string `yaml:"meta_dsn" json:"meta_dsn"`
	LogLevel   string `yaml:"log_level" json:"log_level"`

	MaxBodyBytes   int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
	ReadChunkBytes int   `yaml:"read_chunk_bytes" json:"read_chunk_bytes"`
	ReadTimeoutMS  int   `yaml:"read_timeout_ms" json:"read_timeout_ms"`
	ValidateUTF8   *bool `yaml:"validate_utf8" json:"validate_utf8"`

	TmpDir        string `yaml:"tmp_dir" json:"tmp_dir"`
	UploadDir     string `yaml:"upload_dir" json:"upload_dir"`
	GCTTLHours    int    `yaml:"gc_ttl_hours" json:"gc_ttl_hours"`
	GCIntervalMin int    `yaml:"gc_interval_min" json:"gc_interval_min"`
}

// Default возвращает конфигурацию, с которой сервис стартует без config.yaml.
func Default() Config {
	limits := models.DefaultLimits()
	validate := limits.ValidateUTF8
	return Config{
		ListenAddr:     ":8080",
		MetaDSN:        "memory://",
		LogLevel:       "info",
		MaxBodyBytes:   limits.MaxBodyBytes,
		ReadChunkBytes: limits.ReadChunkBytes,
		ReadTimeoutMS:  int(limits.ReadTimeout / time.Millisecond),
		ValidateUTF8:   &validate,
		UploadDir:      "./uploads",
		GCTTLHours:     24,
		GCIntervalMin:  30,
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствующий файл не ошибка: остаются значения по умолчанию.
func Load() (*Config, error) {
	c := Default()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TMP_DIR"); v != "" {
		c.TmpDir = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	if err := envInt64("MAX_BODY_BYTES", &c.MaxBodyBytes); err != nil {
		return nil, err
	}
	if err := envInt("READ_CHUNK_BYTES", &c.ReadChunkBytes); err != nil {
		return nil, err
	}
	if err := envInt("READ_TIMEOUT_MS", &c.ReadTimeoutMS); err != nil {
		return nil, err
	}
	if err := envInt("GC_TTL_HOURS", &c.GCTTLHours); err != nil {
		return nil, err
	}
	if err := envInt("GC_INTERVAL_MIN", &c.GCIntervalMin); err != nil {
		return nil, err
	}
	if v := os.Getenv("VALIDATE_UTF8"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("VALIDATE_UTF8: %w", err)
		}
		c.ValidateUTF8 = &b
	}

	if err := c.Limits().Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Limits собирает лимиты парсера из конфигурации.
func (c *Config) Limits() models.ParserLimits {
	validate := true
	if c.ValidateUTF8 != nil {
		validate = *c.ValidateUTF8
	}
	return models.ParserLimits{
		MaxBodyBytes:   c.MaxBodyBytes,
		ReadChunkBytes: c.ReadChunkBytes,
		ReadTimeout:    time.Duration(c.ReadTimeoutMS) * time.Millisecond,
		ValidateUTF8:   validate,
	}
}

// GCTTL возвращает возраст, после которого временные файлы считаются брошенными.
func (c *Config) GCTTL() time.Duration {
	return time.Duration(c.GCTTLHours) * time.Hour
}

// GCInterval возвращает период уборки временного каталога.
func (c *Config) GCInterval() time.Duration {
	return time.Duration(c.GCIntervalMin) * time.Minute
}

func envInt(k string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	*dst = n
	return nil
}

func envInt64(k string, dst *int64) error {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	*dst = n
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
