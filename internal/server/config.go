package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/debt-engine/internal/cache"
	"github.com/iwvelando/debt-engine/internal/config"
	"github.com/iwvelando/debt-engine/internal/tracing"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultCacheTTL is how long a cached response stays valid when the server
// config does not say.
const DefaultCacheTTL = 10 * time.Minute

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"`
	Logging         config.LoggingConfig `yaml:"logging"`
	Cache           CacheConfig          `yaml:"cache"`
	Tracing         tracing.Config       `yaml:"tracing"`
	uploadSizeBytes int64
}

// CacheConfig selects the response cache. An empty RedisAddr keeps responses
// in process memory.
type CacheConfig struct {
	RedisAddr string `yaml:"redisAddr,omitempty"`
	TTL       string `yaml:"ttl,omitempty"`
	Disabled  bool   `yaml:"disabled,omitempty"`
	ttl       time.Duration
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Address:         constants.DefaultServerAddress,
		MaxUploadSize:   fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
		Logging:         config.LoggingConfig{},
		Cache:           CacheConfig{ttl: DefaultCacheTTL},
		Tracing:         tracing.Config{ServiceName: constants.DefaultServiceName},
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = fmt.Sprintf("%d", size)
	}
}

// TTLDuration returns the parsed cache TTL.
func (c CacheConfig) TTLDuration() time.Duration {
	if c.ttl <= 0 {
		return DefaultCacheTTL
	}
	return c.ttl
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if strings.TrimSpace(c.Tracing.ServiceName) == "" {
		c.Tracing.ServiceName = constants.DefaultServiceName
	}

	c.Cache.ttl = DefaultCacheTTL
	if ttl := strings.TrimSpace(c.Cache.TTL); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid cache ttl %q: %w", c.Cache.TTL, err)
		}
		if d > 0 {
			c.Cache.ttl = d
		}
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

// NewCache builds the response cache described by cfg. A Redis server that
// cannot be reached falls back to memory. The returned close function is
// never nil.
func NewCache(ctx context.Context, logger *zap.Logger, cfg CacheConfig) (cache.Cache, func() error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noClose := func() error { return nil }

	if cfg.Disabled {
		return nil, noClose
	}
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(), noClose
	}

	redisCache := cache.NewRedisCache(cfg.RedisAddr)
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, caching responses in memory",
			zap.String("op", "server.NewCache"),
			zap.String("redisAddr", cfg.RedisAddr),
			zap.Error(err),
		)
		_ = redisCache.Close()
		return cache.NewMemoryCache(), noClose
	}

	logger.Info("caching responses in redis",
		zap.String("op", "server.NewCache"),
		zap.String("redisAddr", cfg.RedisAddr),
	)
	return redisCache, redisCache.Close
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
