package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config 服务配置
type Config struct {
	// HTTP 服务端口
	HTTPPort string `toml:"http_port"`
	// 最大并发数
	MaxConcurrent int `toml:"max_concurrent"`
	// 请求超时时间
	RequestTimeout time.Duration `toml:"-"`
	// 连接池大小
	MaxIdleConns int `toml:"max_idle_conns"`
	// 每个主机的最大连接数
	MaxConnsPerHost int `toml:"max_conns_per_host"`
	// User-Agent
	UserAgent string `toml:"user_agent"`
	// 出站抓取速率（次/秒），0 表示不限速
	FetchRate int `toml:"fetch_rate"`
	// 出站抓取突发上限
	FetchBurst int `toml:"fetch_burst"`
	// 默认启用阅读模式
	ReaderMode bool `toml:"reader_mode"`
	// Redis URL（用于结果缓存和队列消费），为空则都不启用
	RedisURL string `toml:"redis_url"`
	// 结果缓存时间
	CacheTTL time.Duration `toml:"-"`
	// 队列消费者名称
	ConsumerName string `toml:"consumer_name"`
	// 队列消费并发数
	QueueConcurrency int `toml:"queue_concurrency"`
}

// fileConfig 配置文件中以整数表示的时长字段
type fileConfig struct {
	Config
	RequestTimeoutMS int `toml:"request_timeout_ms"`
	CacheTTLSec      int `toml:"cache_ttl_sec"`
}

// DefaultConfig 默认配置（读取环境变量）
func DefaultConfig() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// Load 读取 TOML 配置文件，环境变量优先于文件
//
// path 为空时等同于 DefaultConfig。
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		fc := fileConfig{Config: *cfg}
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}

		*cfg = fc.Config
		if fc.RequestTimeoutMS > 0 {
			cfg.RequestTimeout = time.Duration(fc.RequestTimeoutMS) * time.Millisecond
		}
		if fc.CacheTTLSec > 0 {
			cfg.CacheTTL = time.Duration(fc.CacheTTLSec) * time.Second
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTPPort:         "8080",
		MaxConcurrent:    100,
		RequestTimeout:   15 * time.Second,
		MaxIdleConns:     100,
		MaxConnsPerHost:  10,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		FetchRate:        0,
		FetchBurst:       10,
		ReaderMode:       false,
		RedisURL:         "",
		CacheTTL:         10 * time.Minute,
		ConsumerName:     "go-annotator-1",
		QueueConcurrency: 10,
	}
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxConcurrent = getEnvInt("MAX_CONCURRENT", cfg.MaxConcurrent)
	cfg.RequestTimeout = time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", int(cfg.RequestTimeout.Milliseconds()))) * time.Millisecond
	cfg.MaxIdleConns = getEnvInt("MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.MaxConnsPerHost = getEnvInt("MAX_CONNS_PER_HOST", cfg.MaxConnsPerHost)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.FetchRate = getEnvInt("FETCH_RATE", cfg.FetchRate)
	cfg.FetchBurst = getEnvInt("FETCH_BURST", cfg.FetchBurst)
	cfg.ReaderMode = getEnvBool("READER_MODE", cfg.ReaderMode)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.CacheTTL = time.Duration(getEnvInt("CACHE_TTL_SEC", int(cfg.CacheTTL.Seconds()))) * time.Second
	cfg.ConsumerName = getEnv("CONSUMER_NAME", cfg.ConsumerName)
	cfg.QueueConcurrency = getEnvInt("QUEUE_CONCURRENCY", cfg.QueueConcurrency)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
