// Package cache 缓存处理结果，同一页面短时间内重复请求时不再抓取
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "annotator:page:"

// Entry 缓存条目
type Entry struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"finalUrl"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ReadingTime int       `json:"readingTime"`
	Strategy    string    `json:"strategy"`
	CachedAt    time.Time `json:"cachedAt"`
}

// Cache 结果缓存
type Cache interface {
	Get(ctx context.Context, url string, readerMode bool) (*Entry, error)
	Set(ctx context.Context, url string, readerMode bool, entry *Entry) error
	Close() error
}

// Key 缓存键：URL 与阅读模式共同决定
func Key(url string, readerMode bool) string {
	mode := "full"
	if readerMode {
		mode = "reader"
	}
	sum := sha1.Sum([]byte(url))
	return keyPrefix + mode + ":" + hex.EncodeToString(sum[:])
}

// RedisCache Redis 实现
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get 读取缓存，未命中返回 nil, nil
func (c *RedisCache) Get(ctx context.Context, url string, readerMode bool) (*Entry, error) {
	data, err := c.client.Get(ctx, Key(url, readerMode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, url string, readerMode bool, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(url, readerMode), data, c.ttl).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop 不缓存（未配置 Redis 时使用）
type Nop struct{}

// Get 总是未命中
func (Nop) Get(context.Context, string, bool) (*Entry, error) { return nil, nil }

// Set 丢弃
func (Nop) Set(context.Context, string, bool, *Entry) error { return nil }

// Close 无操作
func (Nop) Close() error { return nil }
