package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsflow/go-annotator-service/internal/config"
)

// 抓取策略
const (
	StrategyAuto     = "auto"
	StrategyCycleTLS = "cycletls"
	StrategyStandard = "standard"
)

// FetchResult 抓取结果
type FetchResult struct {
	URL         string
	FinalURL    string
	HTML        string
	ContentType string
	StatusCode  int
	Strategy    string // cycletls, standard
	Duration    time.Duration
	Error       error
}

// HTTPError HTTP 错误（非 200 响应）
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client 单一策略的抓取客户端
type Client interface {
	Fetch(ctx context.Context, url string, headers map[string]string) *FetchResult
}

// Fetcher 统一抓取器（CycleTLS 优先，失败回退到标准客户端）
type Fetcher struct {
	cycleTLS *CycleTLSClient
	standard Client
	limiter  *rate.Limiter
	config   *config.Config
}

// New 创建抓取器
func New(cfg *config.Config) (*Fetcher, error) {
	f := &Fetcher{
		standard: NewStandardClient(cfg),
		limiter:  newLimiter(cfg),
		config:   cfg,
	}

	cycleTLS, err := NewCycleTLSClient(cfg)
	if err != nil {
		// CycleTLS 不可用时只使用标准客户端
		log.Printf("[Fetcher] CycleTLS 初始化失败，使用标准客户端: %v", err)
		return f, nil
	}
	f.cycleTLS = cycleTLS

	return f, nil
}

func newLimiter(cfg *config.Config) *rate.Limiter {
	if cfg.FetchRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.FetchBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.FetchRate), burst)
}

// CycleTLSEnabled CycleTLS 是否可用
func (f *Fetcher) CycleTLSEnabled() bool {
	return f.cycleTLS != nil
}

// Fetch 按策略抓取页面
//
// strategy 为空或 auto 时优先 CycleTLS，失败回退到标准客户端。
func (f *Fetcher) Fetch(ctx context.Context, url, strategy string) *FetchResult {
	return f.FetchWithHeaders(ctx, url, strategy, nil)
}

// FetchWithHeaders 带自定义 Headers 抓取（支持 Cookie、Referer）
func (f *Fetcher) FetchWithHeaders(ctx context.Context, url, strategy string, headers map[string]string) *FetchResult {
	if err := f.limiter.Wait(ctx); err != nil {
		return &FetchResult{URL: url, Strategy: strategy, Error: err}
	}

	switch strategy {
	case StrategyStandard:
		return f.standard.Fetch(ctx, url, headers)
	case StrategyCycleTLS:
		if f.cycleTLS != nil {
			return f.cycleTLS.Fetch(ctx, url, headers)
		}
		return f.standard.Fetch(ctx, url, headers)
	}

	if f.cycleTLS != nil {
		result := f.cycleTLS.Fetch(ctx, url, headers)
		if result.Error == nil && result.HTML != "" {
			return result
		}
		// 目标站点明确返回了错误状态，换客户端也没有意义
		if _, ok := result.Error.(*HTTPError); ok {
			return result
		}
		log.Printf("[Fetcher] CycleTLS 抓取失败，回退到标准客户端: %s: %v", url, result.Error)
	}

	return f.standard.Fetch(ctx, url, headers)
}

// Close 关闭抓取器
func (f *Fetcher) Close() {
	if f.cycleTLS != nil {
		f.cycleTLS.Close()
	}
}
