package fetcher

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/newsflow/go-annotator-service/internal/config"
)

// 页面体积上限，超过部分丢弃
const maxBodySize = 10 << 20

// 默认请求头
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "ru-RU,ru;q=0.9,en;q=0.8",
	"Accept-Encoding": "gzip, deflate, br",
	"Connection":      "keep-alive",
	"Cache-Control":   "no-cache",
}

// mergeHeaders 合并默认 Headers 和自定义 Headers（自定义优先）
func mergeHeaders(custom map[string]string) map[string]string {
	headers := make(map[string]string, len(defaultHeaders)+len(custom))
	for k, v := range defaultHeaders {
		headers[k] = v
	}
	for k, v := range custom {
		headers[k] = v
	}
	return headers
}

// StandardClient 标准 HTTP 客户端（备用）
type StandardClient struct {
	client    *http.Client
	userAgent string
}

// NewStandardClient 创建标准 HTTP 客户端
func NewStandardClient(cfg *config.Config) *StandardClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   10 * time.Second,
		DisableCompression:    false,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &StandardClient{
		client:    client,
		userAgent: cfg.UserAgent,
	}
}

// Fetch 使用标准客户端抓取
func (c *StandardClient) Fetch(ctx context.Context, url string, headers map[string]string) *FetchResult {
	start := time.Now()
	result := &FetchResult{URL: url, Strategy: StrategyStandard}
	defer func() { result.Duration = time.Since(start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err
		return result
	}

	for k, v := range mergeHeaders(headers) {
		// 交给 Transport 自动处理 gzip，手动设置会导致响应体不被解压
		if k == "Accept-Encoding" {
			continue
		}
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	result.FinalURL = resp.Request.URL.String()
	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	if resp.StatusCode != http.StatusOK {
		result.Error = &HTTPError{StatusCode: resp.StatusCode}
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		result.Error = err
		return result
	}

	result.HTML = string(body)
	return result
}
