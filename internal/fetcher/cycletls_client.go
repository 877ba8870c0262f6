package fetcher

import (
	"context"
	"time"

	cycletls "github.com/Danny-Dasilva/CycleTLS/cycletls"

	"github.com/newsflow/go-annotator-service/internal/config"
)

// CycleTLSClient 使用 CycleTLS 的客户端（TLS 指纹伪造）
type CycleTLSClient struct {
	client    cycletls.CycleTLS
	userAgent string
	ja3       string
	timeout   int
}

// Chrome JA3 指纹
const ChromeJA3 = "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513,29-23-24,0"

// NewCycleTLSClient 创建 CycleTLS 客户端
func NewCycleTLSClient(cfg *config.Config) (*CycleTLSClient, error) {
	client := cycletls.Init()

	return &CycleTLSClient{
		client:    client,
		userAgent: cfg.UserAgent,
		ja3:       ChromeJA3,
		timeout:   int(cfg.RequestTimeout.Seconds()),
	}, nil
}

// Fetch 使用 CycleTLS 抓取（模拟 Chrome TLS 指纹），headers 覆盖默认值
func (c *CycleTLSClient) Fetch(ctx context.Context, url string, headers map[string]string) *FetchResult {
	start := time.Now()
	result := &FetchResult{URL: url, Strategy: StrategyCycleTLS}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	options := cycletls.Options{
		Body:      "",
		Ja3:       c.ja3,
		UserAgent: c.userAgent,
		Headers:   mergeHeaders(headers),
		Timeout:   c.timeout,
	}

	resp, err := c.client.Do(url, options, "GET")
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	result.FinalURL = resp.FinalUrl
	if result.FinalURL == "" {
		result.FinalURL = url
	}
	result.StatusCode = resp.Status
	result.ContentType = resp.Headers["Content-Type"]

	if resp.Status != 200 {
		result.Error = &HTTPError{StatusCode: resp.Status}
		return result
	}

	result.HTML = resp.Body
	return result
}

// Close 关闭客户端
func (c *CycleTLSClient) Close() {
	c.client.Close()
}
