// Package extractor 串联整条处理流水线：
// Cloudflare 邮箱解码 → （阅读模式正文提取）→ 净化 → 链接修正与加粗
package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/newsflow/go-annotator-service/internal/resolver"
	"github.com/newsflow/go-annotator-service/internal/rewriter"
	"github.com/newsflow/go-annotator-service/internal/sanitizer"
)

// ErrInvalidURL 目标链接不是严格合法的 http/https 链接
var ErrInvalidURL = errors.New("extractor: target url must be an absolute http(s) url")

// Options 处理选项
type Options struct {
	// ReaderMode 先用 Readability 提取正文再净化
	ReaderMode bool
}

// Result 处理结果
type Result struct {
	Content     string `json:"content"`
	Sterile     string `json:"sterile,omitempty"`
	Title       string `json:"title"`
	SiteName    string `json:"siteName,omitempty"`
	ReadingTime int    `json:"readingTime"`
}

// Extractor 页面处理器（整合 cloudflare 解码 + readability + sanitizer + rewriter）
type Extractor struct {
	sanitizer *sanitizer.Sanitizer
}

// New 创建处理器
func New() *Extractor {
	return &Extractor{
		sanitizer: sanitizer.NewSanitizer(),
	}
}

// Sterilize 只做净化（含 cloudflare 解码与可选的正文提取），不做链接修正和加粗
func (e *Extractor) Sterilize(page, targetURL string, opts Options) (*Result, error) {
	if !resolver.IsStrictURL(targetURL) {
		return nil, ErrInvalidURL
	}
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	// 1. 还原 Cloudflare 混淆邮箱
	page = DecodeCloudflareEmails(page)

	result := &Result{Title: ExtractTitle(page)}

	// 2. 阅读模式：提取正文
	if opts.ReaderMode {
		article, err := ExtractArticle(page, parsedURL)
		if err != nil {
			return nil, fmt.Errorf("readability: %w", err)
		}
		page = article.Content
		result.SiteName = article.SiteName
		if article.Title != "" {
			result.Title = article.Title
		}
	}

	// 3. 净化
	sterile, err := e.sanitizer.Sterilize(page)
	if err != nil {
		return nil, err
	}
	result.Sterile = sterile
	result.ReadingTime = calculateReadingTime(sterile)

	return result, nil
}

// Annotate 完整处理：净化 → 链接修正 → 长单词加粗
func (e *Extractor) Annotate(page, targetURL string, opts Options) (*Result, error) {
	result, err := e.Sterilize(page, targetURL, opts)
	if err != nil {
		return nil, err
	}

	content, err := rewriter.Process(result.Sterile, targetURL)
	if err != nil {
		return nil, err
	}
	result.Content = content

	return result, nil
}

var hanRegex = regexp.MustCompile(`\p{Han}`)

// calculateReadingTime 计算阅读时间（分钟）
func calculateReadingTime(sterile string) int {
	text := sterile
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(sterile)); err == nil {
		text = doc.Text()
	}

	// 中文约 400 字/分钟，其他语言约 200 词/分钟
	chineseCount := len(hanRegex.FindAllString(text, -1))
	wordCount := len(strings.Fields(text))

	minutes := float64(chineseCount)/400.0 + float64(wordCount)/200.0

	if minutes < 1 {
		return 1
	}
	return int(minutes + 0.5)
}
