package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newsflow/go-annotator-service/internal/cache"
	"github.com/newsflow/go-annotator-service/internal/config"
	"github.com/newsflow/go-annotator-service/internal/extractor"
	"github.com/newsflow/go-annotator-service/internal/fetcher"
	"github.com/newsflow/go-annotator-service/internal/resolver"
)

// 处理失败的分类，表单页据此选择提示文案
var (
	ErrInvalidURL = errors.New("invalid url")
	ErrFetch      = errors.New("fetch failed")
	ErrProcess    = errors.New("process failed")
)

// PageFetcher 页面抓取
type PageFetcher interface {
	Fetch(ctx context.Context, url, strategy string) *fetcher.FetchResult
	CycleTLSEnabled() bool
	Close()
}

// Handler HTTP 处理器
type Handler struct {
	fetcher   PageFetcher
	extractor *extractor.Extractor
	cache     cache.Cache
	semaphore chan struct{}
	config    *config.Config
}

// AnnotateRequest 标注请求
type AnnotateRequest struct {
	URL        string `json:"url"`
	Timeout    int    `json:"timeout,omitempty"`  // 毫秒
	Strategy   string `json:"strategy,omitempty"` // cycletls, standard, auto
	ReaderMode bool   `json:"readerMode,omitempty"`
}

// AnnotateResponse 标注响应
type AnnotateResponse struct {
	RequestID   string `json:"requestId"`
	URL         string `json:"url"`
	FinalURL    string `json:"finalUrl,omitempty"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	ReadingTime int    `json:"readingTime,omitempty"`
	Strategy    string `json:"strategy,omitempty"`
	Cached      bool   `json:"cached"`
	Duration    int64  `json:"duration"`
	Error       string `json:"error,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status          string `json:"status"`
	Concurrency     int    `json:"concurrency"`
	Available       int    `json:"available"`
	CycleTLSEnabled bool   `json:"cycleTlsEnabled"`
	CacheEnabled    bool   `json:"cacheEnabled"`
}

// New 创建处理器，配置了 REDIS_URL 时启用结果缓存
func New(cfg *config.Config) (*Handler, error) {
	f, err := fetcher.New(cfg)
	if err != nil {
		return nil, err
	}

	var c cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Printf("[Handler] Redis 缓存不可用，不启用缓存: %v", err)
		} else {
			c = rc
		}
	}

	return NewWithDeps(cfg, f, c), nil
}

// NewWithDeps 使用给定的抓取器和缓存创建处理器
func NewWithDeps(cfg *config.Config, f PageFetcher, c cache.Cache) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	concurrency := cfg.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Handler{
		fetcher:   f,
		extractor: extractor.New(),
		cache:     c,
		semaphore: make(chan struct{}, concurrency),
		config:    cfg,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handlePage)
	mux.HandleFunc("/annotate", h.handleAnnotate)
	mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth 健康检查
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, nop := h.cache.(cache.Nop)
	resp := HealthResponse{
		Status:          "ok",
		Concurrency:     cap(h.semaphore),
		Available:       cap(h.semaphore) - len(h.semaphore),
		CycleTLSEnabled: h.fetcher.CycleTLSEnabled(),
		CacheEnabled:    !nop,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleAnnotate 单个页面标注
func (h *Handler) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if !resolver.IsStrictURL(req.URL) {
		h.writeError(w, http.StatusBadRequest, "URL is not a valid http(s) link")
		return
	}

	// 获取信号量
	select {
	case h.semaphore <- struct{}{}:
		defer func() { <-h.semaphore }()
	default:
		h.writeError(w, http.StatusServiceUnavailable, "Server is busy")
		return
	}

	// 设置超时
	timeout := time.Duration(req.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = h.config.RequestTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	resp, _ := h.Annotate(ctx, req)
	h.writeJSON(w, http.StatusOK, resp)
}

// Annotate 抓取并标注页面：缓存 → 抓取 → 净化 → 链接修正 → 加粗
//
// 返回的错误包装 ErrInvalidURL、ErrFetch 或 ErrProcess 之一，
// 同样的信息也写入响应的 Error 字段。
func (h *Handler) Annotate(ctx context.Context, req AnnotateRequest) (*AnnotateResponse, error) {
	start := time.Now()
	resp := &AnnotateResponse{RequestID: uuid.NewString(), URL: req.URL}
	readerMode := req.ReaderMode || h.config.ReaderMode

	err := h.annotate(ctx, req, readerMode, resp)
	resp.Duration = time.Since(start).Milliseconds()
	if err != nil {
		resp.Error = err.Error()
		log.Printf("[Handler] %s 处理失败 %s: %v", resp.RequestID, req.URL, err)
		return resp, err
	}

	log.Printf("[Handler] %s %s 完成（%s，缓存 %t，%dms）",
		resp.RequestID, req.URL, resp.Strategy, resp.Cached, resp.Duration)
	return resp, nil
}

func (h *Handler) annotate(ctx context.Context, req AnnotateRequest, readerMode bool, resp *AnnotateResponse) error {
	if !resolver.IsStrictURL(req.URL) {
		return ErrInvalidURL
	}

	if entry, err := h.cache.Get(ctx, req.URL, readerMode); err != nil {
		log.Printf("[Handler] 读取缓存失败 %s: %v", req.URL, err)
	} else if entry != nil {
		resp.FinalURL = entry.FinalURL
		resp.Title = entry.Title
		resp.Content = entry.Content
		resp.ReadingTime = entry.ReadingTime
		resp.Strategy = entry.Strategy
		resp.Cached = true
		return nil
	}

	fetchResult := h.fetcher.Fetch(ctx, req.URL, req.Strategy)
	resp.Strategy = fetchResult.Strategy
	if fetchResult.Error != nil {
		return fmt.Errorf("%w: %w", ErrFetch, fetchResult.Error)
	}
	resp.FinalURL = fetchResult.FinalURL

	// 跳转后的地址不合法时仍以请求地址为链接基准
	base := req.URL
	if resolver.IsStrictURL(fetchResult.FinalURL) {
		base = fetchResult.FinalURL
	}

	result, err := h.extractor.Annotate(fetchResult.HTML, base, extractor.Options{ReaderMode: readerMode})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProcess, err)
	}
	resp.Title = result.Title
	resp.Content = result.Content
	resp.ReadingTime = result.ReadingTime

	entry := &cache.Entry{
		URL:         req.URL,
		FinalURL:    resp.FinalURL,
		Title:       resp.Title,
		Content:     resp.Content,
		ReadingTime: resp.ReadingTime,
		Strategy:    resp.Strategy,
		CachedAt:    time.Now(),
	}
	if err := h.cache.Set(ctx, req.URL, readerMode, entry); err != nil {
		log.Printf("[Handler] 写入缓存失败 %s: %v", req.URL, err)
	}

	return nil
}

// Close 关闭处理器
func (h *Handler) Close() {
	h.fetcher.Close()
	if err := h.cache.Close(); err != nil {
		log.Printf("[Handler] 关闭缓存失败: %v", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
