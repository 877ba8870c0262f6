package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newsflow/go-annotator-service/internal/config"
	"github.com/newsflow/go-annotator-service/internal/handler"
	"github.com/newsflow/go-annotator-service/internal/queue"
)

func main() {
	// 加载配置（CONFIG_FILE 为空时只读环境变量）
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建处理器
	h, err := handler.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create handler: %v", err)
	}
	defer h.Close()

	// 创建路由
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// 创建服务器
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGINT/SIGTERM 取消 ctx，队列消费者和 HTTP 服务随之关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 启动 Redis 队列消费者（可选）
	consumerDone := make(chan struct{})
	if cfg.RedisURL != "" {
		go func() {
			defer close(consumerDone)
			startQueueConsumer(ctx, cfg, h)
		}()
	} else {
		close(consumerDone)
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", server.Addr, err)
	}

	// 启动服务
	log.Printf("Go Annotator Service starting on port %s", cfg.HTTPPort)
	log.Printf("Max concurrent: %d", cfg.MaxConcurrent)
	log.Printf("Reader mode by default: %t", cfg.ReaderMode)

	if err := serve(ctx, server, ln, cfg.RequestTimeout); err != nil {
		log.Printf("Server error: %v", err)
	}

	// 服务异常退出时也要停掉消费者；处理器在两者都结束后才关闭
	stop()
	<-consumerDone
	log.Println("Server stopped")
}

// serve 在 ln 上提供服务，ctx 取消后优雅关闭
//
// 只有在 Shutdown 返回（进行中的请求处理完或超时）之后才返回。
func serve(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	served := make(chan error, 1)
	go func() { served <- server.Serve(ln) }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	// Shutdown 开始后 Serve 立即返回 ErrServerClosed
	<-served
	return err
}

// startQueueConsumer 启动队列消费者，任务走与 HTTP 接口相同的处理流程
func startQueueConsumer(ctx context.Context, cfg *config.Config, h *handler.Handler) {
	q, err := queue.NewRedisQueue(cfg.RedisURL, cfg.ConsumerName)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		return
	}
	defer q.Close()

	log.Println("Redis queue consumer started")

	q.StartConsumer(ctx, func(ctx context.Context, task *queue.AnnotateTask) *queue.AnnotateResult {
		taskCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()

		resp, err := h.Annotate(taskCtx, handler.AnnotateRequest{
			URL:        task.URL,
			Strategy:   task.Strategy,
			ReaderMode: task.ReaderMode,
		})
		return &queue.AnnotateResult{
			TaskID:   task.ID,
			URL:      task.URL,
			FinalURL: resp.FinalURL,
			Success:  err == nil,
			Title:    resp.Title,
			Content:  resp.Content,
			Strategy: resp.Strategy,
			Cached:   resp.Cached,
			Duration: resp.Duration,
			Error:    resp.Error,
		}
	}, cfg.QueueConcurrency)
}
