package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// 队列键名
const (
	TaskQueue   = "annotator:tasks"
	ResultQueue = "annotator:results"
)

// blpop 等待时长，超时后重新检查 ctx
const pollTimeout = 30 * time.Second

// AnnotateTask 标注任务
type AnnotateTask struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Strategy   string    `json:"strategy,omitempty"`
	ReaderMode bool      `json:"readerMode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AnnotateResult 标注结果
type AnnotateResult struct {
	TaskID   string `json:"taskId"`
	URL      string `json:"url"`
	FinalURL string `json:"finalUrl,omitempty"`
	Success  bool   `json:"success"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content,omitempty"`
	Strategy string `json:"strategy"`
	Cached   bool   `json:"cached"`
	Duration int64  `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// RedisQueue Redis 队列消费者
type RedisQueue struct {
	client       *redis.Client
	taskQueue    string
	resultQueue  string
	consumerName string
}

// NewRedisQueue 创建 Redis 队列
func NewRedisQueue(redisURL, consumerName string) (*RedisQueue, error) {
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

	return newRedisQueue(client, consumerName), nil
}

func newRedisQueue(client *redis.Client, consumerName string) *RedisQueue {
	return &RedisQueue{
		client:       client,
		taskQueue:    TaskQueue,
		resultQueue:  ResultQueue,
		consumerName: consumerName,
	}
}

// Enqueue 投递任务
func (q *RedisQueue) Enqueue(ctx context.Context, task *AnnotateTask) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.taskQueue, data).Err()
}

// ConsumeTask 消费任务（阻塞式），超时无任务时返回 nil, nil
func (q *RedisQueue) ConsumeTask(ctx context.Context) (*AnnotateTask, error) {
	result, err := q.client.BLPop(ctx, pollTimeout, q.taskQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	// BLPOP 返回 [key, value]
	if len(result) < 2 {
		return nil, nil
	}

	return decodeTask(result[1])
}

func decodeTask(payload string) (*AnnotateTask, error) {
	var task AnnotateTask
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// requeue 把已取出但未处理的任务放回队首
func (q *RedisQueue) requeue(ctx context.Context, task *AnnotateTask) {
	data, err := json.Marshal(task)
	if err == nil {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err = q.client.LPush(pushCtx, q.taskQueue, data).Err()
	}
	if err != nil {
		log.Printf("[Queue] 任务放回队列失败 %s: %v", task.ID, err)
		return
	}
	log.Printf("[Queue] 任务 %s 未处理，已放回队列", task.ID)
}

// PublishResult 发布结果
func (q *RedisQueue) PublishResult(ctx context.Context, result *AnnotateResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return q.client.RPush(ctx, q.resultQueue, data).Err()
}

// Close 关闭连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// TaskHandler 任务处理函数
type TaskHandler func(ctx context.Context, task *AnnotateTask) *AnnotateResult

// StartConsumer 启动消费者，ctx 取消后等待进行中的任务完成再返回
func (q *RedisQueue) StartConsumer(ctx context.Context, handler TaskHandler, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	log.Printf("[Queue] %s 开始消费 %s（并发 %d）", q.consumerName, q.taskQueue, concurrency)

	for {
		if ctx.Err() != nil {
			log.Printf("[Queue] %s 已停止", q.consumerName)
			return
		}

		task, err := q.ConsumeTask(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("[Queue] 读取任务失败: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if task == nil {
			continue
		}

		// 获取并发控制信号量；等待期间收到停止信号时把任务放回队首
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			select {
			case <-sem:
			default:
			}
			q.requeue(ctx, task)
			continue
		}

		wg.Add(1)
		go func(t *AnnotateTask) {
			defer wg.Done()
			defer func() { <-sem }()

			result := handler(ctx, t)
			// ctx 可能已取消，结果仍要写回
			publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := q.PublishResult(publishCtx, result); err != nil {
				log.Printf("[Queue] 发布结果失败 %s: %v", t.ID, err)
			}
		}(task)
	}
}

// GetQueueLength 获取队列长度
func (q *RedisQueue) GetQueueLength(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.taskQueue).Result()
}
