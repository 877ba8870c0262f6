package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/newsflow/go-annotator-service/internal/config"
	"github.com/newsflow/go-annotator-service/internal/queue"
	"github.com/newsflow/go-annotator-service/internal/resolver"
)

func newEnqueueCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue [url]",
		Short: "Queue a page for the annotator service",
		Long: `Pushes an annotate task onto the Redis task list consumed by the server.
Results are published to the result list under the printed task id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(cmd, args[0], root)
		},
	}
}

func runEnqueue(cmd *cobra.Command, target string, opts *rootOptions) error {
	if !resolver.IsStrictURL(target) {
		return fmt.Errorf("not sure this link is valid: %q", target)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return errors.New("REDIS_URL is not configured")
	}

	q, err := queue.NewRedisQueue(cfg.RedisURL, cfg.ConsumerName)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer q.Close()

	task := &queue.AnnotateTask{
		ID:         uuid.NewString(),
		URL:        target,
		Strategy:   opts.strategy,
		ReaderMode: opts.reader,
	}
	if err := q.Enqueue(context.Background(), task); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s\n", target, task.ID)
	return nil
}
