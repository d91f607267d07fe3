package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
)

// Worker consumes transcription tasks from Redis.
type Worker struct {
	server    *asynq.Server
	processor func(context.Context, *TranscriptionTask) error

	mu      sync.Mutex
	running bool
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig, processor func(context.Context, *TranscriptionTask) error) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: 4,
		Queues:      map[string]int{transcriptionQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn().Err(err).Str("type", task.Type()).
				Int("retry", retried).Int("max_retry", maxRetry).
				Msg("[Worker] task failed")
		}),
	})
	return &Worker{server: server, processor: processor}
}

// Start runs the asynq server in the background.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeTranscribe, w.handle)
	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("start transcription worker: %w", err)
	}
	w.running = true
	logger.Infof("[Worker] consuming %s tasks", TaskTypeTranscribe)
	return nil
}

// Stop waits for in-flight tasks, then disconnects.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.server.Shutdown()
	w.running = false
	logger.Infof("[Worker] stopped")
}

func (w *Worker) handle(ctx context.Context, t *asynq.Task) error {
	var task TranscriptionTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		// a malformed payload never succeeds on retry
		return fmt.Errorf("decode %s payload: %w: %w", t.Type(), err, asynq.SkipRetry)
	}
	return w.processor(ctx, &task)
}
