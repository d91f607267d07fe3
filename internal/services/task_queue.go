package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
)

const (
	TaskTypeTranscribe = "content:transcribe"
	transcriptionQueue = "transcription"
)

// TranscriptionTask asks for the text of an uploaded document to be extracted.
type TranscriptionTask struct {
	ContentID string `json:"content_id"`
	ProjectID string `json:"project_id"`
}

// TaskQueue hands transcription tasks to whatever runs them.
type TaskQueue interface {
	Enqueue(task *TranscriptionTask) error
	// IsAsync reports whether tasks leave this process (Redis) or run in it.
	IsAsync() bool
	Close() error
}

// InitTaskQueue returns the Redis queue when enabled and reachable, otherwise
// the in-process queue.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	if !cfg.Redis.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(&cfg.Redis)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
	return queue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// AsyncQueue pushes tasks to Redis through asynq.
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	// Queues() fails fast when Redis is unreachable
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}
	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *TranscriptionTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeTranscribe, payload),
		asynq.Queue(transcriptionQueue),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("content_id", task.ContentID).Msg("[AsyncQueue] transcription enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks in a background goroutine of this process.
type SyncQueue struct {
	processor func(context.Context, *TranscriptionTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor func(context.Context, *TranscriptionTask) error) {
	q.processor = processor
}

// Enqueue returns immediately; the upload response does not wait for the text.
func (q *SyncQueue) Enqueue(task *TranscriptionTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, task for content %s dropped", task.ContentID)
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Warnf("[SyncQueue] transcription of %s failed: %v", task.ContentID, err)
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }
