package queue

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

// TaskHandler is a function that handles a specific task type
type TaskHandler func(ctx context.Context, msg *models.TaskMessage) error

// WorkerPool manages a pool of workers that process queue messages
type WorkerPool struct {
	queueMgr *Manager
	handlers map[string]TaskHandler
	logger   arbor.ILogger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queueMgr *Manager, logger arbor.ILogger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queueMgr: queueMgr,
		handlers: make(map[string]TaskHandler),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler registers a task type handler
func (wp *WorkerPool) RegisterHandler(taskType string, handler TaskHandler) {
	wp.handlers[taskType] = handler
	wp.logger.Debug().
		Str("task_type", taskType).
		Msg("Task handler registered")
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.logger.Info().
		Int("concurrency", wp.queueMgr.concurrency).
		Msg("Starting worker pool")

	for i := 0; i < wp.queueMgr.concurrency; i++ {
		go wp.worker(i)
	}

	return nil
}

// Stop gracefully stops the worker pool
func (wp *WorkerPool) Stop() error {
	wp.logger.Info().Msg("Stopping worker pool")
	wp.cancel()
	return nil
}

// worker is the main worker loop that processes messages
func (wp *WorkerPool) worker(workerID int) {
	// Stagger worker starts to reduce database lock contention
	staggerDelay := (wp.queueMgr.pollInterval / time.Duration(wp.queueMgr.concurrency)) * time.Duration(workerID)
	if staggerDelay > 0 {
		time.Sleep(staggerDelay)
	}

	wp.logger.Debug().
		Int("worker_id", workerID).
		Dur("stagger_delay", staggerDelay).
		Msg("Worker started")

	ticker := time.NewTicker(wp.queueMgr.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopped")
			return

		case <-ticker.C:
			if err := wp.processMessage(workerID); err != nil {
				if !errors.Is(err, ErrNoMessage) {
					wp.logger.Warn().
						Err(err).
						Int("worker_id", workerID).
						Msg("Error processing message")
				}
			}
		}
	}
}

// processMessage receives and processes a single message
func (wp *WorkerPool) processMessage(workerID int) error {
	msg, deleteFn, err := wp.queueMgr.Receive(wp.ctx)
	if err != nil {
		return err
	}

	handler, exists := wp.handlers[msg.Type]
	if !exists {
		wp.logger.Error().
			Str("type", msg.Type).
			Str("message_id", msg.ID).
			Msg("No handler registered for task type")
		if delErr := deleteFn(); delErr != nil {
			wp.logger.Warn().Err(delErr).Msg("Failed to delete unknown task type message")
		}
		return nil
	}

	wp.logger.Debug().
		Str("message_id", msg.ID).
		Str("type", msg.Type).
		Str("post_number", msg.PostNumber).
		Int("worker_id", workerID).
		Msg("Processing message")

	startTime := time.Now()
	handlerErr := handler(wp.ctx, msg)
	duration := time.Since(startTime)

	if handlerErr != nil {
		wp.logger.Error().
			Err(handlerErr).
			Str("message_id", msg.ID).
			Str("type", msg.Type).
			Str("post_number", msg.PostNumber).
			Dur("duration", duration).
			Int("worker_id", workerID).
			Msg("Task handler failed")
	} else {
		wp.logger.Info().
			Str("message_id", msg.ID).
			Str("type", msg.Type).
			Str("post_number", msg.PostNumber).
			Dur("duration", duration).
			Int("worker_id", workerID).
			Msg("Task completed")
	}

	// The handler owns retries by re-enqueueing with backoff; the received
	// message is acknowledged either way.
	if err := deleteFn(); err != nil {
		wp.logger.Warn().
			Err(err).
			Str("message_id", msg.ID).
			Msg("Failed to delete message after processing")
		return err
	}

	return handlerErr
}
