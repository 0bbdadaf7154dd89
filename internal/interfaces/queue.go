package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/laboro/internal/models"
)

// TaskEnqueuer dispatches pipeline stage tasks onto the queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, msg models.TaskMessage) error
	// EnqueueAfter delays visibility of the message, used for retry backoff.
	EnqueueAfter(ctx context.Context, msg models.TaskMessage, delay time.Duration) error
}
