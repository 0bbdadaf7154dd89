package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// queuedMessage is the internal structure stored in Badger
type queuedMessage struct {
	ID           string             `json:"id"`
	Body         models.TaskMessage `json:"body"`
	EnqueuedAt   time.Time          `json:"enqueued_at"`
	VisibleAt    time.Time          `json:"visible_at"`
	ReceiveCount int                `json:"receive_count"`
}

// Manager implements a persistent visibility-timeout queue on BadgerDB.
// Messages live at queue:{name}:msg:{id}; a zero-padded-timestamp index at
// queue:{name}:index:{visibleAt}:{id} keeps ready messages scannable in
// order.
type Manager struct {
	db                *badger.DB
	queueName         string
	visibilityTimeout time.Duration
	maxReceive        int
	pollInterval      time.Duration
	concurrency       int
}

// NewManager creates a new Badger-backed queue manager
func NewManager(db *badger.DB, config *common.QueueConfig) (*Manager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if config.QueueName == "" {
		return nil, errors.New("queue name is required")
	}

	visibilityTimeout, err := time.ParseDuration(config.VisibilityTimeout)
	if err != nil || visibilityTimeout <= 0 {
		visibilityTimeout = 5 * time.Minute
	}
	pollInterval, err := time.ParseDuration(config.PollInterval)
	if err != nil || pollInterval <= 0 {
		pollInterval = time.Second
	}
	maxReceive := config.MaxReceive
	if maxReceive <= 0 {
		maxReceive = 3
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Manager{
		db:                db,
		queueName:         config.QueueName,
		visibilityTimeout: visibilityTimeout,
		maxReceive:        maxReceive,
		pollInterval:      pollInterval,
		concurrency:       concurrency,
	}, nil
}

// Enqueue adds a message to the queue, immediately visible
func (m *Manager) Enqueue(ctx context.Context, msg models.TaskMessage) error {
	return m.EnqueueAfter(ctx, msg, 0)
}

// EnqueueAfter adds a message that becomes visible after the delay. Retry
// backoff is implemented this way: the failed stage re-enqueues itself with
// the computed backoff as the delay.
func (m *Manager) EnqueueAfter(ctx context.Context, msg models.TaskMessage, delay time.Duration) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	qMsg := queuedMessage{
		ID:         uuid.New().String(),
		Body:       msg,
		EnqueuedAt: time.Now(),
		VisibleAt:  time.Now().Add(delay),
	}

	data, err := json.Marshal(qMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(m.msgKey(qMsg.ID), data); err != nil {
			return err
		}
		return txn.Set(m.indexKey(qMsg.VisibleAt, qMsg.ID), []byte{})
	})
}

// Receive pulls the next visible message from the queue. The returned delete
// function acknowledges the message; an unacknowledged message becomes
// visible again after the visibility timeout.
func (m *Manager) Receive(ctx context.Context) (*models.TaskMessage, func() error, error) {
	var qMsg queuedMessage
	var msgID string
	var oldIndexKey []byte

	err := m.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", m.queueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		found := false

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)

			ts, id, err := m.parseIndexKey(key)
			if err != nil {
				continue
			}

			if ts.After(now) {
				// Keys sort by timestamp; nothing later is ready either
				break
			}

			itemMsg, err := txn.Get(m.msgKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					// Orphaned index entry, clean it up
					if err := txn.Delete(key); err != nil {
						return err
					}
					continue
				}
				return err
			}

			if err := itemMsg.Value(func(val []byte) error {
				return json.Unmarshal(val, &qMsg)
			}); err != nil {
				return err
			}

			if qMsg.ReceiveCount >= m.maxReceive {
				// Poison pill, drop it to stop the redelivery loop
				if err := txn.Delete(key); err != nil {
					return err
				}
				if err := txn.Delete(m.msgKey(id)); err != nil {
					return err
				}
				continue
			}

			found = true
			msgID = id
			oldIndexKey = key
			break
		}

		if !found {
			return ErrNoMessage
		}

		qMsg.ReceiveCount++
		qMsg.VisibleAt = time.Now().Add(m.visibilityTimeout)

		newData, err := json.Marshal(qMsg)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(msgID), newData); err != nil {
			return err
		}

		if err := txn.Delete(oldIndexKey); err != nil {
			return err
		}
		return txn.Set(m.indexKey(qMsg.VisibleAt, msgID), []byte{})
	})

	if err != nil {
		return nil, nil, err
	}

	deleteFn := func() error {
		return m.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(m.msgKey(msgID))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return nil // Already deleted
				}
				return err
			}

			var currentMsg queuedMessage
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &currentMsg)
			}); err != nil {
				return err
			}

			if err := txn.Delete(m.indexKey(currentMsg.VisibleAt, msgID)); err != nil {
				if err != badger.ErrKeyNotFound {
					return err
				}
			}

			return txn.Delete(m.msgKey(msgID))
		})
	}

	return &qMsg.Body, deleteFn, nil
}

func (m *Manager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.queueName, id))
}

func (m *Manager) indexKey(visibleAt time.Time, id string) []byte {
	// Zero pad to 20 digits so string sorting matches numeric sorting
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.queueName, visibleAt.UnixNano(), id))
}

func (m *Manager) parseIndexKey(key []byte) (time.Time, string, error) {
	prefixStr := fmt.Sprintf("queue:%s:index:", m.queueName)
	if len(key) <= len(prefixStr) {
		return time.Time{}, "", fmt.Errorf("invalid key length")
	}

	suffix := string(key[len(prefixStr):])
	if len(suffix) < 21 { // 20 digits + 1 colon
		return time.Time{}, "", fmt.Errorf("invalid suffix length")
	}

	var ts int64
	if _, err := fmt.Sscanf(suffix[:20], "%d", &ts); err != nil {
		return time.Time{}, "", err
	}

	return time.Unix(0, ts), suffix[21:], nil
}
