package models

import "time"

// Task types dispatched onto the queue, one per pipeline stage.
const (
	TaskTypeFetch   = "job_fetch"
	TaskTypeExtract = "job_extract"
)

// TaskMessage is the unit of work exchanged through the queue. Attempt counts
// the stage retries already consumed for this post number.
type TaskMessage struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PostNumber string    `json:"post_number"`
	Attempt    int       `json:"attempt"`
	CreatedAt  time.Time `json:"created_at"`
}
