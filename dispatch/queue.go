package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/focusboard/focusboard-server/config"
)

// Job is the unit handed from the notification-create request to the worker
// after the transaction has committed.
type Job struct {
	Id             uuid.UUID `json:"id"`
	JobRowId       int64     `json:"job_row_id"`
	NotificationId int64     `json:"notification_id"`
	StaffIds       []int64   `json:"staff_ids"`
	Payload        Payload   `json:"payload"`
}

// Queue hands delivery jobs from request handlers to the worker. Dequeue
// blocks up to its poll timeout and returns (nil, nil) when nothing arrived.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (*Job, error)
}

type RedisQueue struct {
	client     *redis.Client
	key        string
	popTimeout time.Duration
}

func NewRedisQueue(client *redis.Client, c *config.Config) *RedisQueue {
	return &RedisQueue{
		client:     client,
		key:        c.Dispatch.QueueKey,
		popTimeout: time.Duration(c.Dispatch.PopTimeout) * time.Second,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return q.client.LPush(ctx, q.key, encoded).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	values, err := q.client.BRPop(ctx, q.popTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	// BRPOP returns [key, value].
	job := new(Job)
	if err := json.Unmarshal([]byte(values[1]), job); err != nil {
		return nil, err
	}

	return job, nil
}
