package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Enqueuer hands a publish over to a background worker and returns the task id.
type Enqueuer interface {
	EnqueuePublish(ctx context.Context, payload PublishPostPayload) (string, error)
}

type Client struct {
	client *asynq.Client
}

func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

func NewPublishTask(payload PublishPostPayload) (*asynq.Task, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// A publish is not idempotent on the remote side, so the task is never retried.
	return asynq.NewTask(TaskTypePublishPost, taskPayload, asynq.MaxRetry(0)), nil
}

func (c *Client) EnqueuePublish(ctx context.Context, payload PublishPostPayload) (string, error) {
	task, err := NewPublishTask(payload)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	slog.Info("publish task enqueued", "task_id", info.ID, "post_id", payload.PostID)
	return info.ID, nil
}
