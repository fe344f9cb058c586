package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/service"
)

func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid publish payload: %v: %w", err, asynq.SkipRetry)
	}

	// A started attempt runs to completion even if the worker shuts down.
	post, err := j.ps.PublishNow(context.WithoutCancel(ctx), payload.PostID, payload.UserID)
	switch {
	case err == nil:
		slog.Info("post published", "post_id", post.ID, "remote_post_id", post.RemotePostID)
		return nil
	case errors.Is(err, service.ErrAlreadyPublished), errors.Is(err, service.ErrPublishInProgress):
		slog.Info("publish task skipped", "post_id", payload.PostID, "reason", err.Error())
		return nil
	case post != nil && post.Status == models.PostStatusFailed:
		// The failure is recorded on the post.
		slog.Info("publish task failed", "post_id", payload.PostID, "error", err.Error())
		return nil
	}

	return fmt.Errorf("publish post %d: %v: %w", payload.PostID, err, asynq.SkipRetry)
}
