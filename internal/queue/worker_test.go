package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/service"
	"github.com/maheshrc27/igscheduler/internal/transfer"
)

type stubPostService struct {
	post   *models.Post
	err    error
	calls  []PublishPostPayload
	ctxErr error
}

func (s *stubPostService) CreatePost(context.Context, int64, *transfer.PostCreation) (*models.Post, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPostService) List(context.Context, int64) ([]*models.Post, error) {
	return nil, nil
}

func (s *stubPostService) PostInfo(context.Context, int64, int64) (*models.Post, error) {
	return s.post, s.err
}

func (s *stubPostService) PublishNow(ctx context.Context, postID, userID int64) (*models.Post, error) {
	s.ctxErr = ctx.Err()
	s.calls = append(s.calls, PublishPostPayload{PostID: postID, UserID: userID})
	return s.post, s.err
}

func (s *stubPostService) PublishDue(context.Context, *models.Post) error {
	return nil
}

func (s *stubPostService) ReconcileStale(context.Context, time.Time) (int, error) {
	return 0, nil
}

func TestNewPublishTask(t *testing.T) {
	task, err := NewPublishTask(PublishPostPayload{PostID: 3, UserID: 7})
	if err != nil {
		t.Fatalf("NewPublishTask error: %v", err)
	}
	if task.Type() != TaskTypePublishPost {
		t.Errorf("unexpected task type %q", task.Type())
	}

	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload.PostID != 3 || payload.UserID != 7 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestHandlePublishPostTask(t *testing.T) {
	tests := []struct {
		name      string
		post      *models.Post
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{"published", &models.Post{ID: 3, Status: models.PostStatusPublished, RemotePostID: "rp_1"}, nil, false, false},
		{"already published", &models.Post{ID: 3, Status: models.PostStatusPublished}, service.ErrAlreadyPublished, false, false},
		{"in progress", &models.Post{ID: 3, Status: models.PostStatusPublishing}, service.ErrPublishInProgress, false, false},
		{"remote failure recorded", &models.Post{ID: 3, Status: models.PostStatusFailed}, service.ErrMediaProcessingTimeout, false, false},
		{"not found", nil, service.ErrNotFound, true, true},
		{"store failure", &models.Post{ID: 3, Status: models.PostStatusPublishing}, service.ErrStore, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &stubPostService{post: tt.post, err: tt.err}
			task, _ := NewPublishTask(PublishPostPayload{PostID: 3, UserID: 7})

			err := NewQueue(ps).HandlePublishPostTask(context.Background(), task)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr %v, got %v", tt.wantErr, err)
			}
			if tt.skipRetry && !errors.Is(err, asynq.SkipRetry) {
				t.Errorf("expected SkipRetry, got %v", err)
			}
			if len(ps.calls) != 1 || ps.calls[0].PostID != 3 || ps.calls[0].UserID != 7 {
				t.Errorf("unexpected PublishNow calls %+v", ps.calls)
			}
		})
	}
}

func TestHandlePublishPostTaskBadPayload(t *testing.T) {
	ps := &stubPostService{}
	err := NewQueue(ps).HandlePublishPostTask(context.Background(), asynq.NewTask(TaskTypePublishPost, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected SkipRetry, got %v", err)
	}
	if len(ps.calls) != 0 {
		t.Errorf("PublishNow called for a bad payload")
	}
}

func TestHandlePublishPostTaskIgnoresShutdown(t *testing.T) {
	ps := &stubPostService{post: &models.Post{ID: 3, Status: models.PostStatusPublished, RemotePostID: "rp_1"}}
	task, _ := NewPublishTask(PublishPostPayload{PostID: 3, UserID: 7})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewQueue(ps).HandlePublishPostTask(ctx, task); err != nil {
		t.Fatalf("HandlePublishPostTask error: %v", err)
	}
	if ps.ctxErr != nil {
		t.Errorf("publish ran with a cancelled context: %v", ps.ctxErr)
	}
}
