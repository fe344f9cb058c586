package job

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/repository"
	"github.com/maheshrc27/igscheduler/internal/service"
)

// PublishJob publishes scheduled posts whose publish time has passed. Due
// posts are handled one after another; a failing post does not stop the
// rest of the batch.
type PublishJob struct {
	pr        repository.PostRepository
	ps        service.PostService
	batchSize int
	now       func() time.Time
	running   atomic.Bool
}

func NewPublishJob(pr repository.PostRepository, ps service.PostService, batchSize int) *PublishJob {
	return &PublishJob{
		pr:        pr,
		ps:        ps,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// PublishDuePosts is the cron entry point.
func (j *PublishJob) PublishDuePosts() {
	j.Run(context.Background())
}

// Run processes one batch of due posts. It returns false without doing
// anything when the previous run is still in progress.
func (j *PublishJob) Run(ctx context.Context) bool {
	if !j.running.CompareAndSwap(false, true) {
		slog.Info("previous publish run still in progress, skipping tick")
		return false
	}
	defer j.running.Store(false)

	posts, err := j.pr.ListDue(ctx, models.PostStatusScheduled, j.now(), j.batchSize)
	if err != nil {
		slog.Error("error listing due posts", "error", err.Error())
		return true
	}
	if len(posts) == 0 {
		return true
	}

	slog.Info("publishing due posts", "count", len(posts))
	for _, post := range posts {
		if err := j.ps.PublishDue(ctx, post); err != nil {
			slog.Info("scheduled publish failed", "post_id", post.ID, "error", err.Error())
			continue
		}
		slog.Info("scheduled post published", "post_id", post.ID, "remote_post_id", post.RemotePostID)
	}
	return true
}
