package queue

import (
	"github.com/maheshrc27/igscheduler/internal/service"
)

// Queue runs publish tasks taken from the asynq server.
type Queue struct {
	ps service.PostService
}

func NewQueue(ps service.PostService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
}
