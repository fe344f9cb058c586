package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/queue"
	"github.com/maheshrc27/igscheduler/internal/service"
	"github.com/maheshrc27/igscheduler/internal/transfer"
)

type PostHandler struct {
	s service.PostService
	q queue.Enqueuer
}

// NewPostHandler builds the post routes. q may be nil, which disables async
// publishing.
func NewPostHandler(service service.PostService, q queue.Enqueuer) *PostHandler {
	return &PostHandler{s: service, q: q}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.CreatePost(c.UserContext(), userID, &pc)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.UserContext(), int64(postID), userID)
		if err != nil {
			return sendError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.UserContext(), userID)
	if err != nil {
		return sendError(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil || postID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if c.QueryBool("async") {
		return h.enqueuePublish(c, int64(postID), userID)
	}

	// A started attempt runs to completion even if the server shuts down.
	ctx := context.WithoutCancel(c.UserContext())
	post, err := h.s.PublishNow(ctx, int64(postID), userID)
	if err != nil {
		if post != nil && post.Status == models.PostStatusFailed {
			return c.Status(errorStatus(err)).JSON(fiber.Map{
				"error": post.ErrorMessage,
				"post":  post,
			})
		}
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) enqueuePublish(c *fiber.Ctx, postID, userID int64) error {
	if h.q == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Background publishing is not enabled",
		})
	}

	post, err := h.s.PostInfo(c.UserContext(), postID, userID)
	if err != nil {
		return sendError(c, err)
	}
	switch post.Status {
	case models.PostStatusPublished:
		return sendError(c, service.ErrAlreadyPublished)
	case models.PostStatusPublishing:
		return sendError(c, service.ErrPublishInProgress)
	}

	taskID, err := h.q.EnqueuePublish(context.WithoutCancel(c.UserContext()), queue.PublishPostPayload{PostID: postID, UserID: userID})
	if err != nil {
		slog.Error("error enqueuing publish", "post_id", postID, "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling publish",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Publish queued",
		"task_id": taskID,
	})
}
