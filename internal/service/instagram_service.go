package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/transfer"
)

// MediaPublisher turns media into a published Instagram post and returns the
// remote post id. A call is not idempotent: retrying after a failure creates
// new containers.
type MediaPublisher interface {
	Publish(ctx context.Context, accountID int64, media models.Media, caption string) (string, error)
}

type instagramPublisher struct {
	creds      CredentialStore
	graph      *GraphClient
	policy     RetryPolicy
	quotaCheck bool
}

func NewInstagramPublisher(creds CredentialStore, graph *GraphClient, policy RetryPolicy, quotaCheck bool) MediaPublisher {
	return &instagramPublisher{
		creds:      creds,
		graph:      graph,
		policy:     policy.withDefaults(),
		quotaCheck: quotaCheck,
	}
}

func (s *instagramPublisher) Publish(ctx context.Context, accountID int64, media models.Media, caption string) (string, error) {
	if media == nil {
		return "", fmt.Errorf("%w: no media", ErrValidation)
	}

	cred, err := s.creds.Resolve(ctx, accountID)
	if err != nil {
		return "", err
	}

	if s.quotaCheck {
		if err := s.checkQuota(ctx, cred); err != nil {
			return "", err
		}
	}

	var containerID string
	switch m := media.(type) {
	case models.SingleMedia:
		containerID, err = s.createSingle(ctx, cred, m, caption)
		if err != nil {
			return "", fmt.Errorf("failed to create %s container: %w", m.Kind(), err)
		}
	case models.CarouselMedia:
		containerID, err = s.createCarousel(ctx, cred, m, caption)
		if err != nil {
			return "", fmt.Errorf("failed to create carousel container: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: unsupported media %T", ErrValidation, media)
	}

	if err := s.waitForContainer(ctx, cred, containerID); err != nil {
		return "", err
	}

	remoteID, err := s.graph.PublishContainer(ctx, cred, containerID)
	if err != nil {
		return "", fmt.Errorf("failed to publish container %s: %w", containerID, err)
	}

	slog.Info("published instagram media", "account_id", accountID, "container_id", containerID, "remote_post_id", remoteID)
	return remoteID, nil
}

func (s *instagramPublisher) checkQuota(ctx context.Context, cred *transfer.Credential) error {
	usage, total, err := s.graph.PublishingLimit(ctx, cred)
	if err != nil {
		return fmt.Errorf("failed to check publishing limit: %w", err)
	}
	if total > 0 && usage >= total {
		return fmt.Errorf("%w: %d of %d posts used", ErrRateLimitExceeded, usage, total)
	}
	return nil
}

func (s *instagramPublisher) createSingle(ctx context.Context, cred *transfer.Credential, m models.SingleMedia, caption string) (string, error) {
	payload := transfer.ContainerRequest{Caption: caption}
	if m.Item.Kind.IsVideo() {
		payload.VideoURL = m.Item.URL
		payload.MediaType = string(m.Item.Kind)
	} else {
		payload.ImageURL = m.Item.URL
		payload.AltText = m.AltText
	}
	return s.graph.CreateContainer(ctx, cred, payload)
}

// createCarousel creates one child container per item, in order, then the
// parent that carries the caption.
func (s *instagramPublisher) createCarousel(ctx context.Context, cred *transfer.Credential, m models.CarouselMedia, caption string) (string, error) {
	childIDs := make([]string, 0, len(m.Children))
	for i, item := range m.Children {
		payload := transfer.ContainerRequest{IsCarouselItem: true}
		if item.Kind.IsVideo() {
			payload.VideoURL = item.URL
			payload.MediaType = string(models.MediaKindVideo)
		} else {
			payload.ImageURL = item.URL
		}

		childID, err := s.graph.CreateContainer(ctx, cred, payload)
		if err != nil {
			return "", fmt.Errorf("carousel item %d: %w", i, err)
		}
		childIDs = append(childIDs, childID)
	}

	return s.graph.CreateContainer(ctx, cred, transfer.ContainerRequest{
		MediaType: string(models.MediaKindCarousel),
		Caption:   caption,
		Children:  strings.Join(childIDs, ","),
	})
}

// waitForContainer polls the container until it is FINISHED, fails, or the
// retry policy runs out of attempts.
func (s *instagramPublisher) waitForContainer(ctx context.Context, cred *transfer.Credential, containerID string) error {
	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		status, err := s.graph.ContainerStatus(ctx, cred, containerID)
		if err != nil {
			return fmt.Errorf("failed to read status of container %s: %w", containerID, err)
		}

		switch status {
		case transfer.ContainerFinished:
			return nil
		case transfer.ContainerError, transfer.ContainerExpired:
			return fmt.Errorf("%w: %s", ErrMediaProcessingFailed, status)
		}

		if attempt < s.policy.MaxAttempts-1 {
			if err := s.policy.sleep(ctx, attempt); err != nil {
				return err
			}
		}
	}

	return ErrMediaProcessingTimeout
}
