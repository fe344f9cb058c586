package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/repository"
	"github.com/maheshrc27/igscheduler/internal/transfer"
)

const maxCaptionLength = 2200

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	// PublishNow publishes a draft, scheduled or failed post of the user right
	// away. When the remote publish fails the returned post is the failed one
	// and the error is the publish error.
	PublishNow(ctx context.Context, postID, userID int64) (*models.Post, error)
	// PublishDue publishes a scheduled post picked by the scheduler.
	PublishDue(ctx context.Context, post *models.Post) error
	// ReconcileStale settles posts left in publishing by an attempt that never
	// finished. It returns how many posts were settled.
	ReconcileStale(ctx context.Context, claimedBefore time.Time) (int, error)
}

type postService struct {
	pr  repository.PostRepository
	ph  repository.PostingHistoryRepository
	ac  repository.SocialAccountRepository
	pub MediaPublisher
	now func() time.Time
}

func NewPostService(
	pr repository.PostRepository,
	ph repository.PostingHistoryRepository,
	ac repository.SocialAccountRepository,
	pub MediaPublisher) PostService {
	return &postService{
		pr:  pr,
		ph:  ph,
		ac:  ac,
		pub: pub,
		now: time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		err := fmt.Errorf("%w: post creation data is nil", ErrValidation)
		slog.Error(err.Error())
		return nil, err
	}
	if utf8.RuneCountInString(pc.Caption) > maxCaptionLength {
		return nil, fmt.Errorf("%w: caption is longer than %d characters", ErrValidation, maxCaptionLength)
	}

	kind, err := resolveMediaKind(pc.MediaKind, pc.MediaURLs)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if _, err := models.NewMedia(kind, pc.MediaURLs, pc.AltText); err != nil {
		err = validationError(err)
		slog.Info(err.Error())
		return nil, err
	}

	var publishAt *time.Time
	if pc.PublishAt != "" {
		t, err := time.Parse(time.RFC3339, pc.PublishAt)
		if err != nil {
			err = fmt.Errorf("%w: invalid publish_at format: %v", ErrValidation, err)
			slog.Info(err.Error())
			return nil, err
		}
		publishAt = &t
	}

	accountID, err := s.resolveAccount(ctx, userID, pc.AccountID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:    userID,
		AccountID: accountID,
		Caption:   pc.Caption,
		MediaURLs: pc.MediaURLs,
		MediaKind: kind,
		Status:    models.InitialStatus(publishAt),
		PublishAt: publishAt,
	}
	if kind == models.MediaKindImage {
		post.AltText = pc.AltText
	}

	if _, err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

// resolveMediaKind parses an explicit kind, or infers one: several URLs make a
// carousel, a single URL is an image or a video by its extension.
func resolveMediaKind(kind string, urls []string) (models.MediaKind, error) {
	if strings.TrimSpace(kind) == "" {
		if len(urls) > 1 {
			return models.MediaKindCarousel, nil
		}
		if len(urls) == 1 {
			return models.KindFromURL(urls[0]), nil
		}
		return "", fmt.Errorf("%w: media url is required", ErrValidation)
	}

	k, ok := models.ParseMediaKind(kind)
	if !ok {
		return "", fmt.Errorf("%w: unsupported media kind %q", ErrValidation, kind)
	}
	return k, nil
}

// resolveAccount checks the account belongs to the user. Without an explicit
// account the user's first connected account is used.
func (s *postService) resolveAccount(ctx context.Context, userID, accountID int64) (int64, error) {
	if accountID == 0 {
		accounts, err := s.ac.ListByUserID(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("error listing instagram accounts: %w", err)
		}
		if len(accounts) == 0 {
			slog.Info("no instagram account connected", "user_id", userID)
			return 0, ErrAccountNotFound
		}
		return accounts[0].ID, nil
	}

	ok, err := s.ac.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return 0, fmt.Errorf("error checking instagram account %d: %w", accountID, err)
	}
	if !ok {
		return 0, ErrAccountNotFound
	}
	return accountID, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if userID == 0 || postID == 0 {
		return nil, ErrNotFound
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil || post.UserID != userID {
		return nil, ErrNotFound
	}

	return post, nil
}

func (s *postService) PublishNow(ctx context.Context, postID, userID int64) (*models.Post, error) {
	post, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	switch post.Status {
	case models.PostStatusPublished:
		return post, ErrAlreadyPublished
	case models.PostStatusPublishing:
		return post, ErrPublishInProgress
	}

	media, err := post.Media()
	if err != nil {
		return post, validationError(err)
	}

	from := []models.PostStatus{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed}
	return s.publish(ctx, post, media, from)
}

func (s *postService) PublishDue(ctx context.Context, post *models.Post) error {
	media, err := post.Media()
	if err != nil {
		// Stored media no longer validates; fail the post so it is not picked
		// again on every tick.
		err = validationError(err)
		claimedAt := s.claimTime()
		claimed, claimErr := s.pr.Claim(ctx, post.ID, []models.PostStatus{models.PostStatusScheduled}, claimedAt)
		if claimErr != nil || !claimed {
			return err
		}
		if failErr := s.fail(ctx, post, claimedAt, err); failErr != nil {
			return errors.Join(err, failErr)
		}
		return err
	}

	_, err = s.publish(ctx, post, media, []models.PostStatus{models.PostStatusScheduled})
	return err
}

// claimTime is the claim stamp of a new attempt, at the precision postgres
// keeps so that Settle can match it.
func (s *postService) claimTime() time.Time {
	return s.now().Truncate(time.Microsecond)
}

// publish claims the post, runs the remote publish and records the outcome
// with a single status update guarded by the claim.
func (s *postService) publish(ctx context.Context, post *models.Post, media models.Media, from []models.PostStatus) (*models.Post, error) {
	claimedAt := s.claimTime()
	claimed, err := s.pr.Claim(ctx, post.ID, from, claimedAt)
	if err != nil {
		return post, fmt.Errorf("%w: claim post %d: %v", ErrStore, post.ID, err)
	}
	if !claimed {
		slog.Info("post already claimed by another publish attempt", "post_id", post.ID)
		return post, ErrPublishInProgress
	}
	post.Status = models.PostStatusPublishing
	post.ClaimedAt = &claimedAt

	remoteID, pubErr := s.pub.Publish(ctx, post.AccountID, media, post.Caption)
	s.recordAttempt(ctx, post, remoteID, pubErr)

	if pubErr != nil {
		slog.Info("publish failed", "post_id", post.ID, "error", pubErr.Error())
		if err := s.fail(ctx, post, claimedAt, pubErr); err != nil {
			return post, err
		}
		return post, pubErr
	}

	publishedAt := s.now()
	upd := models.StatusUpdate{RemotePostID: remoteID, PublishedAt: &publishedAt}
	settled, err := s.pr.Settle(ctx, post.ID, claimedAt, models.PostStatusPublished, upd)
	if err != nil {
		slog.Error("remote post created but status update failed", "post_id", post.ID, "remote_post_id", remoteID, "error", err.Error())
		return post, fmt.Errorf("%w: post %d published as %s: %v", ErrStore, post.ID, remoteID, err)
	}
	if !settled {
		slog.Error("remote post created after the claim was lost", "post_id", post.ID, "remote_post_id", remoteID, "claimed_at", claimedAt)
		return post, fmt.Errorf("%w: post %d published as %s", ErrClaimLost, post.ID, remoteID)
	}

	post.Status = models.PostStatusPublished
	post.RemotePostID = remoteID
	post.PublishedAt = &publishedAt
	post.ErrorMessage = ""
	post.ClaimedAt = nil
	return post, nil
}

// fail records cause on the post claimed at claimedAt. The remote post id is
// left untouched.
func (s *postService) fail(ctx context.Context, post *models.Post, claimedAt time.Time, cause error) error {
	msg := FailureMessage(cause)
	settled, err := s.pr.Settle(ctx, post.ID, claimedAt, models.PostStatusFailed, models.StatusUpdate{ErrorMessage: msg})
	if err != nil {
		slog.Error("failed to record publish failure", "post_id", post.ID, "error", err.Error())
		return fmt.Errorf("%w: post %d: %v", ErrStore, post.ID, err)
	}
	if !settled {
		slog.Error("publish failure not recorded, claim was lost", "post_id", post.ID, "claimed_at", claimedAt, "error", msg)
		return fmt.Errorf("%w: post %d", ErrClaimLost, post.ID)
	}

	post.Status = models.PostStatusFailed
	post.ErrorMessage = msg
	post.ClaimedAt = nil
	return nil
}

func (s *postService) recordAttempt(ctx context.Context, post *models.Post, remoteID string, pubErr error) {
	ph := &models.PostingHistory{
		UserID:       post.UserID,
		PostID:       post.ID,
		AccountID:    post.AccountID,
		RemotePostID: remoteID,
	}
	if pubErr != nil {
		ph.ErrorMessage = FailureMessage(pubErr)
	}
	if _, err := s.ph.Create(ctx, ph); err != nil {
		slog.Error("error saving posting history", "post_id", post.ID, "error", err.Error())
	}
}

func (s *postService) ReconcileStale(ctx context.Context, claimedBefore time.Time) (int, error) {
	posts, err := s.pr.ListStale(ctx, claimedBefore)
	if err != nil {
		return 0, fmt.Errorf("error listing stale posts: %w", err)
	}

	settled := 0
	for _, post := range posts {
		remoteID, err := s.ph.LatestRemotePostID(ctx, post.ID)
		if err != nil {
			slog.Error("error reading posting history", "post_id", post.ID, "error", err.Error())
			continue
		}

		claimedAt := *post.ClaimedAt
		if remoteID != "" {
			publishedAt := s.now()
			upd := models.StatusUpdate{RemotePostID: remoteID, PublishedAt: &publishedAt}
			var ok bool
			ok, err = s.pr.Settle(ctx, post.ID, claimedAt, models.PostStatusPublished, upd)
			if err == nil && !ok {
				err = fmt.Errorf("%w: post %d", ErrClaimLost, post.ID)
			}
		} else {
			err = s.fail(ctx, post, claimedAt, errors.New("publish attempt interrupted"))
		}
		if errors.Is(err, ErrClaimLost) {
			slog.Info("stale post settled by its own attempt", "post_id", post.ID)
			continue
		}
		if err != nil {
			slog.Error("error settling stale post", "post_id", post.ID, "error", err.Error())
			continue
		}

		slog.Info("settled stale post", "post_id", post.ID, "remote_post_id", remoteID)
		settled++
	}
	return settled, nil
}
