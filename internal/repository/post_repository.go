package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/igscheduler/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	// ListDue returns posts in status whose publish_at is at or before now,
	// oldest first, at most limit of them.
	ListDue(ctx context.Context, status models.PostStatus, now time.Time, limit int) ([]*models.Post, error)
	// ListStale returns posts still claimed by a publish attempt that started
	// at or before claimedBefore.
	ListStale(ctx context.Context, claimedBefore time.Time) ([]*models.Post, error)
	// Claim moves the post to publishing if its current status is one of from.
	// It reports false when another attempt got there first.
	Claim(ctx context.Context, postID int64, from []models.PostStatus, at time.Time) (bool, error)
	// Settle records the terminal status of the attempt that claimed the post
	// at claimedAt. It reports false when that claim is no longer held.
	Settle(ctx context.Context, postID int64, claimedAt time.Time, status models.PostStatus, upd models.StatusUpdate) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, account_id, caption, media_urls, media_kind, alt_text, status, publish_at, published_at, remote_post_id, error_message, claimed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post                                   models.Post
		caption, altText, remoteID, errMessage sql.NullString
		publishAt, publishedAt, claimedAt      sql.NullTime
	)
	err := row.Scan(&post.ID, &post.UserID, &post.AccountID, &caption, &post.MediaURLs, &post.MediaKind, &altText,
		&post.Status, &publishAt, &publishedAt, &remoteID, &errMessage, &claimedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Caption = caption.String
	post.AltText = altText.String
	post.RemotePostID = remoteID.String
	post.ErrorMessage = errMessage.String
	post.PublishAt = timePtr(publishAt)
	post.PublishedAt = timePtr(publishedAt)
	post.ClaimedAt = timePtr(claimedAt)
	return &post, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, account_id, caption, media_urls, media_kind, alt_text, status, publish_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		post.UserID,
		post.AccountID,
		nullString(post.Caption),
		post.MediaURLs,
		post.MediaKind,
		nullString(post.AltText),
		post.Status,
		post.PublishAt,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return post.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postRepository) ListDue(ctx context.Context, status models.PostStatus, now time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND publish_at <= $2 ORDER BY publish_at ASC LIMIT $3`
	return r.list(ctx, query, status, now, limit)
}

func (r *postRepository) ListStale(ctx context.Context, claimedBefore time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND claimed_at <= $2 ORDER BY claimed_at ASC`
	return r.list(ctx, query, models.PostStatusPublishing, claimedBefore)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) Claim(ctx context.Context, postID int64, from []models.PostStatus, at time.Time) (bool, error) {
	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	query := `UPDATE posts SET status = $2, claimed_at = $3, updated_at = $3 WHERE id = $1 AND status = ANY($4)`
	result, err := r.db.ExecContext(ctx, query, postID, models.PostStatusPublishing, at, pq.Array(statuses))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) Settle(ctx context.Context, postID int64, claimedAt time.Time, status models.PostStatus, upd models.StatusUpdate) (bool, error) {
	var (
		result sql.Result
		err    error
	)

	switch status {
	case models.PostStatusPublished:
		query := `UPDATE posts SET status = $2, remote_post_id = $3, published_at = $4, error_message = NULL, claimed_at = NULL, updated_at = NOW() WHERE id = $1 AND status = 'publishing' AND claimed_at = $5`
		result, err = r.db.ExecContext(ctx, query, postID, status, upd.RemotePostID, upd.PublishedAt, claimedAt)
	case models.PostStatusFailed:
		query := `UPDATE posts SET status = $2, error_message = $3, claimed_at = NULL, updated_at = NOW() WHERE id = $1 AND status = 'publishing' AND claimed_at = $4`
		result, err = r.db.ExecContext(ctx, query, postID, status, upd.ErrorMessage, claimedAt)
	default:
		err = fmt.Errorf("post %d cannot be settled as %s", postID, status)
	}
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}
