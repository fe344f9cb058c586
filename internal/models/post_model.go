package models

import (
	"time"

	"github.com/lib/pq"
)

type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing" // claimed by an in-flight publish attempt
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

type Post struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	AccountID    int64          `db:"account_id" json:"account_id"`
	Caption      string         `db:"caption" json:"caption"`
	MediaURLs    pq.StringArray `db:"media_urls" json:"media_urls"`
	MediaKind    MediaKind      `db:"media_kind" json:"media_kind"`
	AltText      string         `db:"alt_text" json:"alt_text,omitempty"`
	Status       PostStatus     `db:"status" json:"status"`
	PublishAt    *time.Time     `db:"publish_at" json:"publish_at,omitempty"`
	PublishedAt  *time.Time     `db:"published_at" json:"published_at,omitempty"`
	RemotePostID string         `db:"remote_post_id" json:"remote_post_id,omitempty"`
	ErrorMessage string         `db:"error_message" json:"error_message,omitempty"`
	ClaimedAt    *time.Time     `db:"claimed_at" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// StatusUpdate carries the terminal fields written together with a status.
type StatusUpdate struct {
	RemotePostID string
	PublishedAt  *time.Time
	ErrorMessage string
}

// InitialStatus is scheduled when a publish time was given, draft otherwise.
func InitialStatus(publishAt *time.Time) PostStatus {
	if publishAt != nil {
		return PostStatusScheduled
	}
	return PostStatusDraft
}

// Media builds the publishable media of a stored post.
func (p *Post) Media() (Media, error) {
	return NewMedia(p.MediaKind, p.MediaURLs, p.AltText)
}
