// Package repositorytest provides in-memory repositories with the same
// semantics as the postgres ones, for service and job tests.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/igscheduler/internal/models"
)

// PostStore implements repository.PostRepository and
// repository.PostingHistoryRepository.
type PostStore struct {
	mu      sync.Mutex
	nextID  int64
	posts   map[int64]*models.Post
	history []*models.PostingHistory

	// FailUpdates makes Settle return an error.
	FailUpdates bool
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[int64]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.MediaURLs = slices.Clone(p.MediaURLs)
	return &c
}

func (s *PostStore) Create(_ context.Context, post *models.Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now()
	post.ID = s.nextID
	post.CreatedAt = now
	post.UpdatedAt = now
	s.posts[post.ID] = clonePost(post)
	return post.ID, nil
}

func (s *PostStore) GetByID(_ context.Context, id int64) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (s *PostStore) GetByUserID(_ context.Context, userID int64) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Post
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *PostStore) ListDue(_ context.Context, status models.PostStatus, now time.Time, limit int) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Post
	for _, p := range s.posts {
		if p.Status == status && p.PublishAt != nil && !p.PublishAt.After(now) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishAt.Equal(*out[j].PublishAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PublishAt.Before(*out[j].PublishAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *PostStore) ListStale(_ context.Context, claimedBefore time.Time) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Post
	for _, p := range s.posts {
		if p.Status == models.PostStatusPublishing && p.ClaimedAt != nil && !p.ClaimedAt.After(claimedBefore) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimedAt.Before(*out[j].ClaimedAt) })
	return out, nil
}

func (s *PostStore) Claim(_ context.Context, postID int64, from []models.PostStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || !slices.Contains(from, p.Status) {
		return false, nil
	}
	p.Status = models.PostStatusPublishing
	p.ClaimedAt = &at
	p.UpdatedAt = at
	return true, nil
}

func (s *PostStore) Settle(_ context.Context, postID int64, claimedAt time.Time, status models.PostStatus, upd models.StatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpdates {
		return false, errors.New("store unavailable")
	}
	if status != models.PostStatusPublished && status != models.PostStatusFailed {
		return false, fmt.Errorf("post %d cannot be settled as %s", postID, status)
	}

	p, ok := s.posts[postID]
	if !ok || p.Status != models.PostStatusPublishing || p.ClaimedAt == nil || !p.ClaimedAt.Equal(claimedAt) {
		return false, nil
	}

	p.Status = status
	p.ClaimedAt = nil
	p.UpdatedAt = time.Now()
	switch status {
	case models.PostStatusPublished:
		p.RemotePostID = upd.RemotePostID
		p.PublishedAt = upd.PublishedAt
		p.ErrorMessage = ""
	case models.PostStatusFailed:
		p.ErrorMessage = upd.ErrorMessage
	}
	return true, nil
}

// Put stores a post as-is, keeping its ID. Useful to seed edge states.
func (s *PostStore) Put(post *models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID > s.nextID {
		s.nextID = post.ID
	}
	s.posts[post.ID] = clonePost(post)
}

// History implements repository.PostingHistoryRepository on the same store.
func (s *PostStore) History() *HistoryStore {
	return &HistoryStore{s: s}
}

type HistoryStore struct {
	s *PostStore
}

func (h *HistoryStore) Create(_ context.Context, ph *models.PostingHistory) (int64, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	c := *ph
	c.ID = int64(len(h.s.history) + 1)
	c.CreatedAt = time.Now()
	h.s.history = append(h.s.history, &c)
	return c.ID, nil
}

func (h *HistoryStore) GetByPostID(_ context.Context, postID int64) ([]*models.PostingHistory, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	var out []*models.PostingHistory
	for _, ph := range h.s.history {
		if ph.PostID == postID {
			c := *ph
			out = append(out, &c)
		}
	}
	return out, nil
}

func (h *HistoryStore) LatestRemotePostID(_ context.Context, postID int64) (string, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	for i := len(h.s.history) - 1; i >= 0; i-- {
		if ph := h.s.history[i]; ph.PostID == postID && ph.RemotePostID != "" {
			return ph.RemotePostID, nil
		}
	}
	return "", nil
}

// AccountStore implements repository.SocialAccountRepository.
type AccountStore struct {
	mu       sync.Mutex
	accounts []*models.SocialAccount
}

func NewAccountStore(accounts ...*models.SocialAccount) *AccountStore {
	return &AccountStore{accounts: accounts}
}

func (a *AccountStore) GetByID(_ context.Context, id int64) (*models.SocialAccount, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, acc := range a.accounts {
		if acc.ID == id {
			c := *acc
			return &c, nil
		}
	}
	return nil, nil
}

func (a *AccountStore) ListByUserID(_ context.Context, userID int64) ([]*models.SocialAccount, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*models.SocialAccount
	for _, acc := range a.accounts {
		if acc.UserID == userID {
			c := *acc
			c.AccessToken = ""
			out = append(out, &c)
		}
	}
	return out, nil
}

func (a *AccountStore) CheckByUserID(_ context.Context, accountID, userID int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, acc := range a.accounts {
		if acc.ID == accountID && acc.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (a *AccountStore) Upsert(_ context.Context, sa *models.SocialAccount) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, acc := range a.accounts {
		if acc.UserID == sa.UserID && acc.AccountID == sa.AccountID {
			acc.AccountUsername = sa.AccountUsername
			acc.AccessToken = sa.AccessToken
			acc.TokenExpiresAt = sa.TokenExpiresAt
			acc.UpdatedAt = time.Now()
			sa.ID = acc.ID
			return acc.ID, nil
		}
	}

	c := *sa
	c.ID = int64(len(a.accounts) + 1)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	a.accounts = append(a.accounts, &c)
	sa.ID = c.ID
	return c.ID, nil
}
