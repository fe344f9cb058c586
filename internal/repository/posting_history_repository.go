package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/igscheduler/internal/models"
)

type PostingHistoryRepository interface {
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
	GetByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error)
	// LatestRemotePostID returns the remote id recorded by the most recent
	// successful attempt of the post, or "" if none succeeded.
	LatestRemotePostID(ctx context.Context, postID int64) (string, error)
}

type postingHistoryRepository struct {
	db *sql.DB
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{db: db}
}

func (r *postingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	query := `
		INSERT INTO posting_history (user_id, post_id, account_id, remote_post_id, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ph.UserID, ph.PostID, ph.AccountID,
		nullString(ph.RemotePostID), nullString(ph.ErrorMessage)).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postingHistoryRepository) GetByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	query := `SELECT id, user_id, post_id, account_id, remote_post_id, error_message, created_at FROM posting_history WHERE post_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var phs []*models.PostingHistory
	for rows.Next() {
		var ph models.PostingHistory
		var remoteID, errMessage sql.NullString
		err := rows.Scan(&ph.ID, &ph.UserID, &ph.PostID, &ph.AccountID, &remoteID, &errMessage, &ph.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ph.RemotePostID = remoteID.String
		ph.ErrorMessage = errMessage.String
		phs = append(phs, &ph)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return phs, nil
}

func (r *postingHistoryRepository) LatestRemotePostID(ctx context.Context, postID int64) (string, error) {
	query := `SELECT remote_post_id FROM posting_history WHERE post_id = $1 AND remote_post_id IS NOT NULL ORDER BY id DESC LIMIT 1`

	var remoteID string
	err := r.db.QueryRowContext(ctx, query, postID).Scan(&remoteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		slog.Info(err.Error())
		return "", err
	}
	return remoteID, nil
}
