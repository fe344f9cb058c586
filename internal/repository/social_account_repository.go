package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/igscheduler/internal/models"
)

type SocialAccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT id, user_id, instagram_business_account_id, account_username, page_access_token_encrypted, token_expires_at, created_at, updated_at FROM instagram_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sa models.SocialAccount
	var expiresAt sql.NullTime
	err := row.Scan(&sa.ID, &sa.UserID, &sa.AccountID, &sa.AccountUsername, &sa.AccessToken,
		&expiresAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	sa.TokenExpiresAt = expiresAt.Time

	return &sa, nil
}

// ListByUserID returns the user's accounts without their tokens, oldest first.
func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT id, user_id, instagram_business_account_id, account_username, token_expires_at, created_at, updated_at FROM instagram_accounts WHERE user_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		var expiresAt sql.NullTime
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.AccountID, &sa.AccountUsername,
			&expiresAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sa.TokenExpiresAt = expiresAt.Time
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := "SELECT 1 FROM instagram_accounts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// Upsert connects an account, or refreshes its username and token when the user
// already connected it.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO instagram_accounts
		(user_id, instagram_business_account_id, account_username, page_access_token_encrypted, token_expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, instagram_business_account_id)
		DO UPDATE SET account_username = EXCLUDED.account_username,
			page_access_token_encrypted = EXCLUDED.page_access_token_encrypted,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	var expiresAt sql.NullTime
	if !sa.TokenExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: sa.TokenExpiresAt, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, sa.UserID, sa.AccountID, sa.AccountUsername, sa.AccessToken, expiresAt).
		Scan(&sa.ID, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return sa.ID, nil
}
