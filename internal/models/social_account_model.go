package models

import (
	"time"
)

// SocialAccount is a connected Instagram business account. AccessToken holds
// the encrypted page token; it never leaves the service layer in plaintext.
type SocialAccount struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	AccountID       string    `db:"instagram_business_account_id" json:"account_id"`
	AccountUsername string    `db:"account_username" json:"account_username"`
	AccessToken     string    `db:"page_access_token_encrypted" json:"-"`
	TokenExpiresAt  time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
