package service

import (
	"context"
	"fmt"

	config "github.com/maheshrc27/igscheduler/configs"
	"github.com/maheshrc27/igscheduler/internal/repository"
	"github.com/maheshrc27/igscheduler/internal/transfer"
	"github.com/maheshrc27/igscheduler/pkg/utils"
)

// CredentialStore resolves a connected account to the Instagram user id and
// token a publish runs with.
type CredentialStore interface {
	Resolve(ctx context.Context, accountID int64) (*transfer.Credential, error)
}

type credentialStore struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewCredentialStore(cfg config.Config, sa repository.SocialAccountRepository) CredentialStore {
	return &credentialStore{cfg: cfg, sa: sa}
}

func (s *credentialStore) Resolve(ctx context.Context, accountID int64) (*transfer.Credential, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving instagram account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	token, err := utils.DecryptToken(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("error decrypting token for account %d: %w", accountID, err)
	}

	return &transfer.Credential{
		InstagramUserID: account.AccountID,
		AccessToken:     token,
	}, nil
}
