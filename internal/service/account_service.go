package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	config "github.com/maheshrc27/igscheduler/configs"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/repository"
	"github.com/maheshrc27/igscheduler/pkg/utils"
)

type AccountService interface {
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	// Connect stores an Instagram business account with its page token
	// encrypted. Connecting the same account again replaces the token.
	Connect(ctx context.Context, userID int64, instagramUserID, username, token string, expiresAt time.Time) (*models.SocialAccount, error)
}

type accountService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewAccountService(cfg config.Config, sa repository.SocialAccountRepository) AccountService {
	return &accountService{cfg: cfg, sa: sa}
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing instagram accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) Connect(ctx context.Context, userID int64, instagramUserID, username, token string, expiresAt time.Time) (*models.SocialAccount, error) {
	if userID <= 0 || strings.TrimSpace(instagramUserID) == "" || token == "" {
		return nil, fmt.Errorf("%w: user, instagram account id and token are required", ErrValidation)
	}

	encrypted, err := utils.EncryptToken(token, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("error encrypting access token: %w", err)
	}

	account := &models.SocialAccount{
		UserID:          userID,
		AccountID:       instagramUserID,
		AccountUsername: username,
		AccessToken:     encrypted,
		TokenExpiresAt:  expiresAt,
	}
	if _, err := s.sa.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("error saving instagram account: %w", err)
	}

	account.AccessToken = ""
	return account, nil
}
