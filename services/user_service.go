package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nftbrawl/arena-bot/models"
	"github.com/nftbrawl/arena-bot/repositories"
)

const (
	// DailyTokens is the balance every user is topped back up to by the
	// daily refresh job.
	DailyTokens = 3
	// HostCooldown is the minimum spacing between battles hosted by the
	// same user.
	HostCooldown = 1 * time.Hour
)

// UserService owns battle-token accounting and wallet linkage on top of the
// user-record store.
type UserService struct {
	repo repositories.UserRepository
	log  *slog.Logger
}

func NewUserService(repo repositories.UserRepository, log *slog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// SpendHostToken debits one token and stamps the hosting cooldown. Fails
// with ErrOnCooldown or ErrNoTokens without mutating the record.
func (s *UserService) SpendHostToken(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetOrCreate(ctx, userID, DailyTokens)
	if err != nil {
		return nil, err
	}
	if user.CooldownUntil != nil && user.CooldownUntil.After(time.Now()) {
		return nil, ErrOnCooldown
	}
	if user.Tokens <= 0 {
		return nil, ErrNoTokens
	}

	tokens := user.Tokens - 1
	until := time.Now().Add(HostCooldown)
	return s.repo.Patch(ctx, userID, models.UserPatch{Tokens: &tokens, CooldownUntil: &until})
}

// RefundHostToken returns a token after a battle that never started (e.g.
// the bracket legality gate rejected it). Best-effort.
func (s *UserService) RefundHostToken(ctx context.Context, userID string) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.log.Warn("token refund lookup failed", slog.String("user", userID), slog.Any("error", err))
		return
	}
	tokens := user.Tokens + 1
	if _, err := s.repo.Patch(ctx, userID, models.UserPatch{Tokens: &tokens}); err != nil {
		s.log.Warn("token refund failed", slog.String("user", userID), slog.Any("error", err))
	}
}

// LinkWallet records a verified wallet address on the user.
func (s *UserService) LinkWallet(ctx context.Context, userID, address string) error {
	if _, err := s.repo.GetOrCreate(ctx, userID, DailyTokens); err != nil {
		return err
	}
	_, err := s.repo.Patch(ctx, userID, models.UserPatch{WalletAddress: &address})
	return err
}

// VerifiedWallet returns the user's linked wallet, or ErrMissingWallet.
func (s *UserService) VerifiedWallet(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrMissingWallet
		}
		return "", err
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return "", ErrMissingWallet
	}
	return *user.WalletAddress, nil
}
