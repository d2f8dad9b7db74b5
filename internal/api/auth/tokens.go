package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// TokenService handles refresh token operations. Only the sha256 hash of a
// refresh token is ever stored; the plaintext goes to the client once.
type TokenService struct {
	storage storage.Storage
	ttl     time.Duration
}

// NewTokenService creates a new token service.
func NewTokenService(store storage.Storage, ttl time.Duration) *TokenService {
	return &TokenService{
		storage: store,
		ttl:     ttl,
	}
}

// CreateRefreshToken creates and stores a new refresh token for the user.
// Returns the plaintext token to send to the client.
func (s *TokenService) CreateRefreshToken(ctx context.Context, userID string) (string, error) {
	token, plainToken, err := models.NewRefreshToken(userID, s.ttl)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.storage.Tokens().Create(ctx, token); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}

	return plainToken, nil
}

// ValidateRefreshToken validates a refresh token and returns the associated user.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, plainToken string) (*models.User, error) {
	token, err := s.storage.Tokens().GetByTokenHash(ctx, models.HashToken(plainToken))
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if token == nil || !token.IsValid() {
		return nil, fmt.Errorf("token unknown, expired, or revoked")
	}

	user, err := s.storage.Users().GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// RevokeRefreshToken revokes a refresh token.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, plainToken string) error {
	return s.storage.Tokens().RevokeByTokenHash(ctx, models.HashToken(plainToken))
}

// RotateRefreshToken revokes the old token and creates a new one. Revocation
// failure is not fatal; the old token may already be revoked.
func (s *TokenService) RotateRefreshToken(ctx context.Context, oldPlainToken string, userID string) (string, error) {
	_ = s.RevokeRefreshToken(ctx, oldPlainToken)
	return s.CreateRefreshToken(ctx, userID)
}

// StartCleanup deletes expired and revoked tokens on the given interval
// until the context is canceled.
func (s *TokenService) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.storage.Tokens().DeleteExpired(ctx)
			if err != nil {
				log.Printf("token cleanup error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("token cleanup: removed %d expired tokens", n)
			}
		}
	}
}
