package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/farellandr/eventboard/internal/metrics"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/tokens"
)

// Authenticator resolves a bearer token to a user. A token must carry a
// valid signature and expiry, must not be blacklisted, and must name a
// user that still exists.
type Authenticator struct {
	tokens    *tokens.Manager
	blacklist *BlacklistService
	users     *UserService
	metrics   *metrics.Metrics
}

func NewAuthenticator(tm *tokens.Manager, blacklist *BlacklistService, users *UserService, m *metrics.Metrics) *Authenticator {
	return &Authenticator{tokens: tm, blacklist: blacklist, users: users, metrics: m}
}

func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*models.User, *tokens.Claims, error) {
	const op = "services.Authenticator.Authenticate"

	if raw == "" {
		a.metrics.AuthFailed("missing")
		return nil, nil, ErrInvalidToken
	}

	claims, err := a.tokens.Parse(raw)
	if err != nil {
		a.metrics.AuthFailed("invalid")
		return nil, nil, ErrInvalidToken
	}

	revoked, err := a.blacklist.IsBlacklisted(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		a.metrics.AuthFailed("blacklisted")
		return nil, nil, ErrTokenRevoked
	}

	user, err := a.users.Get(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		a.metrics.AuthFailed("unknown_user")
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, claims, nil
}

// IssueToken signs a fresh access token for user.
func (a *Authenticator) IssueToken(user *models.User) (string, error) {
	const op = "services.Authenticator.IssueToken"

	raw, _, err := a.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return raw, nil
}

// Logout blacklists raw until its own expiry. Logging out twice with the
// same token succeeds.
func (a *Authenticator) Logout(ctx context.Context, raw string, claims *tokens.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}

	err := a.blacklist.Blacklist(ctx, raw, claims.ExpiresAt.Time)
	if errors.Is(err, ErrTokenAlreadyBlacklisted) {
		return nil
	}
	if err != nil {
		return err
	}

	a.metrics.TokenBlacklisted()
	return nil
}
