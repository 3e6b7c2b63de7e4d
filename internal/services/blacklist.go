package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/farellandr/eventboard/internal/models"
)

// BlacklistService stores tokens invalidated before their expiry. Every
// lookup is a fresh query.
type BlacklistService struct {
	db *gorm.DB
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// Blacklist records token. A token that is already present yields
// ErrTokenAlreadyBlacklisted, which callers may treat as success.
func (s *BlacklistService) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	const op = "services.BlacklistService.Blacklist"

	row := models.BlacklistedToken{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrTokenAlreadyBlacklisted
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BlacklistService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	const op = "services.BlacklistService.IsBlacklisted"

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.BlacklistedToken{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// PruneExpired removes rows whose token expired before now. Such tokens
// already fail signature verification, so dropping the row cannot
// re-enable them.
func (s *BlacklistService) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "services.BlacklistService.PruneExpired"

	res := s.db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&models.BlacklistedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, res.Error)
	}
	return res.RowsAffected, nil
}
