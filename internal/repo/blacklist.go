package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

// Revoke is idempotent: a second insert of the same jti is ignored.
func (r *GormRepo) Revoke(ctx context.Context, jti string, accountID uint, expiresAt time.Time) error {
	row := models.BlacklistedToken{
		JTI:       jti,
		AccountID: accountID,
		ExpiresAt: expiresAt.UTC(),
	}
	err := r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("blacklist token: %w", translate(err))
	}
	return nil
}

func (r *GormRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&models.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return count > 0, nil
}

// PurgeExpired deletes entries whose token would already be rejected as expired.
func (r *GormRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&models.BlacklistedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge blacklist: %w", res.Error)
	}
	return res.RowsAffected, nil
}
