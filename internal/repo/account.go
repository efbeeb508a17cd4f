package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

func (r *GormRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create account: %w", translate(err))
	}
	return nil
}

func (r *GormRepo) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	return r.firstAccount(ctx, "id = ?", id)
}

func (r *GormRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.firstAccount(ctx, "email = ?", email)
}

func (r *GormRepo) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.firstAccount(ctx, "username = ?", username)
}

func (r *GormRepo) firstAccount(ctx context.Context, query string, arg any) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&a).Error; err != nil {
		return nil, fmt.Errorf("get account: %w", translate(err))
	}
	return &a, nil
}

// UpdateAccount writes every column except the key and creation time.
func (r *GormRepo) UpdateAccount(ctx context.Context, a *models.Account) error {
	res := r.DB.WithContext(ctx).Model(a).Select("*").Omit("id", "created_at").Updates(a)
	if res.Error != nil {
		return fmt.Errorf("update account: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update account %d: %w", a.ID, ErrNotFound)
	}
	return nil
}
