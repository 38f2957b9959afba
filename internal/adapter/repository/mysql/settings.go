package mysql

import (
	"context"
	"errors"

	settingsDomain "kopacash/internal/domain/settings"

	"gorm.io/gorm"
)

type SettingsRepository struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*settingsDomain.Setting, error) {
	var out settingsDomain.Setting
	res := r.db.WithContext(ctx).Where("`key` = ?", key).First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, settingsDomain.ErrNotFound
		}
		return nil, res.Error
	}
	return &out, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *settingsDomain.Setting) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SettingsRepository) List(ctx context.Context) ([]settingsDomain.Setting, error) {
	var out []settingsDomain.Setting
	err := r.db.WithContext(ctx).Order("category ASC, `key` ASC").Find(&out).Error
	return out, err
}
