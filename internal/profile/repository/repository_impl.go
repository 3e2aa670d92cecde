package repository

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/profile/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.AgentProfile, error) {
	var profile domain.AgentProfile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []snowflake.ID) ([]domain.AgentProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []domain.AgentProfile
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repository) DisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	profiles, err := r.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(profiles))
	for _, profile := range profiles {
		names[profile.ID] = profile.DisplayName()
	}
	return names, nil
}
