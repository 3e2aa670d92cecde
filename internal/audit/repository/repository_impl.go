package repository

import (
	"context"
	"strings"

	"github.com/agencydesk/agencydesk/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.AuditLog{}), filter).
		Order("created_at DESC, id DESC")
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var logs []*domain.AuditLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListFilter) (int64, error) {
	var total int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.AuditLog{}), filter).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	stmt = stmt.Where("organization_id = ?", filter.OrganizationID)
	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	return stmt
}
