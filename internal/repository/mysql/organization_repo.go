package mysql

import (
	"context"

	"Volunteer_Hub/internal/model"

	"gorm.io/gorm"
)

type OrganizationRepository struct {
	DB *gorm.DB
}

// OrganizationFilter 管理端组织列表筛选
type OrganizationFilter struct {
	Verified *bool
	Search   string // 组织名/简介模糊匹配
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uint64) (*model.Organization, error) {
	var org model.Organization
	if err := r.DB.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) FindByUserID(ctx context.Context, userID uint64) (*model.Organization, error) {
	var org model.Organization
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) SetVerified(ctx context.Context, id uint64, verified bool) error {
	return r.DB.WithContext(ctx).Model(&model.Organization{}).Where("id = ?", id).Update("verified", verified).Error
}

// List 附带账号的基本信息，方便管理员看到账号是否被停用
func (r *OrganizationRepository) List(ctx context.Context, f OrganizationFilter, offset, limit int) ([]model.Organization, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Organization{})
	if f.Verified != nil {
		q = q.Where("verified = ?", *f.Verified)
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		q = q.Where("(organization_name LIKE ? OR description LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Organization
	err := q.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "email", "role", "is_active")
	}).Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}
