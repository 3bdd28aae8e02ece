package mysql

import (
	"context"

	"Volunteer_Hub/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

// RatingRow 对账时读取的评分快照
type RatingRow struct {
	ID            uint64
	RatingAverage float64
	RatingCount   int64
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// CreateWithOrganization 组织账号与组织资料同一事务写入
func (r *UserRepository) CreateWithOrganization(ctx context.Context, user *model.User, org *model.Organization) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		org.UserID = user.ID
		return tx.Create(org).Error
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hash).Error
}

// UpdateProfile 只写入传入的列
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateRating 以 rating_count 做版本号的 CAS，未命中说明有并发写入
func (r *UserRepository) UpdateRating(ctx context.Context, id uint64, expectCount int64, average float64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND rating_count = ?", id, expectCount).
		UpdateColumns(map[string]any{
			"rating_average": average,
			"rating_count":   gorm.Expr("rating_count + ?", 1),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReconcileList 按 id 游标批量读取评分
func (r *UserRepository) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]RatingRow, uint64, error) {
	var list []RatingRow
	if err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("id", "rating_average", "rating_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// SetRating 对账修正，同样以读到的 rating_count 为条件，期间有新评分写入则放弃
func (r *UserRepository) SetRating(ctx context.Context, id uint64, expectCount int64, average float64, count int64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND rating_count = ?", id, expectCount).
		UpdateColumns(map[string]any{"rating_average": average, "rating_count": count})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_active", active).Error
}
