package mysql

import (
	"context"

	"Volunteer_Hub/internal/model"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

// RatingAggregate 从 reviews 表重新计算的真实值
type RatingAggregate struct {
	Average float64
	Count   int64
}

func (r *ReviewRepository) Create(ctx context.Context, rv *model.Review) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint64) (*model.Review, error) {
	var rv model.Review
	if err := r.DB.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

// Exists opportunityID 为 0 时查的是通用评价
func (r *ReviewRepository) Exists(ctx context.Context, reviewerID, revieweeID, opportunityID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Review{}).
		Where("reviewer_id = ? AND reviewee_id = ? AND opportunity_id = ?", reviewerID, revieweeID, opportunityID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID uint64, reviewType string, offset, limit int) ([]model.Review, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Review{}).Where("reviewee_id = ?", revieweeID)
	if reviewType != "" {
		q = q.Where("review_type = ?", reviewType)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Review
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ReviewRepository) AggregateByReviewee(ctx context.Context, revieweeID uint64) (RatingAggregate, error) {
	var agg RatingAggregate
	err := r.DB.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("reviewee_id = ?", revieweeID).
		Scan(&agg).Error
	return agg, err
}
