package mysql

import (
	"context"
	"strings"

	"Volunteer_Hub/internal/model"

	"gorm.io/gorm"
)

type OpportunityRepository struct {
	DB *gorm.DB
}

// OpportunityFilter 列表条件，零值表示不过滤
type OpportunityFilter struct {
	OrganizationID uint64
	Category       string
	Availability   string
	City           string
	Search         string // 标题/描述模糊匹配
	Featured       *bool
	IsActive       *bool
}

func (r *OpportunityRepository) Create(ctx context.Context, o *model.Opportunity) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *OpportunityRepository) FindByID(ctx context.Context, id uint64) (*model.Opportunity, error) {
	var o model.Opportunity
	if err := r.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// TryReserveSlot 条件自增：只有仍在招募且未满时才命中一行
func (r *OpportunityRepository) TryReserveSlot(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Opportunity{}).
		Where("id = ? AND is_active = ? AND volunteers_registered < volunteers_needed", id, true).
		UpdateColumn("volunteers_registered", gorm.Expr("volunteers_registered + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseSlot 无条件减一，调用方保证只在状态机确实离开占位状态时调用
func (r *OpportunityRepository) ReleaseSlot(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Opportunity{}).
		Where("id = ?", id).
		UpdateColumn("volunteers_registered", gorm.Expr("volunteers_registered - ?", 1)).Error
}

// Update 只写入传入的列
func (r *OpportunityRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Opportunity{}).Where("id = ?", id).Updates(fields).Error
}

// SoftDelete 幂等：已下线也返回 nil
func (r *OpportunityRepository) SoftDelete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Opportunity{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *OpportunityRepository) List(ctx context.Context, f OpportunityFilter, offset, limit int) ([]model.Opportunity, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Opportunity{})
	if f.OrganizationID != 0 {
		q = q.Where("organization_id = ?", f.OrganizationID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Availability != "" {
		q = q.Where("availability = ?", f.Availability)
	}
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		q = q.Where("(title LIKE ? OR description LIKE ?)", like, like)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Opportunity
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
