package mysql

import (
	"context"
	"time"

	"Volunteer_Hub/internal/model"

	"gorm.io/gorm"
)

type ApplicationRepository struct {
	DB *gorm.DB
}

// StatusChange 一次状态迁移需要写入的审核字段
type StatusChange struct {
	To         model.ApplicationStatus
	ReviewedAt time.Time
	ReviewedBy *uint64
	Notes      string
}

// ApplicationCounts 单个活动的申请统计
type ApplicationCounts struct {
	Total   int64
	Pending int64
}

// Create 依赖 (opportunity_id, volunteer_id) 唯一索引兜底重复申请
func (r *ApplicationRepository) Create(ctx context.Context, a *model.Application) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id uint64) (*model.Application, error) {
	var a model.Application
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) FindByOpportunityAndVolunteer(ctx context.Context, opportunityID, volunteerID uint64) (*model.Application, error) {
	var a model.Application
	err := r.DB.WithContext(ctx).
		Where("opportunity_id = ? AND volunteer_id = ?", opportunityID, volunteerID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Transition 以当前状态为条件迁移，命中且 release 时在同一事务里归还名额。
// 返回 false 表示状态已被并发修改，什么都没写
func (r *ApplicationRepository) Transition(ctx context.Context, id, opportunityID uint64, from model.ApplicationStatus, ch StatusChange, release bool) (bool, error) {
	var changed bool
	fields := map[string]any{
		"status":      ch.To,
		"reviewed_at": ch.ReviewedAt,
		"reviewed_by": ch.ReviewedBy,
	}
	// 没填备注时保留原有备注
	if ch.Notes != "" {
		fields["review_notes"] = ch.Notes
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Application{}).
			Where("id = ? AND status = ?", id, from).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}
		changed = true
		if !release {
			return nil
		}
		oppRepo := &OpportunityRepository{DB: tx}
		return oppRepo.ReleaseSlot(ctx, opportunityID)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *ApplicationRepository) ListByVolunteer(ctx context.Context, volunteerID uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error) {
	return r.list(ctx, "volunteer_id = ?", volunteerID, status, offset, limit)
}

func (r *ApplicationRepository) ListByOpportunity(ctx context.Context, opportunityID uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error) {
	return r.list(ctx, "opportunity_id = ?", opportunityID, status, offset, limit)
}

func (r *ApplicationRepository) list(ctx context.Context, cond string, id uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Application{}).Where(cond, id)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Application
	err := q.Order("applied_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ApplicationRepository) CountByOpportunity(ctx context.Context, opportunityID uint64) (ApplicationCounts, error) {
	var c ApplicationCounts
	err := r.DB.WithContext(ctx).Model(&model.Application{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending", model.StatusPending).
		Where("opportunity_id = ?", opportunityID).
		Scan(&c).Error
	return c, err
}

// HasParticipation 志愿者在该活动上有 approved/completed 的申请
func (r *ApplicationRepository) HasParticipation(ctx context.Context, opportunityID, volunteerID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Application{}).
		Where("opportunity_id = ? AND volunteer_id = ? AND status IN ?", opportunityID, volunteerID,
			[]model.ApplicationStatus{model.StatusApproved, model.StatusCompleted}).
		Count(&count).Error
	return count > 0, err
}
