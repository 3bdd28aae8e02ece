package mysql

import (
	"context"
	"fmt"

	"Volunteer_Hub/internal/model"

	"gorm.io/gorm"
)

// Stat 管理端概览里的一项计数
type Stat string

const (
	StatUsers               Stat = "users"
	StatVolunteers          Stat = "volunteers"
	StatOrganizations       Stat = "organizations"
	StatOpportunities       Stat = "opportunities"
	StatActiveOpportunities Stat = "active_opportunities"
	StatApplications        Stat = "applications"
	StatPendingApplications Stat = "pending_applications"
	StatReviews             Stat = "reviews"
)

var statQueries = map[Stat]func(*gorm.DB) *gorm.DB{
	StatUsers: func(db *gorm.DB) *gorm.DB { return db.Model(&model.User{}) },
	StatVolunteers: func(db *gorm.DB) *gorm.DB {
		return db.Model(&model.User{}).Where("role = ?", model.RoleVolunteer)
	},
	StatOrganizations: func(db *gorm.DB) *gorm.DB {
		return db.Model(&model.User{}).Where("role = ?", model.RoleOrganization)
	},
	StatOpportunities: func(db *gorm.DB) *gorm.DB { return db.Model(&model.Opportunity{}) },
	StatActiveOpportunities: func(db *gorm.DB) *gorm.DB {
		return db.Model(&model.Opportunity{}).Where("is_active = ?", true)
	},
	StatApplications: func(db *gorm.DB) *gorm.DB { return db.Model(&model.Application{}) },
	StatPendingApplications: func(db *gorm.DB) *gorm.DB {
		return db.Model(&model.Application{}).Where("status = ?", model.StatusPending)
	},
	StatReviews: func(db *gorm.DB) *gorm.DB { return db.Model(&model.Review{}) },
}

// StatsRepository 只读统计，供管理端概览
type StatsRepository struct {
	DB *gorm.DB
}

func (r *StatsRepository) Count(ctx context.Context, stat Stat) (int64, error) {
	query, ok := statQueries[stat]
	if !ok {
		return 0, fmt.Errorf("unknown stat %q", stat)
	}
	var n int64
	err := query(r.DB.WithContext(ctx)).Count(&n).Error
	return n, err
}

func (r *StatsRepository) RecentOpportunities(ctx context.Context, n int) ([]model.Opportunity, error) {
	var list []model.Opportunity
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(n).Find(&list).Error
	return list, err
}

func (r *StatsRepository) RecentUsers(ctx context.Context, n int) ([]model.User, error) {
	var list []model.User
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(n).Find(&list).Error
	return list, err
}
