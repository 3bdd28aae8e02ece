package service

import (
	"context"
	"time"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"
)

// Caller 已认证的调用方，由中间件从 token 中取出
type Caller struct {
	ID   uint64
	Role string
	Name string
}

func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func newPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pkg.Pages(total, limit)}
}

type OpportunityStore interface {
	Create(ctx context.Context, o *model.Opportunity) error
	FindByID(ctx context.Context, id uint64) (*model.Opportunity, error)
	TryReserveSlot(ctx context.Context, id uint64) (bool, error)
	ReleaseSlot(ctx context.Context, id uint64) error
	Update(ctx context.Context, id uint64, fields map[string]any) error
	SoftDelete(ctx context.Context, id uint64) error
	List(ctx context.Context, f mysql.OpportunityFilter, offset, limit int) ([]model.Opportunity, int64, error)
}

type ApplicationStore interface {
	Create(ctx context.Context, a *model.Application) error
	FindByID(ctx context.Context, id uint64) (*model.Application, error)
	FindByOpportunityAndVolunteer(ctx context.Context, opportunityID, volunteerID uint64) (*model.Application, error)
	Transition(ctx context.Context, id, opportunityID uint64, from model.ApplicationStatus, ch mysql.StatusChange, release bool) (bool, error)
	ListByVolunteer(ctx context.Context, volunteerID uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error)
	ListByOpportunity(ctx context.Context, opportunityID uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error)
	CountByOpportunity(ctx context.Context, opportunityID uint64) (mysql.ApplicationCounts, error)
	HasParticipation(ctx context.Context, opportunityID, volunteerID uint64) (bool, error)
}

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	FindByID(ctx context.Context, id uint64) (*model.Review, error)
	Exists(ctx context.Context, reviewerID, revieweeID, opportunityID uint64) (bool, error)
	ListByReviewee(ctx context.Context, revieweeID uint64, reviewType string, offset, limit int) ([]model.Review, int64, error)
	AggregateByReviewee(ctx context.Context, revieweeID uint64) (mysql.RatingAggregate, error)
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	CreateWithOrganization(ctx context.Context, u *model.User, org *model.Organization) error
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	UpdateProfile(ctx context.Context, id uint64, fields map[string]any) error
	UpdateRating(ctx context.Context, id uint64, expectCount int64, average float64) (bool, error)
	ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]mysql.RatingRow, uint64, error)
	SetRating(ctx context.Context, id uint64, expectCount int64, average float64, count int64) (bool, error)
}

type OrganizationStore interface {
	FindByID(ctx context.Context, id uint64) (*model.Organization, error)
	FindByUserID(ctx context.Context, userID uint64) (*model.Organization, error)
}

// AccountStore 管理端在 UserStore 之上需要的停用/启用
type AccountStore interface {
	UserStore
	SetActive(ctx context.Context, id uint64, active bool) error
}

// OrganizationDirectory 管理端的组织审核与列表
type OrganizationDirectory interface {
	OrganizationStore
	SetVerified(ctx context.Context, id uint64, verified bool) error
	List(ctx context.Context, f mysql.OrganizationFilter, offset, limit int) ([]model.Organization, int64, error)
}

type StatsStore interface {
	Count(ctx context.Context, stat mysql.Stat) (int64, error)
	RecentOpportunities(ctx context.Context, n int) ([]model.Opportunity, error)
	RecentUsers(ctx context.Context, n int) ([]model.User, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id uint64) (*model.Notification, error)
	List(ctx context.Context, userID uint64, f mysql.NotificationFilter, offset, limit int) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	MarkRead(ctx context.Context, id uint64, at time.Time) error
	MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error)
	Delete(ctx context.Context, id uint64) error
	ListUnpushed(ctx context.Context, batchSize, maxRetry int) ([]model.Notification, error)
	MarkPushed(ctx context.Context, id uint64) error
	MarkPushFailed(ctx context.Context, id uint64) error
}

// UnreadCache 未读数缓存，未配置 Redis 时可为 nil
type UnreadCache interface {
	Get(ctx context.Context, userID uint64) (int64, bool, error)
	Set(ctx context.Context, userID uint64, count int64) error
	Invalidate(ctx context.Context, userID uint64) error
}

type TokenStore interface {
	Save(ctx context.Context, userID uint64, token string) error
	Get(ctx context.Context, userID uint64) (string, error)
	Extend(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, userID uint64) error
}

type Locker interface {
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, token string) error
}
