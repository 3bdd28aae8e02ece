package service

import (
	"context"
	"fmt"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 概览里最近活动/用户的条数
const recentLimit = 5

// AdminService 账号停用、组织认证、活动推荐和全站统计
type AdminService struct {
	users  AccountStore
	orgs   OrganizationDirectory
	opps   OpportunityStore
	stats  StatsStore
	tokens TokenStore
	log    *zap.Logger
}

func NewAdminService(users AccountStore, orgs OrganizationDirectory, opps OpportunityStore, stats StatsStore, tokens TokenStore, log *zap.Logger) *AdminService {
	return &AdminService{users: users, orgs: orgs, opps: opps, stats: stats, tokens: tokens, log: log}
}

type DashboardStats struct {
	TotalUsers          int64 `json:"total_users"`
	TotalVolunteers     int64 `json:"total_volunteers"`
	TotalOrganizations  int64 `json:"total_organizations"`
	TotalOpportunities  int64 `json:"total_opportunities"`
	ActiveOpportunities int64 `json:"active_opportunities"`
	TotalApplications   int64 `json:"total_applications"`
	PendingApplications int64 `json:"pending_applications"`
	TotalReviews        int64 `json:"total_reviews"`
}

type Dashboard struct {
	Stats               DashboardStats      `json:"stats"`
	RecentOpportunities []model.Opportunity `json:"recent_opportunities"`
	RecentUsers         []model.User        `json:"recent_users"`
}

type OrganizationQuery struct {
	Verified *bool
	Search   string
	Page     int
	Limit    int
}

// SetUserStatus 停用时同时吊销登录态，已签发的 access token 也随之失效
func (s *AdminService) SetUserStatus(ctx context.Context, caller Caller, id uint64, active bool) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if !active && id == caller.ID {
		return nil, ErrDeactivateSelf
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("set user status: %w", err)
	}
	u.IsActive = active
	if !active && s.tokens != nil {
		if err := s.tokens.Delete(ctx, id); err != nil {
			s.log.Warn("revoke session failed", zap.Uint64("user_id", id), zap.Error(err))
		}
	}
	s.log.Info("user status changed",
		zap.Uint64("admin_id", caller.ID), zap.Uint64("user_id", id), zap.Bool("active", active))
	return u, nil
}

func (s *AdminService) VerifyOrganization(ctx context.Context, caller Caller, id uint64, verified bool) (*model.Organization, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	if err := s.orgs.SetVerified(ctx, id, verified); err != nil {
		return nil, fmt.Errorf("verify organization: %w", err)
	}
	org.Verified = verified
	s.log.Info("organization verification changed",
		zap.Uint64("admin_id", caller.ID), zap.Uint64("organization_id", id), zap.Bool("verified", verified))
	return org, nil
}

func (s *AdminService) FeatureOpportunity(ctx context.Context, caller Caller, id uint64, featured bool) (*model.Opportunity, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	o, err := findOpportunity(ctx, s.opps, id)
	if err != nil {
		return nil, err
	}
	if err := s.opps.Update(ctx, id, map[string]any{"featured": featured}); err != nil {
		return nil, fmt.Errorf("feature opportunity: %w", err)
	}
	o.Featured = featured
	return o, nil
}

func (s *AdminService) Organizations(ctx context.Context, caller Caller, q OrganizationQuery) (Page[model.Organization], error) {
	if !caller.IsAdmin() {
		return Page[model.Organization]{}, ErrAdminOnly
	}
	page, limit := pkg.Paging(q.Page, q.Limit)
	f := mysql.OrganizationFilter{Verified: q.Verified, Search: pkg.Sanitize(q.Search, 100)}
	list, total, err := s.orgs.List(ctx, f, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Organization]{}, fmt.Errorf("list organizations: %w", err)
	}
	return newPage(list, total, page, limit), nil
}

// Stats 各项计数互不依赖，并发查询
func (s *AdminService) Stats(ctx context.Context, caller Caller) (*Dashboard, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	d := &Dashboard{}
	counters := []struct {
		stat mysql.Stat
		dst  *int64
	}{
		{mysql.StatUsers, &d.Stats.TotalUsers},
		{mysql.StatVolunteers, &d.Stats.TotalVolunteers},
		{mysql.StatOrganizations, &d.Stats.TotalOrganizations},
		{mysql.StatOpportunities, &d.Stats.TotalOpportunities},
		{mysql.StatActiveOpportunities, &d.Stats.ActiveOpportunities},
		{mysql.StatApplications, &d.Stats.TotalApplications},
		{mysql.StatPendingApplications, &d.Stats.PendingApplications},
		{mysql.StatReviews, &d.Stats.TotalReviews},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, c := range counters {
		g.Go(func() error {
			n, err := s.stats.Count(gctx, c.stat)
			if err != nil {
				return fmt.Errorf("count %s: %w", c.stat, err)
			}
			*c.dst = n
			return nil
		})
	}
	g.Go(func() error {
		list, err := s.stats.RecentOpportunities(gctx, recentLimit)
		if err != nil {
			return fmt.Errorf("recent opportunities: %w", err)
		}
		d.RecentOpportunities = list
		return nil
	})
	g.Go(func() error {
		list, err := s.stats.RecentUsers(gctx, recentLimit)
		if err != nil {
			return fmt.Errorf("recent users: %w", err)
		}
		d.RecentUsers = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.RecentOpportunities == nil {
		d.RecentOpportunities = []model.Opportunity{}
	}
	if d.RecentUsers == nil {
		d.RecentUsers = []model.User{}
	}
	return d, nil
}
