package service

import (
	"context"
	"fmt"
	"time"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type OpportunityService struct {
	opps OpportunityStore
	orgs OrganizationStore
	apps ApplicationStore
	log  *zap.Logger
}

func NewOpportunityService(opps OpportunityStore, orgs OrganizationStore, apps ApplicationStore, log *zap.Logger) *OpportunityService {
	return &OpportunityService{opps: opps, orgs: orgs, apps: apps, log: log}
}

type OpportunityInput struct {
	Title            string
	Description      string
	Category         string
	Availability     string
	Address          string
	City             string
	State            string
	ZipCode          string
	StartDate        *time.Time
	EndDate          *time.Time
	VolunteersNeeded int
	Featured         bool
}

// OpportunityPatch nil 表示不修改；报名人数与所属组织不可改
type OpportunityPatch struct {
	Title            *string
	Description      *string
	Category         *string
	Availability     *string
	Address          *string
	City             *string
	State            *string
	ZipCode          *string
	StartDate        *time.Time
	EndDate          *time.Time
	VolunteersNeeded *int
	Featured         *bool
}

type OpportunityQuery struct {
	Category     string
	Availability string
	City         string
	Search       string
	Featured     *bool
	Page         int
	Limit        int
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return pkg.Validation("end date must be after start date")
	}
	return nil
}

func (s *OpportunityService) Create(ctx context.Context, caller Caller, in OpportunityInput) (*model.Opportunity, error) {
	if caller.Role != model.RoleOrganization {
		return nil, ErrOrganizationOnly
	}
	org, err := s.orgs.FindByUserID(ctx, caller.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}

	o := &model.Opportunity{
		OrganizationID:   org.ID,
		Title:            pkg.Sanitize(in.Title, 200),
		Description:      pkg.Sanitize(in.Description, 2000),
		Category:         pkg.Sanitize(in.Category, 100),
		Availability:     in.Availability,
		Address:          pkg.Sanitize(in.Address, 200),
		City:             pkg.Sanitize(in.City, 100),
		State:            pkg.Sanitize(in.State, 100),
		ZipCode:          pkg.Sanitize(in.ZipCode, 20),
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		VolunteersNeeded: in.VolunteersNeeded,
		IsActive:         true,
		Featured:         in.Featured,
	}
	if o.VolunteersNeeded == 0 {
		o.VolunteersNeeded = 1
	}
	switch {
	case o.Title == "" || o.Description == "" || o.Category == "":
		return nil, pkg.Validation("title, description, category and availability are required")
	case !model.ValidAvailability(o.Availability):
		return nil, pkg.Validation("invalid availability, must be weekdays, weekends, both or flexible")
	case o.VolunteersNeeded < 1:
		return nil, pkg.Validation("volunteers needed must be a positive number")
	}
	if err := checkDates(o.StartDate, o.EndDate); err != nil {
		return nil, err
	}

	if err := s.opps.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	return o, nil
}

// Get 下线的活动按不存在处理
func (s *OpportunityService) Get(ctx context.Context, id uint64) (*model.Opportunity, error) {
	o, err := findOpportunity(ctx, s.opps, id)
	if err != nil {
		return nil, err
	}
	if !o.IsActive {
		return nil, ErrOpportunityNotFound
	}
	return o, nil
}

func (s *OpportunityService) List(ctx context.Context, q OpportunityQuery) (Page[model.Opportunity], error) {
	if q.Availability != "" && !model.ValidAvailability(q.Availability) {
		return Page[model.Opportunity]{}, pkg.Validation("invalid availability")
	}
	active := true
	f := mysql.OpportunityFilter{
		Category:     q.Category,
		Availability: q.Availability,
		City:         q.City,
		Search:       pkg.Sanitize(q.Search, 100),
		Featured:     q.Featured,
		IsActive:     &active,
	}
	page, limit := pkg.Paging(q.Page, q.Limit)
	list, total, err := s.opps.List(ctx, f, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Opportunity]{}, fmt.Errorf("list opportunities: %w", err)
	}
	return newPage(list, total, page, limit), nil
}

func (s *OpportunityService) Update(ctx context.Context, caller Caller, id uint64, p OpportunityPatch) (*model.Opportunity, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := ownsOpportunity(ctx, s.orgs, caller, o)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotOpportunityOwner
	}

	fields := map[string]any{}
	setText := func(col string, v *string, maxLen int, dst *string) error {
		if v == nil {
			return nil
		}
		t := pkg.Sanitize(*v, maxLen)
		if t == "" && (col == "title" || col == "description" || col == "category") {
			return pkg.Validation(col + " cannot be empty")
		}
		fields[col] = t
		*dst = t
		return nil
	}
	for _, f := range []struct {
		col    string
		v      *string
		maxLen int
		dst    *string
	}{
		{"title", p.Title, 200, &o.Title},
		{"description", p.Description, 2000, &o.Description},
		{"category", p.Category, 100, &o.Category},
		{"address", p.Address, 200, &o.Address},
		{"city", p.City, 100, &o.City},
		{"state", p.State, 100, &o.State},
		{"zip_code", p.ZipCode, 20, &o.ZipCode},
	} {
		if err := setText(f.col, f.v, f.maxLen, f.dst); err != nil {
			return nil, err
		}
	}
	if p.Availability != nil {
		if !model.ValidAvailability(*p.Availability) {
			return nil, pkg.Validation("invalid availability, must be weekdays, weekends, both or flexible")
		}
		fields["availability"] = *p.Availability
		o.Availability = *p.Availability
	}
	if p.VolunteersNeeded != nil {
		if *p.VolunteersNeeded < 1 {
			return nil, pkg.Validation("volunteers needed must be a positive number")
		}
		fields["volunteers_needed"] = *p.VolunteersNeeded
		o.VolunteersNeeded = *p.VolunteersNeeded
	}
	if p.StartDate != nil {
		fields["start_date"] = *p.StartDate
		o.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		fields["end_date"] = *p.EndDate
		o.EndDate = p.EndDate
	}
	if err := checkDates(o.StartDate, o.EndDate); err != nil {
		return nil, err
	}
	if p.Featured != nil {
		fields["featured"] = *p.Featured
		o.Featured = *p.Featured
	}

	if err := s.opps.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update opportunity: %w", err)
	}
	return o, nil
}

// Delete 软删除，所属组织或管理员
func (s *OpportunityService) Delete(ctx context.Context, caller Caller, id uint64) error {
	o, err := findOpportunity(ctx, s.opps, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		owner, err := ownsOpportunity(ctx, s.orgs, caller, o)
		if err != nil {
			return err
		}
		if !owner {
			return ErrNotOpportunityOwner
		}
	}
	if err := s.opps.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	return nil
}

// Mine 组织自己的活动，active 为 nil 时不过滤
func (s *OpportunityService) Mine(ctx context.Context, caller Caller, active *bool, page, limit int) (Page[model.Opportunity], error) {
	org, err := s.callerOrganization(ctx, caller)
	if err != nil {
		return Page[model.Opportunity]{}, err
	}
	page, limit = pkg.Paging(page, limit)
	list, total, err := s.opps.List(ctx, mysql.OpportunityFilter{OrganizationID: org.ID, IsActive: active}, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Opportunity]{}, fmt.Errorf("list my opportunities: %w", err)
	}
	return newPage(list, total, page, limit), nil
}

// MineWithStats 附带每个活动的申请总数与待审核数，并发统计
func (s *OpportunityService) MineWithStats(ctx context.Context, caller Caller, active *bool, page, limit int) (Page[model.OpportunityStats], error) {
	base, err := s.Mine(ctx, caller, active, page, limit)
	if err != nil {
		return Page[model.OpportunityStats]{}, err
	}

	stats := make([]model.OpportunityStats, len(base.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range base.Items {
		g.Go(func() error {
			c, err := s.apps.CountByOpportunity(gctx, base.Items[i].ID)
			if err != nil {
				return fmt.Errorf("count applications for %d: %w", base.Items[i].ID, err)
			}
			stats[i] = model.OpportunityStats{
				Opportunity:         base.Items[i],
				TotalApplications:   c.Total,
				PendingApplications: c.Pending,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page[model.OpportunityStats]{}, err
	}
	return Page[model.OpportunityStats]{Items: stats, Total: base.Total, Page: base.Page, Limit: base.Limit, Pages: base.Pages}, nil
}

func (s *OpportunityService) callerOrganization(ctx context.Context, caller Caller) (*model.Organization, error) {
	if caller.Role != model.RoleOrganization {
		return nil, ErrOrganizationOnly
	}
	org, err := s.orgs.FindByUserID(ctx, caller.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}
