package service

import (
	"context"
	"fmt"
	"time"

	"Volunteer_Hub/internal/metrics"
	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"

	"go.uber.org/zap"
)

type ApplicationService struct {
	apps     ApplicationStore
	opps     OpportunityStore
	orgs     OrganizationStore
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewApplicationService(apps ApplicationStore, opps OpportunityStore, orgs OrganizationStore, notifier Notifier, log *zap.Logger) *ApplicationService {
	return &ApplicationService{apps: apps, opps: opps, orgs: orgs, notifier: notifier, log: log, now: time.Now}
}

// Create 先占名额再写申请；写失败时归还名额
func (s *ApplicationService) Create(ctx context.Context, caller Caller, opportunityID uint64, message string) (*model.Application, error) {
	if caller.Role != model.RoleVolunteer {
		return nil, ErrVolunteerOnly
	}
	opp, err := s.loadOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if !opp.IsActive {
		return nil, ErrOpportunityInactive
	}

	// 唯一索引兜底，这里先查一次给出明确错误并避免白占名额
	if _, err := s.apps.FindByOpportunityAndVolunteer(ctx, opportunityID, caller.ID); err == nil {
		return nil, ErrAlreadyApplied
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check existing application: %w", err)
	}

	ok, err := s.opps.TryReserveSlot(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("reserve slot: %w", err)
	}
	metrics.RecordReservation(ok)
	if !ok {
		return nil, ErrOpportunityFull
	}

	app := &model.Application{
		OpportunityID: opportunityID,
		VolunteerID:   caller.ID,
		Status:        model.StatusPending,
		Message:       pkg.Sanitize(message, 1000),
		AppliedAt:     s.now(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		s.compensate(opportunityID, err)
		if isDuplicate(err) {
			return nil, ErrAlreadyApplied
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	if org, err := s.orgs.FindByID(ctx, opp.OrganizationID); err != nil {
		s.log.Warn("skip application notification: organization lookup failed",
			zap.Uint64("opportunity_id", opp.ID), zap.Error(err))
	} else {
		s.notifier.Notify(ctx, applicationReceived(org.UserID, app, caller.Name))
	}
	return app, nil
}

// compensate 申请写入失败后归还已占的名额，用独立 ctx 避免请求取消导致漏还
func (s *ApplicationService) compensate(opportunityID uint64, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.opps.ReleaseSlot(ctx, opportunityID); err != nil {
		s.log.Error("release reserved slot failed",
			zap.Uint64("opportunity_id", opportunityID), zap.NamedError("cause", cause), zap.Error(err))
		return
	}
	metrics.RecordRelease()
	s.log.Warn("reserved slot released after failed insert",
		zap.Uint64("opportunity_id", opportunityID), zap.Error(cause))
}

// UpdateStatus 组织审核：只接受 approved / rejected，且只能从 pending 迁移
func (s *ApplicationService) UpdateStatus(ctx context.Context, caller Caller, applicationID uint64, status model.ApplicationStatus, notes string) (*model.Application, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, ErrInvalidStatus
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	opp, err := s.loadOpportunity(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	owner, err := s.isOwner(ctx, caller, opp)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotOpportunityOwner
	}
	if !app.Status.CanTransitionTo(status) || app.Status != model.StatusPending {
		return nil, ErrNotPending
	}

	now := s.now()
	by := caller.ID
	ch := mysql.StatusChange{To: status, ReviewedAt: now, ReviewedBy: &by, Notes: pkg.Sanitize(notes, 500)}
	ok, err := s.apps.Transition(ctx, app.ID, app.OpportunityID, model.StatusPending, ch, status.ReleasesSlot())
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	if !ok {
		return nil, ErrNotPending
	}
	if status.ReleasesSlot() {
		metrics.RecordRelease()
	}

	app.Status = status
	app.ReviewedAt = &now
	app.ReviewedBy = &by
	if ch.Notes != "" {
		app.ReviewNotes = ch.Notes
	}
	s.notifier.Notify(ctx, applicationStatusChanged(app, opp.Title))
	return app, nil
}

// Withdraw 志愿者撤回自己 pending 的申请，不发通知
func (s *ApplicationService) Withdraw(ctx context.Context, caller Caller, applicationID uint64) (*model.Application, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.VolunteerID != caller.ID {
		return nil, ErrNotApplicant
	}
	if app.Status != model.StatusPending {
		return nil, ErrNotPending
	}

	now := s.now()
	ch := mysql.StatusChange{To: model.StatusWithdrawn, ReviewedAt: now}
	ok, err := s.apps.Transition(ctx, app.ID, app.OpportunityID, model.StatusPending, ch, true)
	if err != nil {
		return nil, fmt.Errorf("withdraw application: %w", err)
	}
	if !ok {
		return nil, ErrNotPending
	}
	metrics.RecordRelease()

	app.Status = model.StatusWithdrawn
	app.ReviewedAt = &now
	return app, nil
}

// Get 申请人、活动所属组织或管理员可见
func (s *ApplicationService) Get(ctx context.Context, caller Caller, id uint64) (*model.Application, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.VolunteerID == caller.ID || caller.IsAdmin() {
		return app, nil
	}
	opp, err := s.loadOpportunity(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	owner, err := s.isOwner(ctx, caller, opp)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotApplicant
	}
	return app, nil
}

type ApplicationCheck struct {
	HasApplied    bool                    `json:"has_applied"`
	Status        model.ApplicationStatus `json:"status,omitempty"`
	ApplicationID uint64                  `json:"application_id,omitempty"`
}

func (s *ApplicationService) CheckStatus(ctx context.Context, caller Caller, opportunityID uint64) (ApplicationCheck, error) {
	app, err := s.apps.FindByOpportunityAndVolunteer(ctx, opportunityID, caller.ID)
	if err != nil {
		if isNotFound(err) {
			return ApplicationCheck{}, nil
		}
		return ApplicationCheck{}, fmt.Errorf("check application: %w", err)
	}
	return ApplicationCheck{HasApplied: true, Status: app.Status, ApplicationID: app.ID}, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, caller Caller, status string, page, limit int) (Page[model.Application], error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return Page[model.Application]{}, err
	}
	page, limit = pkg.Paging(page, limit)
	list, total, err := s.apps.ListByVolunteer(ctx, caller.ID, st, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Application]{}, fmt.Errorf("list applications: %w", err)
	}
	return newPage(list, total, page, limit), nil
}

// ListForOpportunity 只有活动所属组织（或管理员）可以查看
func (s *ApplicationService) ListForOpportunity(ctx context.Context, caller Caller, opportunityID uint64, status string, page, limit int) (Page[model.Application], error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return Page[model.Application]{}, err
	}
	opp, err := s.loadOpportunity(ctx, opportunityID)
	if err != nil {
		return Page[model.Application]{}, err
	}
	owner, err := s.isOwner(ctx, caller, opp)
	if err != nil {
		return Page[model.Application]{}, err
	}
	if !owner && !caller.IsAdmin() {
		return Page[model.Application]{}, ErrNotOpportunityOwner
	}
	page, limit = pkg.Paging(page, limit)
	list, total, err := s.apps.ListByOpportunity(ctx, opportunityID, st, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Application]{}, fmt.Errorf("list applications: %w", err)
	}
	return newPage(list, total, page, limit), nil
}

func parseStatusFilter(status string) (model.ApplicationStatus, error) {
	if status == "" {
		return "", nil
	}
	st := model.ApplicationStatus(status)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s *ApplicationService) loadApplication(ctx context.Context, id uint64) (*model.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *ApplicationService) loadOpportunity(ctx context.Context, id uint64) (*model.Opportunity, error) {
	return findOpportunity(ctx, s.opps, id)
}

func (s *ApplicationService) isOwner(ctx context.Context, caller Caller, opp *model.Opportunity) (bool, error) {
	return ownsOpportunity(ctx, s.orgs, caller, opp)
}

func findOpportunity(ctx context.Context, opps OpportunityStore, id uint64) (*model.Opportunity, error) {
	opp, err := opps.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("find opportunity: %w", err)
	}
	return opp, nil
}

// ownsOpportunity 调用方是否是活动所属组织的账号
func ownsOpportunity(ctx context.Context, orgs OrganizationStore, caller Caller, opp *model.Opportunity) (bool, error) {
	if caller.Role != model.RoleOrganization {
		return false, nil
	}
	org, err := orgs.FindByID(ctx, opp.OrganizationID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("find organization: %w", err)
	}
	return org.UserID == caller.ID, nil
}
