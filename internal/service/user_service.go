package service

import (
	"context"
	"fmt"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
)

type UserService struct {
	users UserStore
	orgs  OrganizationStore
	apps  ApplicationStore
}

func NewUserService(users UserStore, orgs OrganizationStore, apps ApplicationStore) *UserService {
	return &UserService{users: users, orgs: orgs, apps: apps}
}

type UserProfile struct {
	*model.User
	Organization *model.Organization `json:"organization,omitempty"`
}

// Profile 组织账号附带组织资料
func (s *UserService) Profile(ctx context.Context, id uint64) (*UserProfile, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	p := &UserProfile{User: u}
	if u.Role == model.RoleOrganization {
		org, err := s.orgs.FindByUserID(ctx, u.ID)
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("find organization: %w", err)
		}
		p.Organization = org
	}
	return p, nil
}

type ProfilePatch struct {
	Name  *string
	Phone *string
	Bio   *string
}

func (s *UserService) UpdateProfile(ctx context.Context, caller Caller, p ProfilePatch) (*UserProfile, error) {
	fields := map[string]any{}
	if p.Name != nil {
		name := pkg.Sanitize(*p.Name, 100)
		if name == "" {
			return nil, pkg.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if p.Phone != nil {
		fields["phone"] = pkg.Sanitize(*p.Phone, 20)
	}
	if p.Bio != nil {
		fields["bio"] = pkg.Sanitize(*p.Bio, 500)
	}
	if err := s.users.UpdateProfile(ctx, caller.ID, fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Profile(ctx, caller.ID)
}

// History 志愿者已完成的服务记录
func (s *UserService) History(ctx context.Context, caller Caller, page, limit int) (Page[model.Application], error) {
	if caller.Role != model.RoleVolunteer {
		return Page[model.Application]{}, ErrVolunteerOnly
	}
	page, limit = pkg.Paging(page, limit)
	list, total, err := s.apps.ListByVolunteer(ctx, caller.ID, model.StatusCompleted, pkg.Offset(page, limit), limit)
	if err != nil {
		return Page[model.Application]{}, fmt.Errorf("list history: %w", err)
	}
	return newPage(list, total, page, limit), nil
}
