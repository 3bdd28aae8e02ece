package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/redis"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type AuthService struct {
	users  UserStore
	tokens TokenStore
	jwt    *pkg.JWTManager
	log    *zap.Logger
	cost   int
}

func NewAuthService(users UserStore, tokens TokenStore, jwt *pkg.JWTManager, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: jwt, log: log, cost: bcrypt.DefaultCost}
}

type OrganizationInput struct {
	OrganizationName string
	Description      string
	Website          string
	Address          string
	City             string
	State            string
	ZipCode          string
	ContactEmail     string
	ContactPhone     string
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         string
	Phone        string
	Organization *OrganizationInput
}

type Session struct {
	User   *model.User `json:"user"`
	Tokens *pkg.Pair   `json:"tokens"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 注册后直接登录；组织账号同时创建组织资料
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	role := in.Role
	if role == "" {
		role = model.RoleVolunteer
	}
	// 管理员不能自助注册
	if role != model.RoleVolunteer && role != model.RoleOrganization {
		return nil, ErrInvalidRole
	}
	user, err := s.newUser(in, role)
	if err != nil {
		return nil, err
	}

	if role == model.RoleOrganization {
		err = s.users.CreateWithOrganization(ctx, user, organizationFrom(in.Organization, user.Name, user.Email))
	} else {
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: pair}, nil
}

// CreateAdmin 只供命令行初始化管理员使用
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (*model.User, error) {
	user, err := s.newUser(in, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

func (s *AuthService) newUser(in RegisterInput, role string) (*model.User, error) {
	name := pkg.Sanitize(in.Name, 100)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, pkg.Validation("please provide name, email, and password")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, pkg.Validation("please provide a valid email")
	}
	if err := pkg.CheckPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	return &model.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
		Phone:    pkg.Sanitize(in.Phone, 20),
		IsActive: true,
	}, nil
}

func organizationFrom(in *OrganizationInput, fallbackName, fallbackEmail string) *model.Organization {
	if in == nil {
		in = &OrganizationInput{}
	}
	org := &model.Organization{
		OrganizationName: pkg.Sanitize(in.OrganizationName, 200),
		Description:      pkg.Sanitize(in.Description, 2000),
		Website:          pkg.Sanitize(in.Website, 200),
		Address:          pkg.Sanitize(in.Address, 200),
		City:             pkg.Sanitize(in.City, 100),
		State:            pkg.Sanitize(in.State, 100),
		ZipCode:          pkg.Sanitize(in.ZipCode, 20),
		ContactEmail:     normalizeEmail(in.ContactEmail),
		ContactPhone:     pkg.Sanitize(in.ContactPhone, 20),
	}
	if org.OrganizationName == "" {
		org.OrganizationName = fallbackName
	}
	if org.ContactEmail == "" {
		org.ContactEmail = fallbackEmail
	}
	return org
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, pkg.Validation("please provide email and password")
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: pair}, nil
}

// issue 签发 token 并写入白名单，旧 token 随之失效
func (s *AuthService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := s.jwt.GeneratePair(user.ID, user.Role, user.Name)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.Delete(ctx, userID)
}

// Refresh 用 refresh 换一对新 token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, pkg.NewError(pkg.KindUnauthorized, err.Error())
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.issue(ctx, user)
}

// Authenticate access 合法、与白名单一致且账号未停用，校验通过后续期
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (Caller, error) {
	claims, err := s.jwt.ParseAccess(accessToken)
	if err != nil {
		return Caller{}, pkg.NewError(pkg.KindUnauthorized, "invalid or expired token")
	}
	stored, err := s.tokens.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return Caller{}, ErrSessionExpired
		}
		return Caller{}, err
	}
	if stored != accessToken {
		return Caller{}, pkg.NewError(pkg.KindUnauthorized, "account has been logged in elsewhere")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return Caller{}, ErrSessionExpired
		}
		return Caller{}, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return Caller{}, ErrAccountInactive
	}
	if err := s.tokens.Extend(ctx, claims.UserID); err != nil {
		s.log.Warn("extend token failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
	}
	return Caller{ID: claims.UserID, Role: claims.Role, Name: claims.Name}, nil
}

// ChangePassword 修改后强制重新登录
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.Validation("old password is incorrect")
	}
	if err := pkg.CheckPassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.Logout(ctx, userID)
}
