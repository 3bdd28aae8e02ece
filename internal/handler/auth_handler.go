package handler

import (
	"net/http"

	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

type OrganizationReq struct {
	OrganizationName string `json:"organization_name"`
	Description      string `json:"description"`
	Website          string `json:"website"`
	Address          string `json:"address"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZipCode          string `json:"zip_code"`
	ContactEmail     string `json:"contact_email"`
	ContactPhone     string `json:"contact_phone"`
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Name         string           `json:"name" binding:"required"`
	Email        string           `json:"email" binding:"required"`
	Password     string           `json:"password" binding:"required"`
	Role         string           `json:"role"`
	Phone        string           `json:"phone"`
	Organization *OrganizationReq `json:"organization"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	in := service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	}
	if o := req.Organization; o != nil {
		in.Organization = &service.OrganizationInput{
			OrganizationName: o.OrganizationName,
			Description:      o.Description,
			Website:          o.Website,
			Address:          o.Address,
			City:             o.City,
			State:            o.State,
			ZipCode:          o.ZipCode,
			ContactEmail:     o.ContactEmail,
			ContactPhone:     o.ContactPhone,
		}
	}

	sess, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "please provide email and password"})
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), caller.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Refresh 利用 refresh 换新的 access
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	p, err := h.users.Profile(c.Request.Context(), caller.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), caller.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "change password successfully, please login again"})
}
