package handler

import (
	"net/http"

	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	svc *service.AdminService
}

// 开关字段用指针，false 也算提供了值
type UserStatusReq struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type VerifyReq struct {
	Verified *bool `json:"verified" binding:"required"`
}

type FeatureReq struct {
	Featured *bool `json:"featured" binding:"required"`
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	d, err := h.svc.Stats(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UserStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "is_active must be a boolean value"})
		return
	}
	u, err := h.svc.SetUserStatus(c.Request.Context(), caller, id, *req.IsActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) VerifyOrganization(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req VerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "verified must be a boolean value"})
		return
	}
	org, err := h.svc.VerifyOrganization(c.Request.Context(), caller, id, *req.Verified)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *AdminHandler) FeatureOpportunity(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req FeatureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "featured must be a boolean value"})
		return
	}
	o, err := h.svc.FeatureOpportunity(c.Request.Context(), caller, id, *req.Featured)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) Organizations(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	verified, ok := boolQuery(c, "verified")
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	res, err := h.svc.Organizations(c.Request.Context(), caller, service.OrganizationQuery{
		Verified: verified,
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
