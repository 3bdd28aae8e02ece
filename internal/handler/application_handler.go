package handler

import (
	"net/http"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	svc *service.ApplicationService
}

type CreateApplicationReq struct {
	OpportunityID uint64 `json:"opportunity_id" binding:"required"`
	Message       string `json:"message"`
}

type UpdateStatusReq struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func NewApplicationHandler(svc *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var req CreateApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "please provide opportunity_id"})
		return
	}

	app, err := h.svc.Create(c.Request.Context(), caller, req.OpportunityID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	app, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// UpdateStatus 组织审核申请
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "please provide status"})
		return
	}

	app, err := h.svc.UpdateStatus(c.Request.Context(), caller, id, model.ApplicationStatus(req.Status), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	app, err := h.svc.Withdraw(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Check(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	oppID, ok := parseID(c, "opportunity_id")
	if !ok {
		return
	}
	res, err := h.svc.CheckStatus(c.Request.Context(), caller, oppID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	res, err := h.svc.ListMine(c.Request.Context(), caller, c.Query("status"), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ApplicationHandler) ListForOpportunity(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	oppID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	res, err := h.svc.ListForOpportunity(c.Request.Context(), caller, oppID, c.Query("status"), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
