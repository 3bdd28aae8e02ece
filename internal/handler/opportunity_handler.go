package handler

import (
	"net/http"
	"time"

	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

type OpportunityHandler struct {
	svc *service.OpportunityService
}

type OpportunityReq struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description" binding:"required"`
	Category         string     `json:"category" binding:"required"`
	Availability     string     `json:"availability" binding:"required"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	ZipCode          string     `json:"zip_code"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	VolunteersNeeded int        `json:"volunteers_needed"`
	Featured         bool       `json:"featured"`
}

// OpportunityPatchReq 未出现的字段保持不变
type OpportunityPatchReq struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Category         *string    `json:"category"`
	Availability     *string    `json:"availability"`
	Address          *string    `json:"address"`
	City             *string    `json:"city"`
	State            *string    `json:"state"`
	ZipCode          *string    `json:"zip_code"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	VolunteersNeeded *int       `json:"volunteers_needed"`
	Featured         *bool      `json:"featured"`
}

func NewOpportunityHandler(svc *service.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{svc: svc}
}

func (h *OpportunityHandler) List(c *gin.Context) {
	featured, ok := boolQuery(c, "featured")
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	res, err := h.svc.List(c.Request.Context(), service.OpportunityQuery{
		Category:     c.Query("category"),
		Availability: c.Query("availability"),
		City:         c.Query("city"),
		Search:       c.Query("search"),
		Featured:     featured,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OpportunityHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OpportunityHandler) Create(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var req OpportunityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "please provide title, description, category and availability"})
		return
	}

	o, err := h.svc.Create(c.Request.Context(), caller, service.OpportunityInput{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Availability:     req.Availability,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		ZipCode:          req.ZipCode,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		VolunteersNeeded: req.VolunteersNeeded,
		Featured:         req.Featured,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OpportunityHandler) Update(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req OpportunityPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	o, err := h.svc.Update(c.Request.Context(), caller, id, service.OpportunityPatch{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Availability:     req.Availability,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		ZipCode:          req.ZipCode,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		VolunteersNeeded: req.VolunteersNeeded,
		Featured:         req.Featured,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OpportunityHandler) Delete(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "opportunity deleted successfully"})
}

// Mine 组织自己的活动；stats=true 时附带申请统计
func (h *OpportunityHandler) Mine(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	active, ok := boolQuery(c, "is_active")
	if !ok {
		return
	}
	page, limit := pageQuery(c)

	if c.Query("stats") == "true" {
		res, err := h.svc.MineWithStats(c.Request.Context(), caller, active, page, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}
	res, err := h.svc.Mine(c.Request.Context(), caller, active, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
