package handler

import (
	"net/http"

	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	svc *service.ReviewService
}

type CreateReviewReq struct {
	RevieweeID    uint64 `json:"reviewee_id" binding:"required"`
	OpportunityID uint64 `json:"opportunity_id"`
	Rating        int    `json:"rating" binding:"required"`
	Comment       string `json:"comment"`
	ReviewType    string `json:"review_type" binding:"required"`
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) Create(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}
	var req CreateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "please provide reviewee_id, rating, and review_type"})
		return
	}

	rv, err := h.svc.Create(c.Request.Context(), caller, service.CreateReviewInput{
		RevieweeID:    req.RevieweeID,
		OpportunityID: req.OpportunityID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		ReviewType:    req.ReviewType,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rv)
}

func (h *ReviewHandler) ListForUser(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	res, err := h.svc.ListForUser(c.Request.Context(), userID, c.Query("review_type"), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
