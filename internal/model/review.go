package model

import "time"

const (
	ReviewVolunteerToOrg = "volunteer-to-org"
	ReviewOrgToVolunteer = "org-to-volunteer"
)

// Review OpportunityID=0 表示不关联具体活动的通用评价，
// 这样 (reviewer, reviewee, opportunity) 唯一索引对两种情况都生效
type Review struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	ReviewerID    uint64    `gorm:"not null;uniqueIndex:uk_review,priority:1" json:"reviewer_id"`
	RevieweeID    uint64    `gorm:"not null;uniqueIndex:uk_review,priority:2;index:idx_reviewee_type,priority:1" json:"reviewee_id"`
	OpportunityID uint64    `gorm:"not null;default:0;uniqueIndex:uk_review,priority:3" json:"opportunity_id,omitempty"`
	ReviewType    string    `gorm:"size:20;not null;index:idx_reviewee_type,priority:2" json:"review_type"`
	Rating        int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment       string    `gorm:"size:1000" json:"comment,omitempty"`
	IsVerified    bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ValidReviewType(t string) bool {
	return t == ReviewVolunteerToOrg || t == ReviewOrgToVolunteer
}

// RevieweeRole 评价方向要求的被评价人角色
func RevieweeRole(reviewType string) string {
	if reviewType == ReviewVolunteerToOrg {
		return RoleOrganization
	}
	return RoleVolunteer
}

// ReviewerRole 评价方向要求的评价人角色
func ReviewerRole(reviewType string) string {
	if reviewType == ReviewVolunteerToOrg {
		return RoleVolunteer
	}
	return RoleOrganization
}
