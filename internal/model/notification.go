package model

import "time"

type NotificationType string

const (
	NotifyApplicationReceived  NotificationType = "application_received"
	NotifyApplicationApproved  NotificationType = "application_approved"
	NotifyApplicationRejected  NotificationType = "application_rejected"
	NotifyApplicationWithdrawn NotificationType = "application_withdrawn"
	NotifyOpportunityCreated   NotificationType = "opportunity_created"
	NotifyOpportunityUpdated   NotificationType = "opportunity_updated"
	NotifyNewReview            NotificationType = "new_review"
	NotifyMessage              NotificationType = "message"
	NotifySystem               NotificationType = "system"
)

const (
	EntityOpportunity = "opportunity"
	EntityApplication = "application"
	EntityReview      = "review"
	EntityUser        = "user"
)

// 推送状态，复用 outbox 的三态
const (
	PushPending int8 = 0
	PushSent    int8 = 1
	PushFailed  int8 = 2
)

type Notification struct {
	ID          uint64           `gorm:"primaryKey" json:"id"`
	UserID      uint64           `gorm:"not null;index:idx_user_read_time,priority:1" json:"user_id"`
	Type        NotificationType `gorm:"size:32;not null" json:"type"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Message     string           `gorm:"size:1000;not null" json:"message"`
	Link        string           `gorm:"size:255" json:"link,omitempty"`
	RelatedType string           `gorm:"size:16" json:"related_type,omitempty"`
	RelatedID   uint64           `json:"related_id,omitempty"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_user_read_time,priority:2" json:"is_read"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	PushStatus  int8             `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'" json:"-"`
	PushRetry   int              `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time        `gorm:"index:idx_user_read_time,priority:3,sort:desc" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyApplicationReceived, NotifyApplicationApproved, NotifyApplicationRejected,
		NotifyApplicationWithdrawn, NotifyOpportunityCreated, NotifyOpportunityUpdated,
		NotifyNewReview, NotifyMessage, NotifySystem:
		return true
	}
	return false
}
