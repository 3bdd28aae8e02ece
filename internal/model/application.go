package model

import "time"

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusWithdrawn ApplicationStatus = "withdrawn"
	StatusCompleted ApplicationStatus = "completed"
)

type Application struct {
	ID            uint64            `gorm:"primaryKey" json:"id"`
	OpportunityID uint64            `gorm:"not null;uniqueIndex:uk_opportunity_volunteer,priority:1;index:idx_opportunity_status,priority:1" json:"opportunity_id"`
	VolunteerID   uint64            `gorm:"not null;uniqueIndex:uk_opportunity_volunteer,priority:2;index:idx_volunteer_status,priority:1" json:"volunteer_id"`
	Status        ApplicationStatus `gorm:"size:16;not null;default:pending;index:idx_opportunity_status,priority:2;index:idx_volunteer_status,priority:2" json:"status"`
	Message       string            `gorm:"size:1000" json:"message,omitempty"`
	AppliedAt     time.Time         `gorm:"not null" json:"applied_at"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedBy    *uint64           `json:"reviewed_by,omitempty"`
	ReviewNotes   string            `gorm:"size:500" json:"review_notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// transitions 状态机：completed 只能由管理侧写入，这里不开放
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusWithdrawn},
	StatusApproved: {StatusCompleted},
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWithdrawn, StatusCompleted:
		return true
	}
	return false
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ReleasesSlot 终态 rejected / withdrawn 归还名额
func (s ApplicationStatus) ReleasesSlot() bool {
	return s == StatusRejected || s == StatusWithdrawn
}
