package model

import "time"

const (
	AvailabilityWeekdays = "weekdays"
	AvailabilityWeekends = "weekends"
	AvailabilityBoth     = "both"
	AvailabilityFlexible = "flexible"
)

type Opportunity struct {
	ID                   uint64     `gorm:"primaryKey;index:idx_org_time,priority:2" json:"id"`
	OrganizationID       uint64     `gorm:"not null;index:idx_org_time,priority:1" json:"organization_id"`
	Title                string     `gorm:"size:200;not null" json:"title"`
	Description          string     `gorm:"type:text" json:"description"`
	Category             string     `gorm:"size:100;not null;index" json:"category"`
	Availability         string     `gorm:"size:16;not null" json:"availability"`
	Address              string     `gorm:"size:200" json:"address,omitempty"`
	City                 string     `gorm:"size:100" json:"city,omitempty"`
	State                string     `gorm:"size:100" json:"state,omitempty"`
	ZipCode              string     `gorm:"size:20" json:"zip_code,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	VolunteersNeeded     int        `gorm:"not null;default:1" json:"volunteers_needed"`
	VolunteersRegistered int        `gorm:"not null;default:0" json:"volunteers_registered"`
	IsActive             bool       `gorm:"not null;default:true;index" json:"is_active"`
	Featured             bool       `gorm:"not null;default:false" json:"featured"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// OpportunityStats 组织侧列表附带的申请统计
type OpportunityStats struct {
	Opportunity
	TotalApplications   int64 `json:"total_applications"`
	PendingApplications int64 `json:"pending_applications"`
}

func ValidAvailability(a string) bool {
	switch a {
	case AvailabilityWeekdays, AvailabilityWeekends, AvailabilityBoth, AvailabilityFlexible:
		return true
	}
	return false
}
