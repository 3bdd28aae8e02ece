package model

import "time"

const (
	RoleVolunteer    = "volunteer"
	RoleOrganization = "organization"
	RoleAdmin        = "admin"
)

// Rating 用户评分聚合，增量维护
type Rating struct {
	Average float64 `gorm:"not null;default:0" json:"average"`
	Count   int64   `gorm:"not null;default:0" json:"count"`
}

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:16;not null;default:volunteer;index" json:"role"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Bio       string    `gorm:"size:500" json:"bio,omitempty"`
	Rating    Rating    `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleVolunteer, RoleOrganization, RoleAdmin:
		return true
	}
	return false
}
