package model

import "time"

// Organization 组织资料，一个组织账号对应一条
type Organization struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	UserID           uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	OrganizationName string    `gorm:"size:200;not null" json:"organization_name"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	Website          string    `gorm:"size:200" json:"website,omitempty"`
	Address          string    `gorm:"size:200" json:"address,omitempty"`
	City             string    `gorm:"size:100" json:"city,omitempty"`
	State            string    `gorm:"size:100" json:"state,omitempty"`
	ZipCode          string    `gorm:"size:20" json:"zip_code,omitempty"`
	ContactEmail     string    `gorm:"size:128" json:"contact_email,omitempty"`
	ContactPhone     string    `gorm:"size:20" json:"contact_phone,omitempty"`
	Verified         bool      `gorm:"not null;default:false;index" json:"verified"`
	User             *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
