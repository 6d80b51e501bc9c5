package models

import (
	"time"
)

type UserRole string

const (
	RoleVendor   UserRole = "vendor"
	RoleAdmin    UserRole = "admin"
	RoleReviewer UserRole = "reviewer"
)

type User struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	Email        string    `gorm:"column:email;size:191;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FullName     string    `gorm:"column:full_name;not null" json:"full_name"`
	Phone        *string   `gorm:"column:phone;size:32;index" json:"phone,omitempty"`
	Role         UserRole  `gorm:"column:role;size:16;not null;default:vendor" json:"role"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user may use the review endpoints.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleReviewer
}

// PhoneNumber returns the stored phone or an empty string.
func (u User) PhoneNumber() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}
