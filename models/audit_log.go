package models

import "time"

// AuditLog is one append-only entry per application status transition.
type AuditLog struct {
	ID            uint              `gorm:"primaryKey;column:id" json:"id"`
	ApplicationPK uint              `gorm:"column:application_pk;index;not null" json:"-"`
	UserID        uint              `gorm:"column:user_id;index" json:"user_id"`
	Action        string            `gorm:"column:action;size:64;not null" json:"action"`
	FromStatus    ApplicationStatus `gorm:"column:from_status;size:32" json:"from_status"`
	ToStatus      ApplicationStatus `gorm:"column:to_status;size:32" json:"to_status"`
	Details       *string           `gorm:"column:details;type:text" json:"details,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table for AuditLog.
func (AuditLog) TableName() string {
	return "audit_logs"
}
