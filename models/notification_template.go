package models

import "time"

type NotificationTemplate struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"id"`
	Name          string    `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Subject       string    `gorm:"column:subject;not null" json:"subject"`
	EmailTemplate *string   `gorm:"column:email_template;type:text" json:"email_template,omitempty"`
	SMSTemplate   *string   `gorm:"column:sms_template;type:text" json:"sms_template,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (NotificationTemplate) TableName() string { return "notification_templates" }
