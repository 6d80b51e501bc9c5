package models

import (
	"time"
)

// Allowed upload content types for application documents.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimePDF  = "application/pdf"
)

type Document struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"id"`
	ApplicationPK uint      `gorm:"column:application_pk;index;not null" json:"-"`
	DocumentType  string    `gorm:"column:document_type;size:64;not null" json:"document_type"`
	Filename      string    `gorm:"column:filename;not null" json:"filename"`
	FilePath      string    `gorm:"column:file_path;not null" json:"-"`
	FileSize      int64     `gorm:"column:file_size" json:"file_size"`
	MimeType      string    `gorm:"column:mime_type;size:64" json:"mime_type"`
	UploadedAt    time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`

	// Relations
	Application *VendorApplication `gorm:"foreignKey:ApplicationPK" json:"application,omitempty"`
}

// TableName overrides
func (Document) TableName() string {
	return "documents"
}

// AllModels lists every table owned by the service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&VendorApplication{},
		&Document{},
		&Payment{},
		&AuditLog{},
		&NotificationTemplate{},
	}
}
