package models

import "time"

type ApplicationStatus string

const (
	StatusPending        ApplicationStatus = "pending"
	StatusPaymentPending ApplicationStatus = "payment_pending"
	StatusUnderReview    ApplicationStatus = "under_review"
	StatusApproved       ApplicationStatus = "approved"
	StatusRejected       ApplicationStatus = "rejected"
)

// ActiveStatuses lists the statuses that block a user from submitting again.
var ActiveStatuses = []ApplicationStatus{StatusPending, StatusPaymentPending, StatusUnderReview}

// IsActive reports whether the status is non-terminal.
func (s ApplicationStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusPaymentPending, StatusUnderReview:
		return true
	}
	return false
}

// IsValid reports whether s is a known status.
func (s ApplicationStatus) IsValid() bool {
	return s.IsActive() || s == StatusApproved || s == StatusRejected
}

// VendorApplication is one onboarding record. Status only changes through
// the workflow transitions in the services package.
type VendorApplication struct {
	ID            uint   `gorm:"primaryKey;column:id" json:"id"`
	ApplicationID string `gorm:"column:application_id;size:32;uniqueIndex;not null" json:"application_id"`
	UserID        uint   `gorm:"column:user_id;index;not null" json:"user_id"`

	BusinessName       string  `gorm:"column:business_name;not null" json:"business_name"`
	BusinessType       string  `gorm:"column:business_type;not null" json:"business_type"`
	RegistrationNumber *string `gorm:"column:registration_number" json:"registration_number,omitempty"`
	TaxID              *string `gorm:"column:tax_id" json:"tax_id,omitempty"`

	Address    string `gorm:"column:address;type:text;not null" json:"address"`
	City       string `gorm:"column:city;not null" json:"city"`
	State      string `gorm:"column:state;not null" json:"state"`
	PostalCode string `gorm:"column:postal_code;not null" json:"postal_code"`
	Country    string `gorm:"column:country;not null" json:"country"`

	BankName      *string `gorm:"column:bank_name" json:"bank_name,omitempty"`
	AccountNumber *string `gorm:"column:account_number" json:"account_number,omitempty"`
	RoutingNumber *string `gorm:"column:routing_number" json:"routing_number,omitempty"`

	Status   ApplicationStatus `gorm:"column:status;size:32;index;not null;default:pending" json:"status"`
	VendorID *string           `gorm:"column:vendor_id;size:32;uniqueIndex" json:"vendor_id,omitempty"`

	// ActiveUserID mirrors UserID while the application is non-terminal and is
	// NULL afterwards; the unique index allows one active application per user.
	ActiveUserID *uint `gorm:"column:active_user_id;uniqueIndex:uq_vendor_applications_active_user" json:"-"`

	SubmittedAt time.Time  `gorm:"column:submitted_at;not null" json:"submitted_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ApprovedAt  *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides
func (VendorApplication) TableName() string {
	return "vendor_applications"
}
