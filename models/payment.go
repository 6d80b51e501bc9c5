package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment records one gateway order raised for an application.
type Payment struct {
	ID            uint            `gorm:"primaryKey;column:id" json:"id"`
	ApplicationPK uint            `gorm:"column:application_pk;index;not null" json:"-"`
	OrderID       string          `gorm:"column:order_id;size:64;uniqueIndex;not null" json:"order_id"`
	PaymentID     *string         `gorm:"column:payment_id;size:64" json:"payment_id,omitempty"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	Currency      string          `gorm:"column:currency;size:3;not null;default:INR" json:"currency"`
	Status        PaymentStatus   `gorm:"column:status;size:16;index;not null;default:pending" json:"status"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Application *VendorApplication `gorm:"foreignKey:ApplicationPK" json:"application,omitempty"`
}

// TableName overrides
func (Payment) TableName() string {
	return "payments"
}
