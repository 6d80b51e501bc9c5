// Package store persists users, vendor applications and everything hanging
// off them. GormStore is the production implementation; MemoryStore backs
// local development (DB_DRIVER=memory) and tests.
package store

import (
	"context"
	"errors"

	"vendor-onboarding-api/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ApplicationFilter narrows the admin application listing.
type ApplicationFilter struct {
	Status models.ApplicationStatus
	Search string
	Skip   int
	Limit  int
}

type ApplicationStats struct {
	Total    int64 `json:"total_applications"`
	Pending  int64 `json:"pending_applications"`
	Approved int64 `json:"approved_applications"`
	Rejected int64 `json:"rejected_applications"`
}

// Contact kinds accepted by ContactInUse.
const (
	ContactEmail = "email"
	ContactPhone = "phone"
)

// Store is the data-store boundary. Methods called on the Store handed to a
// WithinTx callback run inside that transaction; lock=true requests a row
// lock held until the transaction ends.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	LockUser(ctx context.Context, id uint) error
	ContactInUse(ctx context.Context, kind, value string) (bool, error)

	CreateApplication(ctx context.Context, app *models.VendorApplication) error
	FindApplication(ctx context.Context, applicationID string, lock bool) (*models.VendorApplication, error)
	FindApplicationByPK(ctx context.Context, id uint, lock bool) (*models.VendorApplication, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]models.VendorApplication, int64, error)
	ListApplicationsByUser(ctx context.Context, userID uint) ([]models.VendorApplication, error)
	CountActiveApplications(ctx context.Context, userID uint) (int64, error)
	SaveApplication(ctx context.Context, app *models.VendorApplication) error
	VendorIDExists(ctx context.Context, vendorID string) (bool, error)
	ApplicationStats(ctx context.Context) (ApplicationStats, error)

	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, applicationPK uint) ([]models.AuditLog, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	SavePayment(ctx context.Context, payment *models.Payment) error
	FindPaymentByOrderID(ctx context.Context, orderID string, lock bool) (*models.Payment, error)
	LatestPayment(ctx context.Context, applicationPK uint) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID uint) ([]models.Payment, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	FindDocument(ctx context.Context, id uint) (*models.Document, error)
	ListDocuments(ctx context.Context, applicationPK uint) ([]models.Document, error)

	FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error)
	FindTemplateByID(ctx context.Context, id uint) (*models.NotificationTemplate, error)
	ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error)
	CreateTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error
	SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func normalizeFilter(f ApplicationFilter) ApplicationFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	return f
}

type statusCount struct {
	Status models.ApplicationStatus
	Total  int64
}

func foldStats(rows []statusCount) ApplicationStats {
	var stats ApplicationStats
	for _, row := range rows {
		stats.Total += row.Total
		switch {
		case row.Status.IsActive():
			stats.Pending += row.Total
		case row.Status == models.StatusApproved:
			stats.Approved += row.Total
		case row.Status == models.StatusRejected:
			stats.Rejected += row.Total
		}
	}
	return stats
}
