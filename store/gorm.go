package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vendor-onboarding-api/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps gorm errors onto the package sentinels. The database must be
// opened with TranslateError so unique violations surface as ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func forUpdate(q *gorm.DB, lock bool) *gorm.DB {
	if lock {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

/* ==========================
   Users
   ========================== */

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error)
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// LockUser takes a row lock on the user so concurrent submissions by the same
// user serialize on it.
func (s *GormStore) LockUser(ctx context.Context, id uint) error {
	var user models.User
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", id).First(&user).Error
	return translate(err)
}

func (s *GormStore) ContactInUse(ctx context.Context, kind, value string) (bool, error) {
	var column string
	switch kind {
	case ContactEmail:
		column = "email"
		value = strings.ToLower(strings.TrimSpace(value))
	case ContactPhone:
		column = "phone"
		value = strings.TrimSpace(value)
	default:
		return false, fmt.Errorf("unknown contact kind %q", kind)
	}

	var count int64
	if err := s.conn(ctx).Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

/* ==========================
   Applications
   ========================== */

func (s *GormStore) CreateApplication(ctx context.Context, app *models.VendorApplication) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(app).Error)
}

func (s *GormStore) FindApplication(ctx context.Context, applicationID string, lock bool) (*models.VendorApplication, error) {
	var app models.VendorApplication
	q := forUpdate(s.conn(ctx), lock)
	if err := q.Where("application_id = ?", applicationID).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (s *GormStore) FindApplicationByPK(ctx context.Context, id uint, lock bool) (*models.VendorApplication, error) {
	var app models.VendorApplication
	q := forUpdate(s.conn(ctx), lock)
	if err := q.Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (s *GormStore) ListApplications(ctx context.Context, filter ApplicationFilter) ([]models.VendorApplication, int64, error) {
	filter = normalizeFilter(filter)

	q := s.conn(ctx).Model(&models.VendorApplication{}).
		Joins("JOIN users ON users.id = vendor_applications.user_id")
	if filter.Status != "" {
		q = q.Where("vendor_applications.status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where(
			"vendor_applications.business_name LIKE ? OR vendor_applications.application_id LIKE ? OR users.email LIKE ?",
			like, like, like,
		)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []models.VendorApplication
	if err := q.Preload("User").
		Order("vendor_applications.submitted_at DESC, vendor_applications.id DESC").
		Offset(filter.Skip).Limit(filter.Limit).
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (s *GormStore) ListApplicationsByUser(ctx context.Context, userID uint) ([]models.VendorApplication, error) {
	var apps []models.VendorApplication
	if err := s.conn(ctx).Where("user_id = ?", userID).
		Order("submitted_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *GormStore) CountActiveApplications(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.VendorApplication{}).
		Where("user_id = ? AND status IN ?", userID, models.ActiveStatuses).
		Count(&count).Error
	return count, err
}

func (s *GormStore) SaveApplication(ctx context.Context, app *models.VendorApplication) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(app).Error)
}

func (s *GormStore) VendorIDExists(ctx context.Context, vendorID string) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.VendorApplication{}).
		Where("vendor_id = ?", vendorID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) ApplicationStats(ctx context.Context) (ApplicationStats, error) {
	var rows []statusCount
	if err := s.conn(ctx).Model(&models.VendorApplication{}).
		Select("status, COUNT(*) AS total").Group("status").
		Scan(&rows).Error; err != nil {
		return ApplicationStats{}, err
	}
	return foldStats(rows), nil
}

/* ==========================
   Audit logs
   ========================== */

func (s *GormStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(entry).Error)
}

func (s *GormStore) ListAuditLogs(ctx context.Context, applicationPK uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := s.conn(ctx).Preload("User").
		Where("application_pk = ?", applicationPK).
		Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

/* ==========================
   Payments
   ========================== */

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(payment).Error)
}

func (s *GormStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(payment).Error)
}

func (s *GormStore) FindPaymentByOrderID(ctx context.Context, orderID string, lock bool) (*models.Payment, error) {
	var payment models.Payment
	q := forUpdate(s.conn(ctx), lock)
	if err := q.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *GormStore) LatestPayment(ctx context.Context, applicationPK uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.conn(ctx).Where("application_pk = ?", applicationPK).
		Order("id DESC").First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *GormStore) ListPaymentsByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.conn(ctx).Preload("Application").
		Joins("JOIN vendor_applications ON vendor_applications.id = payments.application_pk").
		Where("vendor_applications.user_id = ?", userID).
		Order("payments.created_at DESC, payments.id DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

/* ==========================
   Documents
   ========================== */

func (s *GormStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(doc).Error)
}

func (s *GormStore) FindDocument(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.conn(ctx).Preload("Application").Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (s *GormStore) ListDocuments(ctx context.Context, applicationPK uint) ([]models.Document, error) {
	var docs []models.Document
	if err := s.conn(ctx).Where("application_pk = ?", applicationPK).
		Order("uploaded_at ASC, id ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

/* ==========================
   Notification templates
   ========================== */

func (s *GormStore) FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error) {
	var tmpl models.NotificationTemplate
	if err := s.conn(ctx).Where("name = ?", name).First(&tmpl).Error; err != nil {
		return nil, translate(err)
	}
	return &tmpl, nil
}

func (s *GormStore) FindTemplateByID(ctx context.Context, id uint) (*models.NotificationTemplate, error) {
	var tmpl models.NotificationTemplate
	if err := s.conn(ctx).Where("id = ?", id).First(&tmpl).Error; err != nil {
		return nil, translate(err)
	}
	return &tmpl, nil
}

func (s *GormStore) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	var items []models.NotificationTemplate
	if err := s.conn(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) CreateTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	return translate(s.conn(ctx).Create(tmpl).Error)
}

func (s *GormStore) SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	return translate(s.conn(ctx).Save(tmpl).Error)
}
