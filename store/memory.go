package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vendor-onboarding-api/models"
)

// MemoryStore keeps everything in process memory. A transaction holds the
// store mutex for its whole duration, which gives the same serialization the
// row locks give GormStore, and restores a snapshot when the callback fails.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

type memData struct {
	seq          uint
	users        map[uint]models.User
	applications map[uint]models.VendorApplication
	audits       map[uint]models.AuditLog
	payments     map[uint]models.Payment
	documents    map[uint]models.Document
	templates    map[uint]models.NotificationTemplate
}

func newMemData() *memData {
	return &memData{
		users:        map[uint]models.User{},
		applications: map[uint]models.VendorApplication{},
		audits:       map[uint]models.AuditLog{},
		payments:     map[uint]models.Payment{},
		documents:    map[uint]models.Document{},
		templates:    map[uint]models.NotificationTemplate{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		seq:          d.seq,
		users:        cloneMap(d.users),
		applications: cloneMap(d.applications),
		audits:       cloneMap(d.audits),
		payments:     cloneMap(d.payments),
		documents:    cloneMap(d.documents),
		templates:    cloneMap(d.templates),
	}
}

func (d *memData) nextID() uint {
	d.seq++
	return d.seq
}

// memTx runs against the data of a store whose mutex is already held.
type memTx struct {
	data *memData
}

func (s *MemoryStore) locked(fn func(tx *memTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{data: s.data})
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memTx{data: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (t *memTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	snapshot := t.data.clone()
	if err := fn(t); err != nil {
		*t.data = *snapshot
		return err
	}
	return nil
}

/* ==========================
   MemoryStore delegates every call to a memTx under the mutex.
   ========================== */

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.locked(func(tx *memTx) error { return tx.CreateUser(ctx, user) })
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id uint) (out *models.User, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindUserByID(ctx, id); return err })
	return out, err
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (out *models.User, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindUserByEmail(ctx, email); return err })
	return out, err
}

func (s *MemoryStore) LockUser(ctx context.Context, id uint) error {
	return s.locked(func(tx *memTx) error { return tx.LockUser(ctx, id) })
}

func (s *MemoryStore) ContactInUse(ctx context.Context, kind, value string) (out bool, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ContactInUse(ctx, kind, value); return err })
	return out, err
}

func (s *MemoryStore) CreateApplication(ctx context.Context, app *models.VendorApplication) error {
	return s.locked(func(tx *memTx) error { return tx.CreateApplication(ctx, app) })
}

func (s *MemoryStore) FindApplication(ctx context.Context, applicationID string, lock bool) (out *models.VendorApplication, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindApplication(ctx, applicationID, lock); return err })
	return out, err
}

func (s *MemoryStore) FindApplicationByPK(ctx context.Context, id uint, lock bool) (out *models.VendorApplication, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindApplicationByPK(ctx, id, lock); return err })
	return out, err
}

func (s *MemoryStore) ListApplications(ctx context.Context, filter ApplicationFilter) (out []models.VendorApplication, total int64, err error) {
	err = s.locked(func(tx *memTx) error { out, total, err = tx.ListApplications(ctx, filter); return err })
	return out, total, err
}

func (s *MemoryStore) ListApplicationsByUser(ctx context.Context, userID uint) (out []models.VendorApplication, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ListApplicationsByUser(ctx, userID); return err })
	return out, err
}

func (s *MemoryStore) CountActiveApplications(ctx context.Context, userID uint) (out int64, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.CountActiveApplications(ctx, userID); return err })
	return out, err
}

func (s *MemoryStore) SaveApplication(ctx context.Context, app *models.VendorApplication) error {
	return s.locked(func(tx *memTx) error { return tx.SaveApplication(ctx, app) })
}

func (s *MemoryStore) VendorIDExists(ctx context.Context, vendorID string) (out bool, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.VendorIDExists(ctx, vendorID); return err })
	return out, err
}

func (s *MemoryStore) ApplicationStats(ctx context.Context) (out ApplicationStats, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ApplicationStats(ctx); return err })
	return out, err
}

func (s *MemoryStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.locked(func(tx *memTx) error { return tx.AppendAuditLog(ctx, entry) })
}

func (s *MemoryStore) ListAuditLogs(ctx context.Context, applicationPK uint) (out []models.AuditLog, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ListAuditLogs(ctx, applicationPK); return err })
	return out, err
}

func (s *MemoryStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.locked(func(tx *memTx) error { return tx.CreatePayment(ctx, payment) })
}

func (s *MemoryStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	return s.locked(func(tx *memTx) error { return tx.SavePayment(ctx, payment) })
}

func (s *MemoryStore) FindPaymentByOrderID(ctx context.Context, orderID string, lock bool) (out *models.Payment, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindPaymentByOrderID(ctx, orderID, lock); return err })
	return out, err
}

func (s *MemoryStore) LatestPayment(ctx context.Context, applicationPK uint) (out *models.Payment, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.LatestPayment(ctx, applicationPK); return err })
	return out, err
}

func (s *MemoryStore) ListPaymentsByUser(ctx context.Context, userID uint) (out []models.Payment, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ListPaymentsByUser(ctx, userID); return err })
	return out, err
}

func (s *MemoryStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.locked(func(tx *memTx) error { return tx.CreateDocument(ctx, doc) })
}

func (s *MemoryStore) FindDocument(ctx context.Context, id uint) (out *models.Document, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindDocument(ctx, id); return err })
	return out, err
}

func (s *MemoryStore) ListDocuments(ctx context.Context, applicationPK uint) (out []models.Document, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ListDocuments(ctx, applicationPK); return err })
	return out, err
}

func (s *MemoryStore) FindTemplateByName(ctx context.Context, name string) (out *models.NotificationTemplate, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindTemplateByName(ctx, name); return err })
	return out, err
}

func (s *MemoryStore) FindTemplateByID(ctx context.Context, id uint) (out *models.NotificationTemplate, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.FindTemplateByID(ctx, id); return err })
	return out, err
}

func (s *MemoryStore) ListTemplates(ctx context.Context) (out []models.NotificationTemplate, err error) {
	err = s.locked(func(tx *memTx) error { out, err = tx.ListTemplates(ctx); return err })
	return out, err
}

func (s *MemoryStore) CreateTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	return s.locked(func(tx *memTx) error { return tx.CreateTemplate(ctx, tmpl) })
}

func (s *MemoryStore) SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	return s.locked(func(tx *memTx) error { return tx.SaveTemplate(ctx, tmpl) })
}

/* ==========================
   memTx: the actual implementation
   ========================== */

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func (t *memTx) CreateUser(_ context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range t.data.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: users.email %s", ErrDuplicate, user.Email)
		}
	}
	user.ID = t.data.nextID()
	stamp(&user.CreatedAt, &user.UpdatedAt)
	t.data.users[user.ID] = *user
	return nil
}

func (t *memTx) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := t.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (t *memTx) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range t.data.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) LockUser(_ context.Context, id uint) error {
	if _, ok := t.data.users[id]; !ok {
		return ErrNotFound
	}
	return nil
}

func (t *memTx) ContactInUse(_ context.Context, kind, value string) (bool, error) {
	value = strings.TrimSpace(value)
	for _, u := range t.data.users {
		switch kind {
		case ContactEmail:
			if strings.EqualFold(u.Email, value) {
				return true, nil
			}
		case ContactPhone:
			if u.Phone != nil && *u.Phone == value {
				return true, nil
			}
		default:
			return false, fmt.Errorf("unknown contact kind %q", kind)
		}
	}
	return false, nil
}

func (t *memTx) checkApplicationUnique(app *models.VendorApplication) error {
	for id, other := range t.data.applications {
		if id == app.ID {
			continue
		}
		if other.ApplicationID == app.ApplicationID {
			return fmt.Errorf("%w: vendor_applications.application_id %s", ErrDuplicate, app.ApplicationID)
		}
		if app.VendorID != nil && other.VendorID != nil && *app.VendorID == *other.VendorID {
			return fmt.Errorf("%w: vendor_applications.vendor_id %s", ErrDuplicate, *app.VendorID)
		}
		if app.ActiveUserID != nil && other.ActiveUserID != nil && *app.ActiveUserID == *other.ActiveUserID {
			return fmt.Errorf("%w: vendor_applications.active_user_id %d", ErrDuplicate, *app.ActiveUserID)
		}
	}
	return nil
}

func (t *memTx) CreateApplication(_ context.Context, app *models.VendorApplication) error {
	if err := t.checkApplicationUnique(app); err != nil {
		return err
	}
	app.ID = t.data.nextID()
	stamp(&app.CreatedAt, &app.UpdatedAt)
	stored := *app
	stored.User = nil
	t.data.applications[app.ID] = stored
	return nil
}

func (t *memTx) FindApplication(_ context.Context, applicationID string, _ bool) (*models.VendorApplication, error) {
	for _, app := range t.data.applications {
		if app.ApplicationID == applicationID {
			app := app
			return &app, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) FindApplicationByPK(_ context.Context, id uint, _ bool) (*models.VendorApplication, error) {
	app, ok := t.data.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &app, nil
}

func (t *memTx) withUser(app models.VendorApplication) models.VendorApplication {
	if u, ok := t.data.users[app.UserID]; ok {
		app.User = &u
	}
	return app
}

func sortApplications(apps []models.VendorApplication) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].SubmittedAt.Equal(apps[j].SubmittedAt) {
			return apps[i].SubmittedAt.After(apps[j].SubmittedAt)
		}
		return apps[i].ID > apps[j].ID
	})
}

func (t *memTx) ListApplications(_ context.Context, filter ApplicationFilter) ([]models.VendorApplication, int64, error) {
	filter = normalizeFilter(filter)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]models.VendorApplication, 0)
	for _, app := range t.data.applications {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		app = t.withUser(app)
		if search != "" {
			email := ""
			if app.User != nil {
				email = app.User.Email
			}
			if !strings.Contains(strings.ToLower(app.BusinessName), search) &&
				!strings.Contains(strings.ToLower(app.ApplicationID), search) &&
				!strings.Contains(strings.ToLower(email), search) {
				continue
			}
		}
		matched = append(matched, app)
	}
	sortApplications(matched)

	total := int64(len(matched))
	if filter.Skip >= len(matched) {
		return []models.VendorApplication{}, total, nil
	}
	end := filter.Skip + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Skip:end], total, nil
}

func (t *memTx) ListApplicationsByUser(_ context.Context, userID uint) ([]models.VendorApplication, error) {
	out := make([]models.VendorApplication, 0)
	for _, app := range t.data.applications {
		if app.UserID == userID {
			out = append(out, app)
		}
	}
	sortApplications(out)
	return out, nil
}

func (t *memTx) CountActiveApplications(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, app := range t.data.applications {
		if app.UserID == userID && app.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) SaveApplication(_ context.Context, app *models.VendorApplication) error {
	if _, ok := t.data.applications[app.ID]; !ok {
		return ErrNotFound
	}
	if err := t.checkApplicationUnique(app); err != nil {
		return err
	}
	stamp(nil, &app.UpdatedAt)
	stored := *app
	stored.User = nil
	t.data.applications[app.ID] = stored
	return nil
}

func (t *memTx) VendorIDExists(_ context.Context, vendorID string) (bool, error) {
	for _, app := range t.data.applications {
		if app.VendorID != nil && *app.VendorID == vendorID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ApplicationStats(_ context.Context) (ApplicationStats, error) {
	counts := map[models.ApplicationStatus]int64{}
	for _, app := range t.data.applications {
		counts[app.Status]++
	}
	rows := make([]statusCount, 0, len(counts))
	for status, total := range counts {
		rows = append(rows, statusCount{Status: status, Total: total})
	}
	return foldStats(rows), nil
}

func (t *memTx) AppendAuditLog(_ context.Context, entry *models.AuditLog) error {
	entry.ID = t.data.nextID()
	stamp(&entry.CreatedAt, nil)
	stored := *entry
	stored.User = nil
	t.data.audits[entry.ID] = stored
	return nil
}

func (t *memTx) ListAuditLogs(_ context.Context, applicationPK uint) ([]models.AuditLog, error) {
	out := make([]models.AuditLog, 0)
	for _, entry := range t.data.audits {
		if entry.ApplicationPK != applicationPK {
			continue
		}
		if u, ok := t.data.users[entry.UserID]; ok {
			entry.User = &u
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) CreatePayment(_ context.Context, payment *models.Payment) error {
	for _, p := range t.data.payments {
		if p.OrderID == payment.OrderID {
			return fmt.Errorf("%w: payments.order_id %s", ErrDuplicate, payment.OrderID)
		}
	}
	payment.ID = t.data.nextID()
	stamp(&payment.CreatedAt, &payment.UpdatedAt)
	stored := *payment
	stored.Application = nil
	t.data.payments[payment.ID] = stored
	return nil
}

func (t *memTx) SavePayment(_ context.Context, payment *models.Payment) error {
	if _, ok := t.data.payments[payment.ID]; !ok {
		return ErrNotFound
	}
	stamp(nil, &payment.UpdatedAt)
	stored := *payment
	stored.Application = nil
	t.data.payments[payment.ID] = stored
	return nil
}

func (t *memTx) FindPaymentByOrderID(_ context.Context, orderID string, _ bool) (*models.Payment, error) {
	for _, p := range t.data.payments {
		if p.OrderID == orderID {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) LatestPayment(_ context.Context, applicationPK uint) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range t.data.payments {
		if p.ApplicationPK != applicationPK {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			p := p
			latest = &p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (t *memTx) ListPaymentsByUser(_ context.Context, userID uint) ([]models.Payment, error) {
	out := make([]models.Payment, 0)
	for _, p := range t.data.payments {
		app, ok := t.data.applications[p.ApplicationPK]
		if !ok || app.UserID != userID {
			continue
		}
		p.Application = &app
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) CreateDocument(_ context.Context, doc *models.Document) error {
	doc.ID = t.data.nextID()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	stored := *doc
	stored.Application = nil
	t.data.documents[doc.ID] = stored
	return nil
}

func (t *memTx) FindDocument(_ context.Context, id uint) (*models.Document, error) {
	doc, ok := t.data.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if app, ok := t.data.applications[doc.ApplicationPK]; ok {
		doc.Application = &app
	}
	return &doc, nil
}

func (t *memTx) ListDocuments(_ context.Context, applicationPK uint) ([]models.Document, error) {
	out := make([]models.Document, 0)
	for _, doc := range t.data.documents {
		if doc.ApplicationPK == applicationPK {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) FindTemplateByName(_ context.Context, name string) (*models.NotificationTemplate, error) {
	for _, tmpl := range t.data.templates {
		if tmpl.Name == name {
			tmpl := tmpl
			return &tmpl, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) FindTemplateByID(_ context.Context, id uint) (*models.NotificationTemplate, error) {
	tmpl, ok := t.data.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tmpl, nil
}

func (t *memTx) ListTemplates(_ context.Context) ([]models.NotificationTemplate, error) {
	out := make([]models.NotificationTemplate, 0, len(t.data.templates))
	for _, tmpl := range t.data.templates {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *memTx) templateNameTaken(id uint, name string) bool {
	for _, other := range t.data.templates {
		if other.ID != id && other.Name == name {
			return true
		}
	}
	return false
}

func (t *memTx) CreateTemplate(_ context.Context, tmpl *models.NotificationTemplate) error {
	if t.templateNameTaken(0, tmpl.Name) {
		return fmt.Errorf("%w: notification_templates.name %s", ErrDuplicate, tmpl.Name)
	}
	tmpl.ID = t.data.nextID()
	stamp(&tmpl.CreatedAt, &tmpl.UpdatedAt)
	t.data.templates[tmpl.ID] = *tmpl
	return nil
}

func (t *memTx) SaveTemplate(_ context.Context, tmpl *models.NotificationTemplate) error {
	if _, ok := t.data.templates[tmpl.ID]; !ok {
		return ErrNotFound
	}
	if t.templateNameTaken(tmpl.ID, tmpl.Name) {
		return fmt.Errorf("%w: notification_templates.name %s", ErrDuplicate, tmpl.Name)
	}
	stamp(nil, &tmpl.UpdatedAt)
	t.data.templates[tmpl.ID] = *tmpl
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memTx)(nil)
	_ Store = (*GormStore)(nil)
)
