package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
	"vendor-onboarding-api/utils"
)

// SubmitApplicationInput carries the vendor-supplied profile.
type SubmitApplicationInput struct {
	BusinessName       string
	BusinessType       string
	RegistrationNumber *string
	TaxID              *string
	Address            string
	City               string
	State              string
	PostalCode         string
	Country            string
	BankName           *string
	AccountNumber      *string
	RoutingNumber      *string
}

// ApplicationDetail is the admin view of one application.
type ApplicationDetail struct {
	Application   models.VendorApplication `json:"application"`
	Documents     []models.Document        `json:"documents"`
	LatestPayment *models.Payment          `json:"latest_payment,omitempty"`
	AuditLogs     []models.AuditLog        `json:"audit_logs"`
}

type ApplicationService struct {
	store    store.Store
	workflow *Workflow
	now      func() time.Time
}

func NewApplicationService(st store.Store, workflow *Workflow) *ApplicationService {
	return &ApplicationService{store: st, workflow: workflow, now: time.Now}
}

func (in SubmitApplicationInput) normalized() (SubmitApplicationInput, error) {
	out := SubmitApplicationInput{
		BusinessName:       utils.SanitizeInput(in.BusinessName),
		BusinessType:       utils.SanitizeInput(in.BusinessType),
		RegistrationNumber: utils.SanitizeOptional(in.RegistrationNumber),
		TaxID:              utils.SanitizeOptional(in.TaxID),
		Address:            utils.SanitizeInput(in.Address),
		City:               utils.SanitizeInput(in.City),
		State:              utils.SanitizeInput(in.State),
		PostalCode:         utils.SanitizeInput(in.PostalCode),
		Country:            utils.SanitizeInput(in.Country),
		BankName:           utils.SanitizeOptional(in.BankName),
		AccountNumber:      utils.SanitizeOptional(in.AccountNumber),
		RoutingNumber:      utils.SanitizeOptional(in.RoutingNumber),
	}

	required := map[string]string{
		"business_name": out.BusinessName,
		"business_type": out.BusinessType,
		"address":       out.Address,
		"city":          out.City,
		"state":         out.State,
		"postal_code":   out.PostalCode,
		"country":       out.Country,
	}
	var missing []string
	for field, value := range required {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(sortedCopy(missing), ", "))
	}
	return out, nil
}

// Submit creates a pending application for user. A user may hold at most one
// application in pending, payment_pending or under_review.
func (s *ApplicationService) Submit(ctx context.Context, user *models.User, input SubmitApplicationInput) (*models.VendorApplication, error) {
	in, err := input.normalized()
	if err != nil {
		return nil, err
	}

	var created models.VendorApplication
	err = s.workflow.Run(ctx, func(tx store.Store, rec *Recorder) error {
		if err := tx.LockUser(ctx, user.ID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		active, err := tx.CountActiveApplications(ctx, user.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicatePendingApplication
		}

		applicationID, err := s.uniqueApplicationID(ctx, tx)
		if err != nil {
			return err
		}

		now := s.now()
		owner := user.ID
		app := &models.VendorApplication{
			ApplicationID:      applicationID,
			UserID:             user.ID,
			BusinessName:       in.BusinessName,
			BusinessType:       in.BusinessType,
			RegistrationNumber: in.RegistrationNumber,
			TaxID:              in.TaxID,
			Address:            in.Address,
			City:               in.City,
			State:              in.State,
			PostalCode:         in.PostalCode,
			Country:            in.Country,
			BankName:           in.BankName,
			AccountNumber:      in.AccountNumber,
			RoutingNumber:      in.RoutingNumber,
			Status:             models.StatusPending,
			ActiveUserID:       &owner,
			SubmittedAt:        now,
		}
		if err := tx.CreateApplication(ctx, app); err != nil {
			// the active_user_id unique index caught a concurrent submission
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicatePendingApplication
			}
			return err
		}

		created = *app
		rec.Notify(TemplateApplicationSubmitted, created, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *ApplicationService) uniqueApplicationID(ctx context.Context, tx store.Store) (string, error) {
	for i := 0; i < 3; i++ {
		candidate := utils.NewApplicationID(s.now())
		_, err := tx.FindApplication(ctx, candidate, false)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not allocate a unique application id")
}

// loadOwned returns the application if user owns it or is staff.
func (s *ApplicationService) loadOwned(ctx context.Context, user *models.User, applicationID string) (*models.VendorApplication, error) {
	app, err := s.store.FindApplication(ctx, applicationID, false)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	if app.UserID != user.ID && !user.IsStaff() {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, user *models.User, applicationID string) (*models.VendorApplication, error) {
	return s.loadOwned(ctx, user, applicationID)
}

func (s *ApplicationService) ListMine(ctx context.Context, user *models.User) ([]models.VendorApplication, error) {
	return s.store.ListApplicationsByUser(ctx, user.ID)
}

/* ==========================
   Admin
   ========================== */

func (s *ApplicationService) List(ctx context.Context, filter store.ApplicationFilter) ([]models.VendorApplication, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return s.store.ListApplications(ctx, filter)
}

func (s *ApplicationService) Detail(ctx context.Context, applicationID string) (*ApplicationDetail, error) {
	app, err := s.store.FindApplication(ctx, applicationID, false)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner, err := s.store.FindUserByID(ctx, app.UserID); err == nil {
		app.User = owner
	}

	docs, err := s.store.ListDocuments(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListAuditLogs(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	detail := &ApplicationDetail{Application: *app, Documents: docs, AuditLogs: logs}

	payment, err := s.store.LatestPayment(ctx, app.ID)
	switch {
	case err == nil:
		detail.LatestPayment = payment
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// Review decisions accepted by Review.
const (
	DecisionApprove = "approved"
	DecisionReject  = "rejected"
)

// Review approves or rejects an application that is under review.
func (s *ApplicationService) Review(ctx context.Context, reviewer *models.User, applicationID, decision, reason string) (*models.VendorApplication, error) {
	var trigger Trigger
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case DecisionApprove, string(TriggerApprove):
		trigger = TriggerApprove
	case DecisionReject, string(TriggerReject):
		trigger = TriggerReject
	default:
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidInput)
	}

	var reviewed models.VendorApplication
	err := s.workflow.Run(ctx, func(tx store.Store, rec *Recorder) error {
		app, err := tx.FindApplication(ctx, applicationID, true)
		if errors.Is(err, store.ErrNotFound) {
			return ErrApplicationNotFound
		}
		if err != nil {
			return err
		}
		if _, err := rec.Transition(ctx, app, trigger, reviewer.ID, reason, nil); err != nil {
			return err
		}
		reviewed = *app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reviewed, nil
}

func (s *ApplicationService) AuditLogs(ctx context.Context, applicationID string) ([]models.AuditLog, error) {
	app, err := s.store.FindApplication(ctx, applicationID, false)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.store.ListAuditLogs(ctx, app.ID)
}

func (s *ApplicationService) DashboardStats(ctx context.Context) (store.ApplicationStats, error) {
	return s.store.ApplicationStats(ctx)
}
