package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
)

// PaymentGateway is satisfied by *clients.Razorpay.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string, notes map[string]string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type PaymentConfig struct {
	Fee      decimal.Decimal
	Currency string
}

type OrderResult struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	KeyID         string          `json:"key_id"`
	ApplicationID string          `json:"application_id"`
}

type VerifyResult struct {
	Payment     models.Payment           `json:"payment"`
	Application models.VendorApplication `json:"application"`
}

type PaymentService struct {
	store    store.Store
	workflow *Workflow
	gateway  PaymentGateway
	cfg      PaymentConfig
}

func NewPaymentService(st store.Store, workflow *Workflow, gateway PaymentGateway, cfg PaymentConfig) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &PaymentService{store: st, workflow: workflow, gateway: gateway, cfg: cfg}
}

// payable reports whether a new order may be raised for app: either it is
// still pending, or it awaits payment and its latest attempt failed.
func payable(ctx context.Context, st store.Store, app *models.VendorApplication) (bool, error) {
	switch app.Status {
	case models.StatusPending:
		return true, nil
	case models.StatusPaymentPending:
		latest, err := st.LatestPayment(ctx, app.ID)
		if errors.Is(err, store.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return latest.Status == models.PaymentFailed, nil
	}
	return false, nil
}

func (s *PaymentService) paymentData(p *models.Payment) map[string]string {
	data := map[string]string{
		"order_id": p.OrderID,
		"amount":   p.Amount.StringFixed(2),
		"currency": p.Currency,
	}
	if p.PaymentID != nil {
		data["payment_id"] = *p.PaymentID
	}
	return data
}

// CreateOrder raises a gateway order for the configured application fee. The
// gateway call happens before the transaction so no lock is held across it.
func (s *PaymentService) CreateOrder(ctx context.Context, user *models.User, applicationID string) (*OrderResult, error) {
	app, err := s.store.FindApplication(ctx, applicationID, false)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	if app.UserID != user.ID {
		return nil, ErrApplicationNotFound
	}
	ok, err := payable(ctx, s.store, app)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: status is %s", ErrPaymentNotAllowed, app.Status)
	}

	orderID, err := s.gateway.CreateOrder(ctx, s.cfg.Fee, s.cfg.Currency, map[string]string{
		"application_id": app.ApplicationID,
		"business_name":  app.BusinessName,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	err = s.workflow.Run(ctx, func(tx store.Store, rec *Recorder) error {
		locked, err := tx.FindApplication(ctx, applicationID, true)
		if err != nil {
			return err
		}
		ok, err := payable(ctx, tx, locked)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: status is %s", ErrPaymentNotAllowed, locked.Status)
		}

		payment := &models.Payment{
			ApplicationPK: locked.ID,
			OrderID:       orderID,
			Amount:        s.cfg.Fee,
			Currency:      s.cfg.Currency,
			Status:        models.PaymentPending,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		// a retry after a failed attempt keeps the application in payment_pending
		if locked.Status == models.StatusPending {
			if _, err := rec.Transition(ctx, locked, TriggerPaymentOrderCreated, user.ID, "order "+orderID, s.paymentData(payment)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &OrderResult{
		OrderID:       orderID,
		Amount:        s.cfg.Fee,
		Currency:      s.cfg.Currency,
		KeyID:         s.gateway.KeyID(),
		ApplicationID: app.ApplicationID,
	}, nil
}

// Verify reconciles a checkout callback. With a bad signature the payment is
// marked failed, the failure is committed and notified, and
// ErrPaymentVerificationFailed is returned alongside the result.
func (s *PaymentService) Verify(ctx context.Context, user *models.User, orderID, paymentID, signature string) (*VerifyResult, error) {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)

	var result VerifyResult
	var valid bool
	err := s.workflow.Run(ctx, func(tx store.Store, rec *Recorder) error {
		payment, err := tx.FindPaymentByOrderID(ctx, orderID, true)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		app, err := tx.FindApplicationByPK(ctx, payment.ApplicationPK, true)
		if err != nil {
			return err
		}
		if app.UserID != user.ID && !user.IsStaff() {
			return ErrPaymentNotFound
		}
		if payment.Status != models.PaymentPending {
			return fmt.Errorf("%w: payment is %s", ErrPaymentAlreadyProcessed, payment.Status)
		}

		valid = s.gateway.VerifySignature(orderID, paymentID, signature)
		trigger := TriggerPaymentFailed
		payment.Status = models.PaymentFailed
		if valid {
			trigger = TriggerPaymentSucceeded
			payment.Status = models.PaymentSuccess
		}
		if paymentID != "" {
			payment.PaymentID = &paymentID
		}
		if err := tx.SavePayment(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		detail := "payment " + paymentID
		if !valid {
			detail = "signature verification failed for payment " + paymentID
		}
		if _, err := rec.Transition(ctx, app, trigger, user.ID, detail, s.paymentData(payment)); err != nil {
			return err
		}

		result = VerifyResult{Payment: *payment, Application: *app}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !valid {
		return &result, ErrPaymentVerificationFailed
	}
	return &result, nil
}

func (s *PaymentService) History(ctx context.Context, user *models.User) ([]models.Payment, error) {
	return s.store.ListPaymentsByUser(ctx, user.ID)
}
