package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
	"vendor-onboarding-api/utils"
)

type Trigger string

const (
	TriggerPaymentOrderCreated Trigger = "payment_order_created"
	TriggerPaymentSucceeded    Trigger = "payment_succeeded"
	TriggerPaymentFailed       Trigger = "payment_failed"
	TriggerApprove             Trigger = "approve"
	TriggerReject              Trigger = "reject"
)

type transitionRule struct {
	from     models.ApplicationStatus
	to       models.ApplicationStatus
	template string
}

// transitionTable is the complete set of legal status changes.
var transitionTable = map[Trigger]transitionRule{
	TriggerPaymentOrderCreated: {models.StatusPending, models.StatusPaymentPending, TemplatePaymentOrderCreated},
	TriggerPaymentSucceeded:    {models.StatusPaymentPending, models.StatusUnderReview, TemplatePaymentSuccess},
	TriggerPaymentFailed:       {models.StatusPaymentPending, models.StatusPaymentPending, TemplatePaymentFailed},
	TriggerApprove:             {models.StatusUnderReview, models.StatusApproved, TemplateApplicationApproved},
	TriggerReject:              {models.StatusUnderReview, models.StatusRejected, TemplateApplicationRejected},
}

const vendorIDAttempts = 5

// Transition is a committed-or-about-to-commit status change.
type Transition struct {
	Trigger     Trigger
	From        models.ApplicationStatus
	To          models.ApplicationStatus
	Template    string
	ActorID     uint
	Detail      string
	At          time.Time
	Application models.VendorApplication
}

// StateMachine applies transitions to applications inside a store
// transaction. It never sends notifications itself.
type StateMachine struct {
	now         func() time.Time
	newVendorID func(time.Time) string
}

func NewStateMachine() *StateMachine {
	return &StateMachine{now: time.Now, newVendorID: utils.NewVendorID}
}

// CanApply reports whether trigger is legal from status.
func CanApply(status models.ApplicationStatus, trigger Trigger) bool {
	rule, ok := transitionTable[trigger]
	return ok && rule.from == status
}

func inIntake(s models.ApplicationStatus) bool {
	return s == models.StatusPending || s == models.StatusPaymentPending
}

func (m *StateMachine) allocateVendorID(ctx context.Context, tx store.Store, now time.Time) (string, error) {
	for i := 0; i < vendorIDAttempts; i++ {
		candidate := m.newVendorID(now)
		exists, err := tx.VendorIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check vendor id: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrVendorIDExhausted
}

// Apply validates trigger against app, persists the new state and exactly one
// audit entry through tx, and updates app in place. On any error app is left
// untouched.
func (m *StateMachine) Apply(ctx context.Context, tx store.Store, app *models.VendorApplication, trigger Trigger, actorID uint, detail string) (*Transition, error) {
	rule, ok := transitionTable[trigger]
	if !ok || rule.from != app.Status {
		return nil, fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, trigger, app.Status)
	}
	detail = strings.TrimSpace(detail)
	if trigger == TriggerReject && detail == "" {
		return nil, ErrMissingReason
	}

	now := m.now()
	next := *app
	next.Status = rule.to

	// reviewed_at is stamped on the first transition into any post-intake state
	if !inIntake(rule.to) && next.ReviewedAt == nil {
		next.ReviewedAt = &now
	}
	if trigger == TriggerApprove {
		vendorID, err := m.allocateVendorID(ctx, tx, now)
		if err != nil {
			return nil, err
		}
		next.VendorID = &vendorID
		next.ApprovedAt = &now
	}
	if !rule.to.IsActive() {
		next.ActiveUserID = nil
	}

	if err := tx.SaveApplication(ctx, &next); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	entry := &models.AuditLog{
		ApplicationPK: next.ID,
		UserID:        actorID,
		Action:        string(trigger),
		FromStatus:    rule.from,
		ToStatus:      rule.to,
		CreatedAt:     now,
	}
	if detail != "" {
		entry.Details = &detail
	}
	if err := tx.AppendAuditLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("append audit log: %w", err)
	}

	*app = next
	return &Transition{
		Trigger:     trigger,
		From:        rule.from,
		To:          rule.to,
		Template:    rule.template,
		ActorID:     actorID,
		Detail:      detail,
		At:          now,
		Application: next,
	}, nil
}
