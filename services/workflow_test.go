package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
	"vendor-onboarding-api/utils"
)

func TestHappyPathFromSubmissionToApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	if app.Status != models.StatusPending || !utils.IsApplicationID(app.ApplicationID) {
		t.Fatalf("unexpected submitted application %+v", app)
	}

	order, err := f.payments.CreateOrder(ctx, f.vendor, app.ApplicationID)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Amount.StringFixed(2) != "999.00" || order.Currency != "INR" || order.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected order %+v", order)
	}

	res, err := f.payments.Verify(ctx, f.vendor, order.OrderID, "pay_1", "sig")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Payment.Status != models.PaymentSuccess || res.Application.Status != models.StatusUnderReview {
		t.Fatalf("unexpected verify result %+v", res)
	}

	approved, err := f.apps.Review(ctx, f.admin, app.ApplicationID, DecisionApprove, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if approved.Status != models.StatusApproved || approved.VendorID == nil || !utils.IsVendorID(*approved.VendorID) {
		t.Fatalf("unexpected approved application %+v", approved)
	}

	want := []string{
		TemplateApplicationSubmitted,
		TemplatePaymentOrderCreated,
		TemplatePaymentSuccess,
		TemplateApplicationApproved,
	}
	if got := f.notifier.names(); !equalStrings(got, want) {
		t.Fatalf("unexpected notifications: got %v want %v", got, want)
	}
	last := f.notifier.calls[len(f.notifier.calls)-1]
	if last.email != f.vendor.Email || last.data["vendor_id"] != *approved.VendorID {
		t.Fatalf("approval notification has wrong recipient or data: %+v", last)
	}

	if n := f.auditCount(t, app); n != 3 {
		t.Fatalf("expected 3 audit entries, got %d", n)
	}
	if len(f.events.messages) != 3 {
		t.Fatalf("expected 3 status events, got %d", len(f.events.messages))
	}
	var evt StatusChangedEvent
	if err := json.Unmarshal(f.events.messages[2], &evt); err != nil {
		t.Fatal(err)
	}
	if evt.ToStatus != models.StatusApproved || evt.VendorID != *approved.VendorID {
		t.Fatalf("unexpected final event %+v", evt)
	}
}

func TestApproveFromPendingIsRejected(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	_, err := f.apps.Review(context.Background(), f.admin, app.ApplicationID, DecisionApprove, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	stored, _ := f.store.FindApplication(context.Background(), app.ApplicationID, false)
	if stored.Status != models.StatusPending || stored.VendorID != nil {
		t.Fatalf("application changed: %+v", stored)
	}
	if n := f.auditCount(t, app); n != 0 {
		t.Fatalf("expected no audit entries, got %d", n)
	}
	if got := f.notifier.names(); !equalStrings(got, []string{TemplateApplicationSubmitted}) {
		t.Fatalf("unexpected notifications %v", got)
	}
}

func TestFailedPaymentThenRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t)

	order, err := f.payments.CreateOrder(ctx, f.vendor, app.ApplicationID)
	if err != nil {
		t.Fatal(err)
	}

	f.gateway.valid = false
	res, err := f.payments.Verify(ctx, f.vendor, order.OrderID, "pay_bad", "forged")
	if !errors.Is(err, ErrPaymentVerificationFailed) {
		t.Fatalf("expected ErrPaymentVerificationFailed, got %v", err)
	}
	if res == nil || res.Payment.Status != models.PaymentFailed {
		t.Fatalf("expected failed payment in result, got %+v", res)
	}

	stored, _ := f.store.FindApplication(ctx, app.ApplicationID, false)
	if stored.Status != models.StatusPaymentPending {
		t.Fatalf("application should stay payment_pending, got %s", stored.Status)
	}
	if n := f.auditCount(t, app); n != 2 {
		t.Fatalf("expected order + failure audit entries, got %d", n)
	}
	names := f.notifier.names()
	if names[len(names)-1] != TemplatePaymentFailed {
		t.Fatalf("expected payment_failed notification, got %v", names)
	}

	if _, err := f.payments.Verify(ctx, f.vendor, order.OrderID, "pay_bad", "forged"); !errors.Is(err, ErrPaymentAlreadyProcessed) {
		t.Fatalf("expected ErrPaymentAlreadyProcessed, got %v", err)
	}

	retry, err := f.payments.CreateOrder(ctx, f.vendor, app.ApplicationID)
	if err != nil {
		t.Fatalf("retry CreateOrder: %v", err)
	}
	if retry.OrderID == order.OrderID {
		t.Fatal("retry must raise a new order")
	}
	if n := f.auditCount(t, app); n != 2 {
		t.Fatalf("retry must not transition, got %d audit entries", n)
	}

	// a second order while the retry is still open is refused
	if _, err := f.payments.CreateOrder(ctx, f.vendor, app.ApplicationID); !errors.Is(err, ErrPaymentNotAllowed) {
		t.Fatalf("expected ErrPaymentNotAllowed, got %v", err)
	}

	f.gateway.valid = true
	if _, err := f.payments.Verify(ctx, f.vendor, retry.OrderID, "pay_ok", "sig"); err != nil {
		t.Fatalf("verify retry: %v", err)
	}
	history, _ := f.payments.History(ctx, f.vendor)
	if len(history) != 2 || history[0].OrderID != retry.OrderID {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestVerifyUnknownOrder(t *testing.T) {
	f := newFixture(t)
	if _, err := f.payments.Verify(context.Background(), f.vendor, "order_missing", "p", "s"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestCreateOrderChecksOwnership(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	other := f.user(t, "other@example.com", models.RoleVendor)

	if _, err := f.payments.CreateOrder(context.Background(), other, app.ApplicationID); !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
	if f.gateway.orders != 0 {
		t.Fatal("gateway must not be called for a foreign application")
	}
}

func TestSecondActiveApplicationIsRefused(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t)

	if _, err := f.apps.Submit(context.Background(), f.vendor, sampleInput()); !errors.Is(err, ErrDuplicatePendingApplication) {
		t.Fatalf("expected ErrDuplicatePendingApplication, got %v", err)
	}

	// reject the first one, after which a fresh submission is accepted
	ctx := context.Background()
	order, _ := f.payments.CreateOrder(ctx, f.vendor, first.ApplicationID)
	if _, err := f.payments.Verify(ctx, f.vendor, order.OrderID, "pay", "sig"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.apps.Review(ctx, f.admin, first.ApplicationID, DecisionReject, "missing licence"); err != nil {
		t.Fatal(err)
	}
	rejectCall := f.notifier.calls[len(f.notifier.calls)-1]
	if rejectCall.name != TemplateApplicationRejected || rejectCall.data["rejection_reason"] != "missing licence" {
		t.Fatalf("unexpected rejection notification %+v", rejectCall)
	}

	if _, err := f.apps.Submit(ctx, f.vendor, sampleInput()); err != nil {
		t.Fatalf("expected resubmission after rejection to succeed, got %v", err)
	}
}

func TestConcurrentSubmissionsAllowOnlyOne(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.apps.Submit(context.Background(), f.vendor, sampleInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrDuplicatePendingApplication):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful submission, got %d", ok)
	}
	n, _ := f.store.CountActiveApplications(context.Background(), f.vendor.ID)
	if n != 1 {
		t.Fatalf("expected one active application, got %d", n)
	}
}

func TestConcurrentReviewsAllowOnlyOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t)
	order, err := f.payments.CreateOrder(ctx, f.vendor, app.ApplicationID)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := f.payments.Verify(ctx, f.vendor, order.OrderID, "pay_1", "sig"); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		decision := DecisionApprove
		if i%2 == 1 {
			decision = DecisionReject
		}
		wg.Add(1)
		go func(decision string) {
			defer wg.Done()
			_, err := f.apps.Review(ctx, f.admin, app.ApplicationID, decision, "incomplete documents")
			errs <- err
		}(decision)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, ErrInvalidTransition):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one review to win, got %d", wins)
	}

	stored, err := f.store.FindApplication(ctx, app.ApplicationID, false)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status.IsActive() || stored.ReviewedAt == nil || stored.ActiveUserID != nil {
		t.Fatalf("unexpected reviewed application %+v", stored)
	}
	if (stored.Status == models.StatusApproved) != (stored.VendorID != nil) {
		t.Fatalf("vendor id must exist exactly when approved: %+v", stored)
	}
	// order created, payment succeeded, one review
	if n := f.auditCount(t, app); n != 3 {
		t.Fatalf("expected 3 audit entries, got %d", n)
	}
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	f := newFixture(t)
	in := sampleInput()
	in.City = "  "
	if _, err := f.apps.Submit(context.Background(), f.vendor, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDashboardStatsAndAdminListing(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	stats, err := f.apps.DashboardStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	items, total, err := f.apps.List(context.Background(), store.ApplicationFilter{Status: models.StatusPending})
	if err != nil || total != 1 || items[0].ApplicationID != app.ApplicationID {
		t.Fatalf("unexpected listing %v %d %v", items, total, err)
	}
	if _, _, err := f.apps.List(context.Background(), store.ApplicationFilter{Status: "bogus"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}

	detail, err := f.apps.Detail(context.Background(), app.ApplicationID)
	if err != nil || detail.Application.User == nil || detail.LatestPayment != nil {
		t.Fatalf("unexpected detail %+v err=%v", detail, err)
	}
}
