package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendor-onboarding-api/models"
)

func seedUser(t *testing.T, s Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: "Test User", Role: models.RoleVendor, IsActive: true}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func newApp(userID uint, appID string, status models.ApplicationStatus, submitted time.Time) *models.VendorApplication {
	app := &models.VendorApplication{
		ApplicationID: appID,
		UserID:        userID,
		BusinessName:  "Biz " + appID,
		BusinessType:  "retail",
		Status:        status,
		SubmittedAt:   submitted,
	}
	if status.IsActive() {
		uid := userID
		app.ActiveUserID = &uid
	}
	return app
}

func TestMemoryStoreRejectsSecondActiveApplication(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "a@example.com")

	if err := s.CreateApplication(ctx, newApp(u.ID, "VND1", models.StatusPending, time.Now())); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := s.CreateApplication(ctx, newApp(u.ID, "VND2", models.StatusPending, time.Now()))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// a terminal application frees the slot
	if err := s.CreateApplication(ctx, newApp(u.ID, "VND3", models.StatusRejected, time.Now())); err != nil {
		t.Fatalf("terminal create: %v", err)
	}
}

func TestMemoryStoreWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "b@example.com")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx Store) error {
		if err := tx.CreateApplication(ctx, newApp(u.ID, "VND1", models.StatusPending, time.Now())); err != nil {
			return err
		}
		if err := tx.AppendAuditLog(ctx, &models.AuditLog{Action: "submit"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.FindApplication(ctx, "VND1", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rolled back application to be gone, got %v", err)
	}
	n, _ := s.CountActiveApplications(ctx, u.ID)
	if n != 0 {
		t.Fatalf("expected 0 active applications, got %d", n)
	}
}

func TestMemoryStoreListApplicationsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.CreateApplication(ctx, newApp(alice.ID, "VNDA1", models.StatusRejected, base))
	_ = s.CreateApplication(ctx, newApp(alice.ID, "VNDA2", models.StatusUnderReview, base.Add(time.Hour)))
	_ = s.CreateApplication(ctx, newApp(bob.ID, "VNDB1", models.StatusPending, base.Add(2*time.Hour)))

	apps, total, err := s.ListApplications(ctx, ApplicationFilter{})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if total != 3 || len(apps) != 3 {
		t.Fatalf("expected 3 applications, got total=%d len=%d", total, len(apps))
	}
	if apps[0].ApplicationID != "VNDB1" {
		t.Fatalf("expected newest first, got %s", apps[0].ApplicationID)
	}
	if apps[0].User == nil || apps[0].User.Email != "bob@example.com" {
		t.Fatalf("expected owner to be attached, got %+v", apps[0].User)
	}

	apps, total, _ = s.ListApplications(ctx, ApplicationFilter{Search: "ALICE@"})
	if total != 2 || len(apps) != 2 {
		t.Fatalf("expected 2 search hits, got %d", total)
	}

	apps, total, _ = s.ListApplications(ctx, ApplicationFilter{Status: models.StatusPending})
	if total != 1 || apps[0].ApplicationID != "VNDB1" {
		t.Fatalf("unexpected status filter result: %d %+v", total, apps)
	}

	apps, total, _ = s.ListApplications(ctx, ApplicationFilter{Skip: 1, Limit: 1})
	if total != 3 || len(apps) != 1 || apps[0].ApplicationID != "VNDA2" {
		t.Fatalf("unexpected page: total=%d apps=%+v", total, apps)
	}

	stats, _ := s.ApplicationStats(ctx)
	if stats != (ApplicationStats{Total: 3, Pending: 2, Rejected: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMemoryStoreLatestPaymentAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "c@example.com")
	app := newApp(u.ID, "VND1", models.StatusPaymentPending, time.Now())
	_ = s.CreateApplication(ctx, app)

	first := &models.Payment{ApplicationPK: app.ID, OrderID: "order_1", Status: models.PaymentFailed}
	second := &models.Payment{ApplicationPK: app.ID, OrderID: "order_2", Status: models.PaymentPending}
	if err := s.CreatePayment(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePayment(ctx, second); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePayment(ctx, &models.Payment{ApplicationPK: app.ID, OrderID: "order_1"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate order id to fail, got %v", err)
	}

	latest, err := s.LatestPayment(ctx, app.ID)
	if err != nil || latest.OrderID != "order_2" {
		t.Fatalf("unexpected latest payment %+v err=%v", latest, err)
	}

	history, _ := s.ListPaymentsByUser(ctx, u.ID)
	if len(history) != 2 || history[0].OrderID != "order_2" || history[0].Application == nil {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestMemoryStoreTemplateNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateTemplate(ctx, &models.NotificationTemplate{Name: "payment_success", Subject: "Paid"}); err != nil {
		t.Fatal(err)
	}
	other := &models.NotificationTemplate{Name: "custom", Subject: "Custom"}
	if err := s.CreateTemplate(ctx, other); err != nil {
		t.Fatal(err)
	}
	other.Name = "payment_success"
	if err := s.SaveTemplate(ctx, other); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected rename onto an existing name to fail, got %v", err)
	}
}
