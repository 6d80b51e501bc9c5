package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"vendor-onboarding-api/models"
)

func TestFindApplicationWithLockIssuesForUpdate(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("(?s)SELECT \\* FROM `vendor_applications` WHERE application_id = \\?.*FOR UPDATE"),
			args:    []driver.Value{"VND20240101ABCDEF12"},
			columns: []string{"id", "application_id", "user_id", "status", "business_name"},
			rows:    [][]driver.Value{{int64(7), "VND20240101ABCDEF12", int64(3), "under_review", "Acme"}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	s := NewGormStore(db)
	app, err := s.FindApplication(context.Background(), "VND20240101ABCDEF12", true)
	if err != nil {
		t.Fatalf("FindApplication returned error: %v", err)
	}
	if app.ID != 7 || app.UserID != 3 || app.Status != models.StatusUnderReview {
		t.Fatalf("unexpected application: %+v", app)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestFindApplicationMapsMissingRowToErrNotFound(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `vendor_applications` WHERE application_id = \\?"),
			columns: []string{"id"},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := NewGormStore(db).FindApplication(context.Background(), "VND-missing", false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestApplicationStatsFoldsActiveStatusesIntoPending(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT status, COUNT\\(\\*\\) AS total FROM `vendor_applications` GROUP BY `status`"),
			args:    []driver.Value{},
			columns: []string{"status", "total"},
			rows: [][]driver.Value{
				{"pending", int64(2)},
				{"payment_pending", int64(1)},
				{"under_review", int64(4)},
				{"approved", int64(3)},
				{"rejected", int64(1)},
			},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	stats, err := NewGormStore(db).ApplicationStats(context.Background())
	if err != nil {
		t.Fatalf("ApplicationStats returned error: %v", err)
	}
	want := ApplicationStats{Total: 11, Pending: 7, Approved: 3, Rejected: 1}
	if stats != want {
		t.Fatalf("unexpected stats: got %+v want %+v", stats, want)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateApplicationTranslatesUniqueViolation(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `vendor_applications`"),
			err:     &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '3' for key 'uq_vendor_applications_active_user'"},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	userID := uint(3)
	app := &models.VendorApplication{
		ApplicationID: "VND20240101AAAA0000",
		UserID:        userID,
		BusinessName:  "Acme",
		BusinessType:  "retail",
		Status:        models.StatusPending,
		ActiveUserID:  &userID,
		SubmittedAt:   time.Now(),
	}
	err := NewGormStore(db).CreateApplication(context.Background(), app)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if state.rollbacks != 1 {
		t.Fatalf("expected the insert transaction to roll back, got %d rollbacks", state.rollbacks)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestWithinTxLocksUserBeforeCounting(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("(?s)SELECT `id` FROM `users` WHERE id = \\?.*FOR UPDATE"),
			columns: []string{"id"},
			rows:    [][]driver.Value{{int64(3)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `vendor_applications` WHERE user_id = \\? AND status IN \\(\\?,\\?,\\?\\)"),
			args:    []driver.Value{int64(3), "pending", "payment_pending", "under_review"},
			columns: []string{"count"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	sentinel := errors.New("already active")
	err := NewGormStore(db).WithinTx(context.Background(), func(tx Store) error {
		if err := tx.LockUser(context.Background(), 3); err != nil {
			return err
		}
		n, err := tx.CountActiveApplications(context.Background(), 3)
		if err != nil {
			return err
		}
		if n > 0 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if state.begins != 1 || state.rollbacks != 1 || state.commits != 0 {
		t.Fatalf("unexpected tx bookkeeping: begins=%d commits=%d rollbacks=%d", state.begins, state.commits, state.rollbacks)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
