package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
)

type dispatchCall struct {
	name  string
	email string
	phone string
	data  map[string]string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (n *recordingNotifier) Dispatch(_ context.Context, name, email, phone string, data map[string]string) DispatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, dispatchCall{name: name, email: email, phone: phone, data: data})
	return DispatchResult{Template: name}
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.name)
	}
	return out
}

type recordingEvents struct {
	mu       sync.Mutex
	messages [][]byte
}

func (e *recordingEvents) PublishMessage(_ context.Context, _, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, value)
	return nil
}

type fakeGateway struct {
	orders  int
	err     error
	valid   bool
	lastAmt decimal.Decimal
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, _ string, _ map[string]string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.orders++
	g.lastAmt = amount
	return "order_" + string(rune('A'+g.orders-1)), nil
}

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return g.valid && signature != ""
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type memoryFiles struct {
	saved map[string][]byte
}

func (m *memoryFiles) Save(_ context.Context, folder, filename, _ string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	loc := folder + "/" + filename
	m.saved[loc] = data
	return loc, nil
}

func (m *memoryFiles) URL(_ context.Context, location string) (string, error) {
	if _, ok := m.saved[location]; !ok {
		return "", errors.New("missing")
	}
	return "/uploads/" + location, nil
}

type fixture struct {
	store     *store.MemoryStore
	notifier  *recordingNotifier
	events    *recordingEvents
	gateway   *fakeGateway
	files     *memoryFiles
	workflow  *Workflow
	apps      *ApplicationService
	payments  *PaymentService
	documents *DocumentService
	vendor    *models.User
	admin     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	f := &fixture{
		store:    st,
		notifier: &recordingNotifier{},
		events:   &recordingEvents{},
		gateway:  &fakeGateway{valid: true},
		files:    &memoryFiles{},
	}
	f.workflow = NewWorkflow(st, NewStateMachine(), f.notifier, f.events)
	f.apps = NewApplicationService(st, f.workflow)
	f.payments = NewPaymentService(st, f.workflow, f.gateway, PaymentConfig{Fee: decimal.RequireFromString("999.00"), Currency: "INR"})
	f.documents = NewDocumentService(st, f.files, 1024)
	f.vendor = f.user(t, "vendor@example.com", models.RoleVendor)
	f.admin = f.user(t, "admin@example.com", models.RoleAdmin)
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	phone := "9876543210"
	u := &models.User{Email: email, FullName: "Test", Role: role, IsActive: true, Phone: &phone}
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func sampleInput() SubmitApplicationInput {
	return SubmitApplicationInput{
		BusinessName: "Acme Traders",
		BusinessType: "retail",
		Address:      "12 Market Road",
		City:         "Pune",
		State:        "MH",
		PostalCode:   "411001",
		Country:      "India",
	}
}

func (f *fixture) submit(t *testing.T) *models.VendorApplication {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), f.vendor, sampleInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return app
}

func (f *fixture) auditCount(t *testing.T, app *models.VendorApplication) int {
	t.Helper()
	logs, err := f.store.ListAuditLogs(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	return len(logs)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
