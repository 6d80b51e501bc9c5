package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
)

type sentMail struct {
	to, subject, html string
}

type fakeMailer struct {
	err  error
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("send without deadline")
	}
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, html})
	return nil
}

type sentSMS struct {
	to, body string
}

type fakeSMS struct {
	err  error
	sent []sentSMS
}

func (s *fakeSMS) Send(_ context.Context, to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentSMS{to, body})
	return nil
}

type failingTemplates struct{}

func (failingTemplates) FindTemplateByName(context.Context, string) (*models.NotificationTemplate, error) {
	return nil, errors.New("connection refused")
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("x", "Hi {{ name }}, id {{id}} / {{id}}", map[string]string{"name": "Asha", "id": "42"})
	if err != nil || out != "Hi Asha, id 42 / 42" {
		t.Fatalf("unexpected render %q err=%v", out, err)
	}

	_, err = RenderTemplate("x", "{{a}} {{b}} {{a}}", map[string]string{"b": "1"})
	var renderErr *TemplateRenderError
	if !errors.As(err, &renderErr) || len(renderErr.Missing) != 1 || renderErr.Missing[0] != "a" {
		t.Fatalf("expected TemplateRenderError for a, got %v", err)
	}

	out, err = RenderTemplate("x", "Hi {{business-name}} {{ order.id }}", map[string]string{"business-name": "Acme", "order.id": "7"})
	if err != nil || out != "Hi Acme 7" {
		t.Fatalf("expected punctuated keys to render, got %q err=%v", out, err)
	}
	_, err = RenderTemplate("x", "Hi {{business-name}}", map[string]string{"business_name": "Acme"})
	if !errors.As(err, &renderErr) || renderErr.Missing[0] != "business-name" {
		t.Fatalf("expected TemplateRenderError for business-name, got %v", err)
	}
}

func TestDispatchUsesDefaultTemplateAndNormalizesPhone(t *testing.T) {
	mail := &fakeMailer{}
	sms := &fakeSMS{}
	svc := NewNotificationService(store.NewMemoryStore(), mail, sms, NotificationConfig{Timeout: time.Second})

	res := svc.Dispatch(context.Background(), TemplateApplicationApproved, "v@example.com", "9876543210", map[string]string{
		"business_name":  "Acme",
		"application_id": "VND20240101ABCDEF12",
		"vendor_id":      "V2024ABCDEFGH",
	})

	if res.Source != SourceDefault || !res.EmailSent || !res.SMSSent || len(res.Errors) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(mail.sent) != 1 || mail.sent[0].subject != "Congratulations! Your Application is Approved" {
		t.Fatalf("unexpected mail %+v", mail.sent)
	}
	if !strings.Contains(mail.sent[0].html, "<strong>V2024ABCDEFGH</strong>") {
		t.Fatalf("expected vendor id in html body")
	}
	if len(sms.sent) != 1 || sms.sent[0].to != "+919876543210" {
		t.Fatalf("unexpected sms %+v", sms.sent)
	}
}

func TestDispatchPrefersStoreTemplate(t *testing.T) {
	st := store.NewMemoryStore()
	body := "Paid {{amount}}"
	if err := st.CreateTemplate(context.Background(), &models.NotificationTemplate{
		Name: TemplatePaymentSuccess, Subject: "Custom {{application_id}}", EmailTemplate: &body,
	}); err != nil {
		t.Fatal(err)
	}
	mail := &fakeMailer{}
	svc := NewNotificationService(st, mail, &fakeSMS{}, NotificationConfig{})

	res := svc.Dispatch(context.Background(), TemplatePaymentSuccess, "v@example.com", "", map[string]string{
		"application_id": "VND1", "amount": "999.00",
	})
	if res.Source != SourceStore || mail.sent[0].subject != "Custom VND1" || !strings.Contains(mail.sent[0].html, "Paid 999.00") {
		t.Fatalf("store template not used: %+v %+v", res, mail.sent)
	}
}

func TestDispatchFallsBackToGenericTemplate(t *testing.T) {
	mail := &fakeMailer{}
	sms := &fakeSMS{}
	svc := NewNotificationService(failingTemplates{}, mail, sms, NotificationConfig{})

	res := svc.Dispatch(context.Background(), "no_such_template", "v@example.com", "+447700900000", nil)
	if res.Source != SourceFallback || mail.sent[0].subject != "Notification" {
		t.Fatalf("unexpected fallback result %+v", res)
	}
	if len(sms.sent) != 1 || sms.sent[0].body != "You have a new notification." {
		t.Fatalf("unexpected fallback sms %+v", sms.sent)
	}
}

func TestDispatchSkipsSMSWithoutPhoneOrBody(t *testing.T) {
	sms := &fakeSMS{}
	svc := NewNotificationService(nil, &fakeMailer{}, sms, NotificationConfig{})
	data := map[string]string{"business_name": "A", "application_id": "B", "currency": "INR", "amount": "1", "order_id": "o"}

	svc.Dispatch(context.Background(), TemplateApplicationSubmitted, "v@example.com", "", data)
	svc.Dispatch(context.Background(), TemplatePaymentOrderCreated, "v@example.com", "9876543210", data)
	if len(sms.sent) != 0 {
		t.Fatalf("expected no sms, got %+v", sms.sent)
	}
}

func TestDispatchMissingPlaceholderSendsNothingForThatRendering(t *testing.T) {
	mail := &fakeMailer{}
	sms := &fakeSMS{}
	svc := NewNotificationService(nil, mail, sms, NotificationConfig{})

	// vendor_id is missing from the data
	res := svc.Dispatch(context.Background(), TemplateApplicationApproved, "v@example.com", "9876543210", map[string]string{
		"business_name": "Acme", "application_id": "VND1",
	})
	if res.EmailSent || res.SMSSent || len(mail.sent)+len(sms.sent) != 0 {
		t.Fatalf("expected nothing sent, got %+v", res)
	}
	var renderErr *TemplateRenderError
	if len(res.Errors) == 0 || !errors.As(res.Errors[0], &renderErr) {
		t.Fatalf("expected a TemplateRenderError, got %v", res.Errors)
	}
}

func TestDispatchSwallowsTransportFailures(t *testing.T) {
	mail := &fakeMailer{err: errors.New("smtp down")}
	sms := &fakeSMS{err: errors.New("twilio down")}
	svc := NewNotificationService(nil, mail, sms, NotificationConfig{})

	res := svc.Dispatch(context.Background(), TemplatePaymentFailed, "v@example.com", "9876543210", map[string]string{"application_id": "VND1"})
	if res.EmailSent || res.SMSSent || len(res.Errors) != 2 {
		t.Fatalf("expected both channels to fail softly, got %+v", res)
	}

	nilChannels := NewNotificationService(nil, nil, nil, NotificationConfig{})
	res = nilChannels.Dispatch(context.Background(), TemplatePaymentFailed, "v@example.com", "9876543210", map[string]string{"application_id": "VND1"})
	if len(res.Errors) != 2 {
		t.Fatalf("expected unconfigured channels to be reported, got %+v", res)
	}
}
