package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
	"vendor-onboarding-api/utils"
)

const defaultNotifyTimeout = 10 * time.Second

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// TemplateSource is the store-backed override layer.
type TemplateSource interface {
	FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error)
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type NotificationConfig struct {
	DefaultCountryCode string
	Timeout            time.Duration
}

// Template sources reported in DispatchResult.
const (
	SourceStore    = "store"
	SourceDefault  = "default"
	SourceFallback = "fallback"
)

// DispatchResult describes what a dispatch did. It is informational only;
// dispatch never fails its caller.
type DispatchResult struct {
	Template  string
	Source    string
	EmailSent bool
	SMSSent   bool
	Errors    []error
}

type NotificationService struct {
	templates TemplateSource
	email     EmailSender
	sms       SMSSender
	cfg       NotificationConfig
}

func NewNotificationService(templates TemplateSource, email EmailSender, sms SMSSender, cfg NotificationConfig) *NotificationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultNotifyTimeout
	}
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = utils.DefaultCountryCode
	}
	return &NotificationService{templates: templates, email: email, sms: sms, cfg: cfg}
}

// RenderTemplate substitutes every {{key}} in text from data. Any key the
// text references but data lacks yields a *TemplateRenderError.
func RenderTemplate(name, text string, data map[string]string) (string, error) {
	var missing []string
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		key := m[1]
		if _, ok := data[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, key)
	}
	if len(missing) > 0 {
		return "", &TemplateRenderError{Template: name, Missing: missing}
	}

	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return data[key]
	}), nil
}

// resolve walks store -> built-in defaults -> generic fallback. Store rows
// with an empty body inherit that body from the built-in default.
func (s *NotificationService) resolve(ctx context.Context, name string) (notificationTemplate, string) {
	def, hasDefault := defaultTemplates[name]

	if s.templates != nil {
		row, err := s.templates.FindTemplateByName(ctx, name)
		switch {
		case err == nil && row != nil:
			tmpl := notificationTemplate{Name: name, Subject: row.Subject}
			if row.EmailTemplate != nil && *row.EmailTemplate != "" {
				tmpl.Email = *row.EmailTemplate
			} else if hasDefault {
				tmpl.Email = def.Email
			} else {
				tmpl.Email = fallbackTemplate.Email
			}
			if row.SMSTemplate != nil {
				tmpl.SMS = *row.SMSTemplate
			} else if hasDefault {
				tmpl.SMS = def.SMS
			}
			if tmpl.Subject == "" {
				tmpl.Subject = fallbackTemplate.Subject
			}
			return tmpl, SourceStore
		case err != nil && !errors.Is(err, store.ErrNotFound):
			log.Printf("notification template lookup failed (template=%s): %v", name, err)
		}
	}

	if hasDefault {
		def.Name = name
		return def, SourceDefault
	}
	fb := fallbackTemplate
	fb.Name = name
	return fb, SourceFallback
}

// Dispatch renders the named template and sends it by email and, when a
// phone and an SMS body exist, by SMS. Every failure is logged and recorded
// in the result; nothing propagates to the caller.
func (s *NotificationService) Dispatch(ctx context.Context, name, email, phone string, data map[string]string) (res DispatchResult) {
	res.Template = name
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("notification dispatch panic: %v", r)
			log.Printf("%v (template=%s)", err, name)
			res.Errors = append(res.Errors, err)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}

	tmpl, source := s.resolve(ctx, name)
	res.Source = source

	s.sendEmail(ctx, tmpl, email, data, &res)

	if phone != "" && tmpl.SMS != "" {
		s.sendSMS(ctx, tmpl, phone, data, &res)
	}
	return res
}

func (s *NotificationService) fail(res *DispatchResult, err error) {
	log.Printf("notification %s: %v", res.Template, err)
	res.Errors = append(res.Errors, err)
}

func (s *NotificationService) sendEmail(ctx context.Context, tmpl notificationTemplate, to string, data map[string]string, res *DispatchResult) {
	subject, err := RenderTemplate(tmpl.Name, tmpl.Subject, data)
	if err != nil {
		s.fail(res, err)
		return
	}
	body, err := RenderTemplate(tmpl.Name, tmpl.Email, data)
	if err != nil {
		s.fail(res, err)
		return
	}
	if to == "" {
		s.fail(res, errors.New("email skipped: no recipient"))
		return
	}
	if s.email == nil {
		s.fail(res, errors.New("email skipped: channel not configured"))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.email.Send(sendCtx, to, subject, buildEmailHTML(subject, body)); err != nil {
		s.fail(res, fmt.Errorf("email send failed (to=%s): %w", to, err))
		return
	}
	res.EmailSent = true
}

func (s *NotificationService) sendSMS(ctx context.Context, tmpl notificationTemplate, phone string, data map[string]string, res *DispatchResult) {
	body, err := RenderTemplate(tmpl.Name, tmpl.SMS, data)
	if err != nil {
		s.fail(res, err)
		return
	}
	if s.sms == nil {
		s.fail(res, errors.New("sms skipped: channel not configured"))
		return
	}

	to := utils.NormalizePhone(phone, s.cfg.DefaultCountryCode)
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.sms.Send(sendCtx, to, body); err != nil {
		s.fail(res, fmt.Errorf("sms send failed (to=%s): %w", to, err))
		return
	}
	res.SMSSent = true
}
