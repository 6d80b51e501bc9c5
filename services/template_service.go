package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
)

var templateNamePattern = regexp.MustCompile(`^[a-z0-9_]{2,100}$`)

type TemplateInput struct {
	Name          *string
	Subject       *string
	EmailTemplate *string
	SMSTemplate   *string
}

// TemplateListing shows store overrides next to the built-in defaults they
// replace.
type TemplateListing struct {
	Templates []models.NotificationTemplate `json:"templates"`
	Defaults  []string                      `json:"defaults"`
}

type TemplateService struct {
	store store.Store
}

func NewTemplateService(st store.Store) *TemplateService {
	return &TemplateService{store: st}
}

func (s *TemplateService) List(ctx context.Context) (*TemplateListing, error) {
	items, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return &TemplateListing{Templates: items, Defaults: DefaultTemplateNames()}, nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*models.NotificationTemplate, error) {
	name := trimmed(in.Name)
	if !templateNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: name must be lowercase letters, digits or underscores", ErrInvalidInput)
	}
	subject := trimmed(in.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}

	tmpl := &models.NotificationTemplate{
		Name:          name,
		Subject:       subject,
		EmailTemplate: in.EmailTemplate,
		SMSTemplate:   in.SMSTemplate,
	}
	if err := s.store.CreateTemplate(ctx, tmpl); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrTemplateExists
		}
		return nil, err
	}
	return tmpl, nil
}

// Update applies the non-nil fields of in.
func (s *TemplateService) Update(ctx context.Context, id uint, in TemplateInput) (*models.NotificationTemplate, error) {
	tmpl, err := s.store.FindTemplateByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := trimmed(in.Name)
		if !templateNamePattern.MatchString(name) {
			return nil, fmt.Errorf("%w: name must be lowercase letters, digits or underscores", ErrInvalidInput)
		}
		tmpl.Name = name
	}
	if in.Subject != nil {
		subject := trimmed(in.Subject)
		if subject == "" {
			return nil, fmt.Errorf("%w: subject cannot be empty", ErrInvalidInput)
		}
		tmpl.Subject = subject
	}
	if in.EmailTemplate != nil {
		tmpl.EmailTemplate = in.EmailTemplate
	}
	if in.SMSTemplate != nil {
		tmpl.SMSTemplate = in.SMSTemplate
	}

	if err := s.store.SaveTemplate(ctx, tmpl); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrTemplateExists
		}
		return nil, err
	}
	return tmpl, nil
}
