package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidTransition           = errors.New("invalid status transition")
	ErrMissingReason               = errors.New("a reason is required to reject an application")
	ErrDuplicatePendingApplication = errors.New("user already has an active application")
	ErrPaymentVerificationFailed   = errors.New("payment signature verification failed")
	ErrPaymentAlreadyProcessed     = errors.New("payment already processed")
	ErrPaymentNotAllowed           = errors.New("application is not awaiting payment")
	ErrApplicationNotFound         = errors.New("application not found")
	ErrPaymentNotFound             = errors.New("payment not found")
	ErrDocumentNotFound            = errors.New("document not found")
	ErrTemplateNotFound            = errors.New("notification template not found")
	ErrTemplateExists              = errors.New("notification template already exists")
	ErrForbidden                   = errors.New("forbidden")
	ErrUnsupportedMediaType        = errors.New("unsupported media type")
	ErrFileTooLarge                = errors.New("file too large")
	ErrEmptyFile                   = errors.New("file is empty")
	ErrInvalidInput                = errors.New("invalid input")
	ErrVendorIDExhausted           = errors.New("could not allocate a unique vendor id")
	ErrApplicationClosed           = errors.New("application is closed")
)

// TemplateRenderError reports placeholders that had no value in the data map.
type TemplateRenderError struct {
	Template string
	Missing  []string
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("template %q: missing placeholder(s) %s", e.Template, strings.Join(e.Missing, ", "))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
