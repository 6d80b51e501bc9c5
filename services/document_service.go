package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
)

const defaultMaxUploadBytes = 10 << 20

var documentTypePattern = regexp.MustCompile(`^[a-z0-9_]{2,64}$`)

var allowedMimeTypes = map[string]bool{
	models.MimeJPEG: true,
	models.MimePNG:  true,
	models.MimePDF:  true,
}

// FileStorage is satisfied by *storage.Local and *storage.S3.
type FileStorage interface {
	Save(ctx context.Context, folder, filename, contentType string, data []byte) (string, error)
	URL(ctx context.Context, location string) (string, error)
}

type UploadInput struct {
	DocumentType string
	Filename     string
	ContentType  string
	Data         []byte
}

// DocumentView pairs a document with a link the client can fetch it from.
type DocumentView struct {
	models.Document
	URL string `json:"url,omitempty"`
}

type DocumentService struct {
	store    store.Store
	files    FileStorage
	maxBytes int64
	now      func() time.Time
}

func NewDocumentService(st store.Store, files FileStorage, maxBytes int64) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &DocumentService{store: st, files: files, maxBytes: maxBytes, now: time.Now}
}

func (s *DocumentService) MaxBytes() int64 { return s.maxBytes }

// checkContent enforces the size limit and that both the declared and the
// sniffed type are allowed and agree. It returns the canonical type.
func (s *DocumentService) checkContent(declared string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "image/jpg" {
		declared = models.MimeJPEG
	}
	if !allowedMimeTypes[declared] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, declared)
	}

	detected := mimetype.Detect(data)
	if !detected.Is(declared) {
		return "", fmt.Errorf("%w: content is %s, declared %s", ErrUnsupportedMediaType, detected.String(), declared)
	}
	return declared, nil
}

func (s *DocumentService) owned(ctx context.Context, user *models.User, applicationID string) (*models.VendorApplication, error) {
	app, err := s.store.FindApplication(ctx, applicationID, false)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	if app.UserID != user.ID && !user.IsStaff() {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

// Upload stores a document for one of the user's active applications.
func (s *DocumentService) Upload(ctx context.Context, user *models.User, applicationID string, in UploadInput) (*DocumentView, error) {
	docType := strings.ToLower(strings.TrimSpace(in.DocumentType))
	if !documentTypePattern.MatchString(docType) {
		return nil, fmt.Errorf("%w: document_type must be lowercase letters, digits or underscores", ErrInvalidInput)
	}

	app, err := s.owned(ctx, user, applicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != user.ID {
		return nil, ErrForbidden
	}
	if !app.Status.IsActive() {
		return nil, fmt.Errorf("%w: application is %s", ErrApplicationClosed, app.Status)
	}

	contentType, err := s.checkContent(in.ContentType, in.Data)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(strings.TrimSpace(in.Filename))
	if filename == "." || filename == "/" || filename == "" {
		filename = docType
	}

	location, err := s.files.Save(ctx, "applications/"+app.ApplicationID, filename, contentType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc := &models.Document{
		ApplicationPK: app.ID,
		DocumentType:  docType,
		Filename:      filename,
		FilePath:      location,
		FileSize:      int64(len(in.Data)),
		MimeType:      contentType,
		UploadedAt:    s.now(),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}
	return s.view(ctx, *doc), nil
}

func (s *DocumentService) view(ctx context.Context, doc models.Document) *DocumentView {
	v := &DocumentView{Document: doc}
	url, err := s.files.URL(ctx, doc.FilePath)
	if err == nil {
		v.URL = url
	}
	return v
}

func (s *DocumentService) List(ctx context.Context, user *models.User, applicationID string) ([]DocumentView, error) {
	app, err := s.owned(ctx, user, applicationID)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, *s.view(ctx, d))
	}
	return out, nil
}

// URL returns a download link for one document.
func (s *DocumentService) URL(ctx context.Context, user *models.User, documentID uint) (string, error) {
	doc, err := s.store.FindDocument(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrDocumentNotFound
	}
	if err != nil {
		return "", err
	}
	if doc.Application == nil || (doc.Application.UserID != user.ID && !user.IsStaff()) {
		return "", ErrDocumentNotFound
	}
	return s.files.URL(ctx, doc.FilePath)
}
