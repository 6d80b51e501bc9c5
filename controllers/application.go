package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vendor-onboarding-api/services"
)

// multipart framing allowance on top of the file size limit
const uploadOverheadBytes = 1 << 20

type ApplicationController struct {
	apps *services.ApplicationService
	docs *services.DocumentService
}

func NewApplicationController(apps *services.ApplicationService, docs *services.DocumentService) *ApplicationController {
	return &ApplicationController{apps: apps, docs: docs}
}

type SubmitApplicationRequest struct {
	BusinessName       string  `json:"business_name" binding:"required,max=255"`
	BusinessType       string  `json:"business_type" binding:"required,max=100"`
	RegistrationNumber *string `json:"registration_number" binding:"omitempty,max=100"`
	TaxID              *string `json:"tax_id" binding:"omitempty,max=100"`
	Address            string  `json:"address" binding:"required"`
	City               string  `json:"city" binding:"required,max=100"`
	State              string  `json:"state" binding:"required,max=100"`
	PostalCode         string  `json:"postal_code" binding:"required,max=20"`
	Country            string  `json:"country" binding:"required,max=100"`
	BankName           *string `json:"bank_name" binding:"omitempty,max=255"`
	AccountNumber      *string `json:"account_number" binding:"omitempty,max=64"`
	RoutingNumber      *string `json:"routing_number" binding:"omitempty,max=64"`
}

func (r SubmitApplicationRequest) input() services.SubmitApplicationInput {
	return services.SubmitApplicationInput{
		BusinessName:       r.BusinessName,
		BusinessType:       r.BusinessType,
		RegistrationNumber: r.RegistrationNumber,
		TaxID:              r.TaxID,
		Address:            r.Address,
		City:               r.City,
		State:              r.State,
		PostalCode:         r.PostalCode,
		Country:            r.Country,
		BankName:           r.BankName,
		AccountNumber:      r.AccountNumber,
		RoutingNumber:      r.RoutingNumber,
	}
}

// SubmitApplication creates a pending vendor application
func (h *ApplicationController) SubmitApplication(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	app, err := h.apps.Submit(c.Request.Context(), user, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// GetMyApplications lists the caller's applications, newest first
func (h *ApplicationController) GetMyApplications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	apps, err := h.apps.ListMine(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationController) GetApplication(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app, err := h.apps.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// UploadDocument accepts a multipart form with document_type and file.
func (h *ApplicationController) UploadDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.docs.MaxBytes()+uploadOverheadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, services.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	documentType := c.PostForm("document_type")
	if documentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_type is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	// one byte past the limit is enough to reject oversized files
	data, err := io.ReadAll(io.LimitReader(file, h.docs.MaxBytes()+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	doc, err := h.docs.Upload(c.Request.Context(), user, c.Param("id"), services.UploadInput{
		DocumentType: documentType,
		Filename:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Document uploaded successfully",
		"document_id": doc.ID,
		"document":    doc,
	})
}

func (h *ApplicationController) GetDocuments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	docs, err := h.docs.List(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GetDocumentURL returns a short-lived link for one document.
func (h *ApplicationController) GetDocumentURL(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("document_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}
	url, err := h.docs.URL(c.Request.Context(), user, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
