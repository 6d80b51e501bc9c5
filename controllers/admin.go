package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/services"
	"vendor-onboarding-api/store"
)

const maxListLimit = 1000

type AdminController struct {
	apps *services.ApplicationService
}

func NewAdminController(apps *services.ApplicationService) *AdminController {
	return &AdminController{apps: apps}
}

type ReviewRequest struct {
	Status          string `json:"status" binding:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejection_reason"`
}

type ApplicationListItem struct {
	ID            uint                     `json:"id"`
	ApplicationID string                   `json:"application_id"`
	BusinessName  string                   `json:"business_name"`
	UserEmail     string                   `json:"user_email"`
	Status        models.ApplicationStatus `json:"status"`
	SubmittedAt   time.Time                `json:"submitted_at"`
	ReviewedAt    *time.Time               `json:"reviewed_at,omitempty"`
}

// GetApplications lists applications with optional status/search filters
func (h *AdminController) GetApplications(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be a non-negative integer"})
		return
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil || limit < 1 || limit > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	apps, total, err := h.apps.List(c.Request.Context(), store.ApplicationFilter{
		Status: models.ApplicationStatus(c.Query("status")),
		Search: c.Query("search"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]ApplicationListItem, 0, len(apps))
	for _, app := range apps {
		item := ApplicationListItem{
			ID:            app.ID,
			ApplicationID: app.ApplicationID,
			BusinessName:  app.BusinessName,
			Status:        app.Status,
			SubmittedAt:   app.SubmittedAt,
			ReviewedAt:    app.ReviewedAt,
		}
		if app.User != nil {
			item.UserEmail = app.User.Email
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": items,
		"total":        total,
		"skip":         skip,
		"limit":        limit,
	})
}

func (h *AdminController) GetApplicationDetail(c *gin.Context) {
	detail, err := h.apps.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ReviewApplication approves or rejects an application under review
func (h *AdminController) ReviewApplication(c *gin.Context) {
	reviewer, ok := currentUser(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	app, err := h.apps.Review(c.Request.Context(), reviewer, c.Param("id"), req.Status, req.RejectionReason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Application reviewed successfully",
		"application_id":   app.ApplicationID,
		"status":           app.Status,
		"vendor_id":        app.VendorID,
		"rejection_reason": req.RejectionReason,
	})
}

func (h *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := h.apps.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminController) GetAuditLogs(c *gin.Context) {
	logs, err := h.apps.AuditLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
