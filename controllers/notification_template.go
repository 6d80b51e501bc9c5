package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vendor-onboarding-api/services"
)

type NotificationTemplateController struct {
	templates *services.TemplateService
}

func NewNotificationTemplateController(templates *services.TemplateService) *NotificationTemplateController {
	return &NotificationTemplateController{templates: templates}
}

type CreateTemplateRequest struct {
	Name          string  `json:"name" binding:"required,max=100"`
	Subject       string  `json:"subject" binding:"required,max=255"`
	EmailTemplate *string `json:"email_template"`
	SMSTemplate   *string `json:"sms_template"`
}

type UpdateTemplateRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=100"`
	Subject       *string `json:"subject" binding:"omitempty,max=255"`
	EmailTemplate *string `json:"email_template"`
	SMSTemplate   *string `json:"sms_template"`
}

func (h *NotificationTemplateController) GetTemplates(c *gin.Context) {
	listing, err := h.templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *NotificationTemplateController) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tmpl, err := h.templates.Create(c.Request.Context(), services.TemplateInput{
		Name:          &req.Name,
		Subject:       &req.Subject,
		EmailTemplate: req.EmailTemplate,
		SMSTemplate:   req.SMSTemplate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *NotificationTemplateController) UpdateTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tmpl, err := h.templates.Update(c.Request.Context(), uint(id), services.TemplateInput{
		Name:          req.Name,
		Subject:       req.Subject,
		EmailTemplate: req.EmailTemplate,
		SMSTemplate:   req.SMSTemplate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}
