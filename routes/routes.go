package routes

import (
	"github.com/gin-gonic/gin"

	"vendor-onboarding-api/controllers"
	"vendor-onboarding-api/middleware"
	"vendor-onboarding-api/models"
)

// Handlers bundles everything SetupRoutes mounts.
type Handlers struct {
	Auth          *controllers.AuthController
	Applications  *controllers.ApplicationController
	Payments      *controllers.PaymentController
	Admin         *controllers.AdminController
	Templates     *controllers.NotificationTemplateController
	Authenticate  gin.HandlerFunc
	LoginLimiter  *middleware.IPRateLimiter
	HealthDetails func() gin.H
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/auth/register", h.Auth.Register)
			if h.LoginLimiter != nil {
				public.POST("/auth/login", h.LoginLimiter.Middleware(), h.Auth.Login)
			} else {
				public.POST("/auth/login", h.Auth.Login)
			}
			public.POST("/validate-unique", h.Auth.ValidateUnique)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				body := gin.H{
					"status":  "ok",
					"message": "Vendor Onboarding API is running",
				}
				if h.HealthDetails != nil {
					for k, v := range h.HealthDetails() {
						body[k] = v
					}
				}
				c.JSON(200, body)
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(h.Authenticate)
		{
			// User profile
			protected.GET("/profile", h.Auth.GetProfile)

			// Vendor applications
			vendors := protected.Group("/vendors")
			{
				vendors.POST("/applications", h.Applications.SubmitApplication)
				vendors.GET("/applications", h.Applications.GetMyApplications)
				vendors.GET("/applications/:id", h.Applications.GetApplication)
				vendors.POST("/applications/:id/documents", h.Applications.UploadDocument)
				vendors.GET("/applications/:id/documents", h.Applications.GetDocuments)
				vendors.GET("/documents/:document_id/url", h.Applications.GetDocumentURL)
			}

			// Payments
			payments := protected.Group("/payments")
			{
				payments.POST("/create-order", h.Payments.CreateOrder)
				payments.POST("/verify-payment", h.Payments.VerifyPayment)
				payments.GET("/history", h.Payments.GetPaymentHistory)
			}

			// Admin and reviewer only
			staff := middleware.RequireRole(models.RoleAdmin, models.RoleReviewer)

			admin := protected.Group("/admin", staff)
			{
				admin.GET("/applications", h.Admin.GetApplications)
				admin.GET("/applications/:id", h.Admin.GetApplicationDetail)
				admin.PUT("/applications/:id/review", h.Admin.ReviewApplication)
				admin.GET("/dashboard/stats", h.Admin.GetDashboardStats)
				admin.GET("/audit-logs/:id", h.Admin.GetAuditLogs)
			}

			notifications := protected.Group("/notifications", staff)
			{
				notifications.GET("/templates", h.Templates.GetTemplates)
				notifications.POST("/templates", h.Templates.CreateTemplate)
				notifications.PUT("/templates/:id", h.Templates.UpdateTemplate)
			}
		}
	}
}
