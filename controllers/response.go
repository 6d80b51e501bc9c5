package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vendor-onboarding-api/clients"
	"vendor-onboarding-api/middleware"
	"vendor-onboarding-api/models"
	"vendor-onboarding-api/services"
)

var errorStatus = []struct {
	err  error
	code int
}{
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrMissingReason, http.StatusBadRequest},
	{services.ErrEmptyFile, http.StatusBadRequest},
	{services.ErrPaymentNotAllowed, http.StatusBadRequest},
	{services.ErrPaymentVerificationFailed, http.StatusBadRequest},
	{services.ErrApplicationClosed, http.StatusBadRequest},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrApplicationNotFound, http.StatusNotFound},
	{services.ErrPaymentNotFound, http.StatusNotFound},
	{services.ErrDocumentNotFound, http.StatusNotFound},
	{services.ErrTemplateNotFound, http.StatusNotFound},
	{services.ErrDuplicatePendingApplication, http.StatusConflict},
	{services.ErrTemplateExists, http.StatusConflict},
	{services.ErrPaymentAlreadyProcessed, http.StatusConflict},
	{services.ErrInvalidTransition, http.StatusConflict},
	{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{services.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{clients.ErrNotConfigured, http.StatusServiceUnavailable},
}

// respondError maps service errors onto HTTP status codes. Anything not
// recognised is logged and reported as a 500 without details.
func respondError(c *gin.Context, err error) {
	var renderErr *services.TemplateRenderError
	if errors.As(err, &renderErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.code, gin.H{"error": err.Error()})
			return
		}
	}
	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	return user, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
