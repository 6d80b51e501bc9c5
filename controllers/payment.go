package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vendor-onboarding-api/services"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// The fee is fixed by configuration; clients only name the application.
type CreateOrderRequest struct {
	ApplicationID string `json:"application_id" binding:"required"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

func (h *PaymentController) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.payments.CreateOrder(c.Request.Context(), user, req.ApplicationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *PaymentController) VerifyPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.payments.Verify(c.Request.Context(), user, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if errors.Is(err, services.ErrPaymentVerificationFailed) && result != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       err.Error(),
			"payment":     result.Payment,
			"application": result.Application,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Payment verified successfully",
		"payment":     result.Payment,
		"application": result.Application,
	})
}

func (h *PaymentController) GetPaymentHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	payments, err := h.payments.History(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	history := make([]gin.H, 0, len(payments))
	for _, p := range payments {
		item := gin.H{
			"id":         p.ID,
			"order_id":   p.OrderID,
			"payment_id": p.PaymentID,
			"amount":     p.Amount,
			"currency":   p.Currency,
			"status":     p.Status,
			"created_at": p.CreatedAt,
		}
		if p.Application != nil {
			item["application_id"] = p.Application.ApplicationID
		}
		history = append(history, item)
	}
	c.JSON(http.StatusOK, history)
}
