package clients

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned by clients whose credentials are missing.
var ErrNotConfigured = errors.New("client not configured")

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Razorpay talks to the Razorpay Orders API and checks checkout signatures.
type Razorpay struct {
	keyID     string
	keySecret string
	http      *resty.Client
}

func NewRazorpay(baseURL, keyID, keySecret string) *Razorpay {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &Razorpay{
		keyID:     keyID,
		keySecret: keySecret,
		http: resty.New().
			SetBaseURL(baseURL).
			SetBasicAuth(keyID, keySecret).
			SetTimeout(15 * time.Second),
	}
}

func (r *Razorpay) KeyID() string { return r.keyID }

func (r *Razorpay) Configured() bool { return r.keyID != "" && r.keySecret != "" }

// CreateOrder registers an order for amount (major units) and returns the
// gateway order id. Amounts are sent in minor units.
func (r *Razorpay) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string, notes map[string]string) (string, error) {
	if !r.Configured() {
		return "", fmt.Errorf("razorpay: %w", ErrNotConfigured)
	}

	payload := razorpayOrderRequest{
		Amount:   amount.Shift(2).Round(0).IntPart(),
		Currency: currency,
		Receipt:  notes["application_id"],
		Notes:    notes,
	}

	var order razorpayOrder
	var apiErr razorpayError
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&order).
		SetError(&apiErr).
		Post("/v1/orders")
	if err != nil {
		return "", fmt.Errorf("razorpay create order: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Description != "" {
			return "", fmt.Errorf("razorpay error (%d): %s", resp.StatusCode(), apiErr.Error.Description)
		}
		return "", fmt.Errorf("razorpay http error (%d): %s", resp.StatusCode(), resp.String())
	}
	if order.ID == "" {
		return "", errors.New("razorpay returned an order without id")
	}
	return order.ID, nil
}

// VerifySignature checks the checkout signature: hex HMAC-SHA256 of
// "order_id|payment_id" keyed with the key secret.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if r.keySecret == "" || signature == "" {
		return false
	}
	expected := Sign(r.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the signature Razorpay checkout would send for the pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
