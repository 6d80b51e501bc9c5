package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Twilio sends SMS through the Twilio Messages REST endpoint.
type Twilio struct {
	accountSID string
	from       string
	http       *resty.Client
}

func NewTwilio(baseURL, accountSID, authToken, from string) *Twilio {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &Twilio{
		accountSID: accountSID,
		from:       from,
		http: resty.New().
			SetBaseURL(baseURL).
			SetBasicAuth(accountSID, authToken).
			SetTimeout(15 * time.Second),
	}
}

func (t *Twilio) Configured() bool {
	return t != nil && t.accountSID != "" && t.from != ""
}

// Send delivers body to the E.164 number to.
func (t *Twilio) Send(ctx context.Context, to, body string) error {
	if !t.Configured() {
		return fmt.Errorf("twilio: %w", ErrNotConfigured)
	}

	var apiErr twilioError
	resp, err := t.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": t.from,
			"Body": body,
		}).
		SetError(&apiErr).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", t.accountSID))
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("twilio error (%d): %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("twilio http error (%d)", resp.StatusCode())
	}
	return nil
}
