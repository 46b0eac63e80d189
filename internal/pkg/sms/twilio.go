package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

var (
	// ErrTwilioCredentials is returned when the account sid, auth token or sender is missing.
	ErrTwilioCredentials = errors.New("twilio credentials not configured")
	// ErrNoRecipient is returned when Message.To is empty.
	ErrNoRecipient = errors.New("sms recipient is required")
)

// TwilioConfig configures the Twilio client.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	// BaseURL overrides the REST endpoint, mostly for tests.
	BaseURL string
	Timeout time.Duration
}

// Twilio sends messages through the Twilio Messages REST resource.
type Twilio struct {
	client  *http.Client
	baseURL string
	sid     string
	token   string
	from    string
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewTwilio builds a Twilio client.
func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrTwilioCredentials
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultTwilioBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Twilio{
		client:  &http.Client{Timeout: timeout},
		baseURL: base,
		sid:     cfg.AccountSID,
		token:   cfg.AuthToken,
		from:    cfg.From,
	}, nil
}

// Send posts the message and fails on any non-2xx reply.
func (t *Twilio) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", t.from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.sid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.SetBasicAuth(t.sid, t.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("sms: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var out twilioResponse
		if json.Unmarshal(raw, &out) == nil && out.Message != "" {
			return fmt.Errorf("sms: twilio status %d code %d: %s", resp.StatusCode, out.Code, out.Message)
		}
		return fmt.Errorf("sms: twilio status %d", resp.StatusCode)
	}

	return nil
}

// Close releases idle connections.
func (t *Twilio) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
