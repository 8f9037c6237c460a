package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// SMSSender sends SMS messages to patients.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

const telnyxDefaultBaseURL = "https://api.telnyx.com/v2"

// TelnyxConfig controls the Telnyx SMS sender.
type TelnyxConfig struct {
	APIKey             string
	FromNumber         string
	MessagingProfileID string
	BaseURL            string
	Timeout            time.Duration
	HTTPClient         *http.Client
}

// TelnyxSender sends SMS via the Telnyx messages endpoint.
type TelnyxSender struct {
	apiKey             string
	fromNumber         string
	messagingProfileID string
	baseURL            string
	httpClient         *http.Client
	logger             *logging.Logger
}

// NewTelnyxSender creates a Telnyx SMS sender with sane defaults.
func NewTelnyxSender(cfg TelnyxConfig, logger *logging.Logger) (*TelnyxSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("notify: telnyx API key is required")
	}
	if strings.TrimSpace(cfg.FromNumber) == "" {
		return nil, errors.New("notify: telnyx from number is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = telnyxDefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TelnyxSender{
		apiKey:             cfg.APIKey,
		fromNumber:         cfg.FromNumber,
		messagingProfileID: cfg.MessagingProfileID,
		baseURL:            baseURL,
		httpClient:         httpClient,
		logger:             logger,
	}, nil
}

type telnyxMessageResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	To     string `json:"to"`
}

// SendSMS posts one outbound message.
func (s *TelnyxSender) SendSMS(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("notify: sms recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("notify: sms body required")
	}

	payload, err := json.Marshal(struct {
		From               string `json:"from"`
		To                 string `json:"to"`
		Text               string `json:"text"`
		MessagingProfileID string `json:"messaging_profile_id,omitempty"`
	}{
		From:               s.fromNumber,
		To:                 to,
		Text:               body,
		MessagingProfileID: s.messagingProfileID,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal sms body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("telnyx send failed", "error", err, "to", to)
		return fmt.Errorf("notify: telnyx send failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		s.logger.Error("telnyx returned error status", "status", resp.StatusCode, "body", string(raw), "to", to)
		return fmt.Errorf("notify: telnyx returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data telnyxMessageResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return fmt.Errorf("notify: decode telnyx response: %w", err)
	}

	s.logger.Info("sms sent via telnyx", "to", to, "message_id", wrapper.Data.ID, "status", wrapper.Data.Status)
	return nil
}

// StubSMSSender is a no-op sender for testing or when SMS is disabled.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ SMSSender = (*TelnyxSender)(nil)
var _ SMSSender = (*StubSMSSender)(nil)
