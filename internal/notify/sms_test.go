package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelnyxSenderSendsMessage(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"msg-1","status":"queued","to":"+15559876543"}}`))
	}))
	defer srv.Close()

	sender, err := NewTelnyxSender(TelnyxConfig{
		APIKey:             "key-123",
		FromNumber:         "+15551234567",
		MessagingProfileID: "profile-1",
		BaseURL:            srv.URL,
	}, nil)
	require.NoError(t, err)

	err = sender.SendSMS(context.Background(), "+15559876543", "see you soon")
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "+15551234567", gotPayload["from"])
	assert.Equal(t, "+15559876543", gotPayload["to"])
	assert.Equal(t, "see you soon", gotPayload["text"])
	assert.Equal(t, "profile-1", gotPayload["messaging_profile_id"])
}

func TestTelnyxSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"title":"invalid number"}]}`))
	}))
	defer srv.Close()

	sender, err := NewTelnyxSender(TelnyxConfig{
		APIKey:     "key-123",
		FromNumber: "+15551234567",
		BaseURL:    srv.URL,
	}, nil)
	require.NoError(t, err)

	err = sender.SendSMS(context.Background(), "+1555", "hi")
	assert.ErrorContains(t, err, "status 422")
}

func TestTelnyxSenderValidation(t *testing.T) {
	_, err := NewTelnyxSender(TelnyxConfig{FromNumber: "+15551234567"}, nil)
	assert.ErrorContains(t, err, "API key")

	_, err = NewTelnyxSender(TelnyxConfig{APIKey: "key"}, nil)
	assert.ErrorContains(t, err, "from number")

	sender, err := NewTelnyxSender(TelnyxConfig{APIKey: "key", FromNumber: "+15551234567"}, nil)
	require.NoError(t, err)
	assert.Error(t, sender.SendSMS(context.Background(), "", "body"))
	assert.Error(t, sender.SendSMS(context.Background(), "+15559876543", ""))
}
