package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
)

func sampleNotification() LeadNotification {
	return LeadNotification{
		To:          []string{" owner@example.com ", ""},
		ProfileName: "Sunset Strings",
		ProfileSlug: "sunset-strings",
		Phone:       "+15550100",
		Values: []formschema.LabelledValue{
			{Key: "full_name", Label: "Full name", Value: "Ada"},
			{Key: "message", Label: "Message", Value: "Hello"},
		},
	}
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	t.Parallel()

	n := New(Config{})
	require.IsType(t, Disabled{}, n)
	require.NoError(t, n.NotifyLead(context.Background(), sampleNotification()))
}

func TestResendClientPostsEmail(t *testing.T) {
	t.Parallel()

	var got resendEmail
	var authz string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/emails", r.URL.Path)
		authz = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{APIKey: "re_test", BaseURL: srv.URL})
	require.NoError(t, client.NotifyLead(context.Background(), sampleNotification()))

	require.Equal(t, "Bearer re_test", authz)
	require.Equal(t, DefaultFromAddress, got.From)
	require.Equal(t, []string{"owner@example.com"}, got.To)
	require.Equal(t, "New quote request for Sunset Strings", got.Subject)
	require.Contains(t, got.Text, "Profile: Sunset Strings (/sunset-strings)")
	require.Contains(t, got.Text, "Email: -")
	require.Contains(t, got.Text, "Full name: Ada")
}

func TestResendClientSkipsWithoutRecipients(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	n := sampleNotification()
	n.To = []string{" "}
	require.NoError(t, NewResendClient(Config{APIKey: "k", BaseURL: srv.URL}).NotifyLead(context.Background(), n))
	require.Zero(t, calls.Load())
}

func TestResendClientReportsProviderErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"invalid from"}`))
	}))
	t.Cleanup(srv.Close)

	err := NewResendClient(Config{APIKey: "k", From: "bad", BaseURL: srv.URL}).NotifyLead(context.Background(), sampleNotification())
	require.ErrorIs(t, err, ErrSendFailed)
	require.Contains(t, err.Error(), "invalid from")
}

func TestResendClientSendsOnceWithIdempotencyKey(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var key atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		key.Store(r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	n := sampleNotification()
	n.LeadID = uuid.New()
	err := NewResendClient(Config{APIKey: "k", BaseURL: srv.URL}).NotifyLead(context.Background(), n)
	require.ErrorIs(t, err, ErrSendFailed)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "lead-"+n.LeadID.String(), key.Load())
}
