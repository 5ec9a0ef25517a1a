package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jahmax1/Dragotix/internal/services/payment"
	"github.com/Jahmax1/Dragotix/internal/status"
)

func TestClient_CreateIntent_Success(t *testing.T) {
	var gotReq *http.Request
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotReq = r
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "pi_123",
			"client_secret": "pi_123_secret_abc",
			"status": "requires_payment_method"
		}`))
	}))
	defer server.Close()

	client := New(&Config{
		SecretKey: "sk_test_123",
		BaseURL:   server.URL,
		Timeout:   2 * time.Second,
	})

	intent, err := client.CreateIntent(context.Background(), &payment.IntentRequest{
		Amount:   decimal.NewFromFloat(25.50),
		Currency: "usd",
		Metadata: map[string]string{
			"event_id": "event-1",
		},
		IdempotencyKey: "user-1:event-1:VIP:1765000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "requires_payment_method", intent.Status)

	assert.Equal(t, "/v1/payment_intents", gotReq.URL.Path)
	assert.Equal(t, "Bearer sk_test_123", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "user-1:event-1:VIP:1765000000", gotReq.Header.Get("Idempotency-Key"))

	// 25.50 becomes 2550 minor units.
	assert.Equal(t, []string{"2550"}, gotForm["amount"])
	assert.Equal(t, []string{"usd"}, gotForm["currency"])
	assert.Equal(t, []string{"event-1"}, gotForm["metadata[event_id]"])
}

func TestClient_CreateIntent_MinorUnitRounding(t *testing.T) {
	var gotAmount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotAmount = r.PostForm.Get("amount")
		w.Write([]byte(`{"id": "pi_1", "client_secret": "s", "status": "requires_payment_method"}`))
	}))
	defer server.Close()

	client := New(&Config{SecretKey: "sk", BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := client.CreateIntent(context.Background(), &payment.IntentRequest{
		Amount:   decimal.NewFromFloat(19.999),
		Currency: "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "2000", gotAmount)
}

func TestClient_CreateIntent_CardDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "code": "card_declined", "message": "Your card was declined."}}`))
	}))
	defer server.Close()

	client := New(&Config{SecretKey: "sk", BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := client.CreateIntent(context.Background(), &payment.IntentRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})
	assert.ErrorIs(t, err, status.ErrGatewayDeclined)
}

func TestClient_CreateIntent_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"type": "api_error"}}`))
	}))
	defer server.Close()

	client := New(&Config{SecretKey: "sk", BaseURL: server.URL, Timeout: 2 * time.Second})

	_, err := client.CreateIntent(context.Background(), &payment.IntentRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, status.ErrGatewayDeclined)
}

func TestClient_CreateIntent_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"id": "pi_1"}`))
	}))
	defer server.Close()

	client := New(&Config{SecretKey: "sk", BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := client.CreateIntent(context.Background(), &payment.IntentRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})
	assert.ErrorIs(t, err, status.ErrGatewayTimeout)
}

func TestClient_CreateIntent_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"id": "pi_1"}`))
	}))
	defer server.Close()

	client := New(&Config{SecretKey: "sk", BaseURL: server.URL, Timeout: 2 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CreateIntent(ctx, &payment.IntentRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
	})
	assert.ErrorIs(t, err, status.ErrGatewayTimeout)
}

func TestClient_RetrieveIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		w.Write([]byte(`{"id": "pi_123", "client_secret": "s", "status": "succeeded"}`))
	}))
	defer server.Close()

	client := New(&Config{SecretKey: "sk", BaseURL: server.URL, Timeout: 2 * time.Second})

	intent, err := client.RetrieveIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status)
}
