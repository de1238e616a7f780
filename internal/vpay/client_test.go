package vpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexserve/lexserve-backend/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.VPay{
		VPayBaseURL:   baseURL,
		VPayEmail:     "merchant@example.com",
		VPayPassword:  "merchant-pass",
		VPayPublicKey: "pk-test",
	})
}

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/service/v1/query/merchant/login", r.URL.Path)
		assert.Equal(t, "merchant@example.com", r.Header.Get("email"))
		assert.Equal(t, "merchant-pass", r.Header.Get("password"))

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	token, err := client.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
}

func TestLogin_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Login(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty token")
}

func TestLogin_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Login(context.Background())

	require.Error(t, err)
}

func TestVerifyTransaction_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/service/v1/query/transaction/verify", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		assert.Equal(t, "pk-test", r.Header.Get("publicKey"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref-1", req["transactionRef"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"paymentstatus": "paid",
				"orderamount":   200,
				"paymentmethod": "card",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	data, err := client.VerifyTransaction(context.Background(), "session-token", "ref-1")

	require.NoError(t, err)
	assert.True(t, data.Paid())
	assert.Equal(t, float64(200), data.OrderAmount)
	assert.Equal(t, "card", data.PaymentMethod)
}

func TestVerifyTransaction_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.VerifyTransaction(context.Background(), "session-token", "ref-1")

	require.Error(t, err)
}

func TestVerifyData_Paid(t *testing.T) {
	assert.True(t, VerifyData{PaymentStatus: "paid"}.Paid())
	assert.False(t, VerifyData{PaymentStatus: "pending"}.Paid())
	assert.False(t, VerifyData{PaymentStatus: "failed"}.Paid())
	assert.False(t, VerifyData{}.Paid())
}
