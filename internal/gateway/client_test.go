package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAZtrades/zarcaro-pay/internal/models"
)

func serve(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestCreateCheckoutSession(t *testing.T) {
	var got models.CheckoutRequest
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create-checkout-session", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"url": "https://pay.example/abc"})
	})

	url, err := c.CreateCheckoutSession(context.Background(), "tok-1", models.CheckoutRequest{
		Amount:      1235,
		Description: "Legal services payment of $12.345",
		SuccessURL:  "http://portal/dashboard",
		CancelURL:   "http://portal/dashboard",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", url)
	assert.Equal(t, int64(1235), got.Amount)
}

func TestCreateCheckoutSession_GatewayError(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "card declined"})
	})

	_, err := c.CreateCheckoutSession(context.Background(), "tok-1", models.CheckoutRequest{Amount: 500})
	require.Error(t, err)
	assert.True(t, IsGatewayError(err))
	assert.Equal(t, "card declined", err.Error())
}

func TestCreateCheckoutSession_MissingURLOn2xx(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := c.CreateCheckoutSession(context.Background(), "tok-1", models.CheckoutRequest{Amount: 500})
	require.Error(t, err, "a 2xx body without a url is still a failure")
	assert.True(t, IsGatewayError(err))
}

func TestCreateLinkToken(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plaid/create_link_token", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"link_token": "link-sandbox-1"})
	})

	token, err := c.CreateLinkToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-1", token)
}

func TestExchangePublicToken(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "public-sandbox-1", req["public_token"])
		json.NewEncoder(w).Encode(map[string]string{})
	})

	err := c.ExchangePublicToken(context.Background(), "tok-1", "public-sandbox-1")
	assert.NoError(t, err)
}

func TestTransactions(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":"1","amount":500,"status":"paid","currency":"usd","timestamp":{"seconds":1700000000}}]`))
	})

	txs, err := c.Transactions(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "1", txs[0].ID)
	assert.Equal(t, int64(500), txs[0].Amount)
	assert.Equal(t, "usd", txs[0].Currency)
	assert.Equal(t, "paid", txs[0].Status)
	require.NotNil(t, txs[0].Timestamp)
	assert.Equal(t, int64(1700000000), txs[0].Timestamp.Seconds)
}

func TestTransactions_ObjectBodyIsFailure(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})

	_, err := c.Transactions(context.Background(), "tok-1")
	require.Error(t, err)
	assert.Equal(t, "unauthorized", err.Error())
}

func TestTransactions_ObjectBodyWithoutErrorText(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	_, err := c.Transactions(context.Background(), "tok-1")
	require.Error(t, err, "any non-array body is a failure even on 2xx")
	assert.True(t, IsGatewayError(err))
}

func TestSubmitContact_Unauthenticated(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{})
	})

	err := c.SubmitContact(context.Background(), models.ContactMessage{
		Name: "Ana", Email: "ana@example.com", Message: "hello",
	})
	assert.NoError(t, err)
}

func TestSubmitContact_Error(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "name, email and message are required"})
	})

	err := c.SubmitContact(context.Background(), models.ContactMessage{})
	require.Error(t, err)
	assert.Equal(t, "name, email and message are required", err.Error())
}
