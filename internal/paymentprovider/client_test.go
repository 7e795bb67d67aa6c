package paymentprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/rental-ledger/internal/config"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
)

func newTestClient(url string) *Client {
	return NewClient(config.Gateway{
		BaseURL:        url,
		PublicKey:      "pk-test",
		SecretKey:      "sk-test",
		Currency:       "PHP",
		TimeoutGateway: 2 * time.Second,
	})
}

func testCheckout() CheckoutRequest {
	amount := NewAmount(decimal.RequireFromString("999"), "PHP")
	return CheckoutRequest{
		TotalAmount:            amount,
		Buyer:                  Buyer{FirstName: "Ana", LastName: "Cruz", Contact: Contact{Email: "ana@example.com"}},
		RedirectURL:            RedirectURL{Success: "https://app/ok", Failure: "https://app/fail", Cancel: "https://app/cancel"},
		RequestReferenceNumber: "SUB-1-abc",
		Items:                  []Item{{Name: "Standard", Quantity: 1, TotalAmount: amount}},
	}
}

func TestClient_CreateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, checkoutPath, r.URL.Path)
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("pk-test:sk-test"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SUB-1-abc", body["requestReferenceNumber"])
		total := body["totalAmount"].(map[string]any)
		assert.InDelta(t, 999.0, total["value"], 0.001)
		assert.Equal(t, "PHP", total["currency"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"checkoutId":"chk-1","redirectUrl":"https://pay.example/chk-1"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).CreateCheckout(context.Background(), testCheckout())
	require.NoError(t, err)
	assert.Equal(t, "chk-1", resp.CheckoutID)
	assert.Equal(t, "https://pay.example/chk-1", resp.RedirectURL)
}

func TestClient_CreateCheckoutErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
		},
		{
			name: "missing redirect url",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"checkoutId":"chk-2"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL).CreateCheckout(context.Background(), testCheckout())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrGateway)
			assert.True(t, apperr.Retryable(err))
		})
	}
}

func TestClient_CreateCheckoutUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).CreateCheckout(context.Background(), testCheckout())
	assert.ErrorIs(t, err, apperr.ErrGateway)
}
