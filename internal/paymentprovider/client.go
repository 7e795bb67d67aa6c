// Package paymentprovider клиент платёжного шлюза Maya (Checkout API).
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/rental-ledger/internal/config"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
)

const checkoutPath = "/checkout/v1/checkouts"

// Client отправляет запросы в шлюз с Basic-авторизацией по ключам магазина.
type Client struct {
	publicKey  string
	secretKey  string
	apiURL     string
	currency   string
	httpClient *http.Client
}

// NewClient создаёт клиент Maya по настройкам шлюза.
func NewClient(cfg config.Gateway) *Client {
	return &Client{
		publicKey:  cfg.PublicKey,
		secretKey:  cfg.SecretKey,
		apiURL:     strings.TrimRight(cfg.BaseURL, "/"),
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.TimeoutGateway},
	}
}

// Currency возвращает валюту, в которой выставляются счета.
func (c *Client) Currency() string {
	return c.currency
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.publicKey + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CreateCheckout создаёт платёжную форму. Любая ошибка сети или ответ не 2xx
// возвращается как apperr.ErrGateway.
func (c *Client) CreateCheckout(ctx context.Context, reqParams CheckoutRequest) (*CheckoutResponse, error) {
	const op = "paymentprovider.CreateCheckout"

	req, err := c.newRequest(ctx, http.MethodPost, checkoutPath, reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s: %w: unexpected status %s: %s",
			op, apperr.ErrGateway, resp.Status, strings.TrimSpace(string(body)))
	}

	var checkout CheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("%s: %w: decode response: %w", op, apperr.ErrGateway, err)
	}
	if checkout.RedirectURL == "" {
		return nil, fmt.Errorf("%s: %w: empty redirectUrl", op, apperr.ErrGateway)
	}
	return &checkout, nil
}
