// Package vpay реализует клиент платёжного шлюза.
//
// Подтверждение платежа — двухшаговое: каждый вызов сперва логинится
// от имени мерчанта и получает сессионный токен, затем запрашивает
// транзакцию по её референсу. Токен не кешируется.
package vpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexserve/lexserve-backend/internal/config"
)

// Client — клиент платёжного шлюза.
type Client struct {
	baseURL    string
	email      string
	password   string
	publicKey  string
	httpClient *http.Client
}

// NewClient создаёт клиент по реквизитам мерчанта из конфига.
func NewClient(cfg config.VPay) *Client {
	return &Client{
		baseURL:    cfg.VPayBaseURL,
		email:      cfg.VPayEmail,
		password:   cfg.VPayPassword,
		publicKey:  cfg.VPayPublicKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Login выполняет вход мерчанта и возвращает сессионный токен.
func (c *Client) Login(ctx context.Context) (string, error) {
	const op = "vpay.Login"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/service/v1/query/merchant/login", nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("email", c.email)
	req.Header.Set("password", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, body)
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("%s: empty token in response", op)
	}
	return loginResp.Token, nil
}

// VerifyTransaction запрашивает транзакцию по референсу с сессионным токеном.
func (c *Client) VerifyTransaction(ctx context.Context, token, transactionRef string) (*VerifyData, error) {
	const op = "vpay.VerifyTransaction"

	body, err := json.Marshal(verifyRequest{TransactionRef: transactionRef})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/service/v1/query/transaction/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("publicKey", c.publicKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, respBody)
	}

	var verifyResp verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &verifyResp.Data, nil
}
