// Package cac реализует клиент API реестра компаний для проверки контрагентов.
package cac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lexserve/lexserve-backend/internal/config"
)

// ErrCompanyNotFound возвращается, когда реестр не знает такую компанию.
var ErrCompanyNotFound = errors.New("company not found")

// ComplianceResult — сведения о компании из реестра.
type ComplianceResult struct {
	CompanyName      string `json:"company_name"`
	RCNumber         string `json:"rc_number"`
	Status           string `json:"status"`
	RegistrationDate string `json:"registration_date,omitempty"`
	Compliant        bool   `json:"compliant"`
}

// Client — клиент реестра компаний.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент по настройкам реестра из конфига.
func NewClient(cfg config.CAC) *Client {
	return &Client{
		baseURL:    cfg.CACBaseURL,
		apiKey:     cfg.CACAPIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckCompliance запрашивает сведения о компании по RC-номеру или названию.
func (c *Client) CheckCompliance(ctx context.Context, rcNumber, companyName string) (*ComplianceResult, error) {
	const op = "cac.CheckCompliance"

	params := url.Values{}
	if rcNumber != "" {
		params.Set("rc_number", rcNumber)
	}
	if companyName != "" {
		params.Set("company_name", companyName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/compliance/check?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrCompanyNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, respBody)
	}

	var result ComplianceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
