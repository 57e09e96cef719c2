package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
)

// HTTPClient talks JSON to the gateway's REST API. Transport failures are
// tagged with the failure category they classify to, so callers never see
// raw HTTP errors.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type initiatePayload struct {
	RequestID     string `json:"requestId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ReturnURL     string `json:"returnUrl"`
	NotifyURL     string `json:"notifyUrl"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
}

type initiateResponse struct {
	PaymentURL string `json:"paymentUrl"`
	PaymentID  string `json:"paymentId"`
}

func (c *HTTPClient) InitiatePayment(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	payload := initiatePayload{
		RequestID:     req.RequestID,
		Amount:        req.Amount.StringFixed(2),
		Currency:      req.Currency,
		ReturnURL:     req.ReturnURL,
		NotifyURL:     req.NotifyURL,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	}

	raw, err := c.do(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return InitiateResult{}, err
	}

	var parsed initiateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return InitiateResult{}, fmt.Errorf("parse initiate response: %w", err)
	}
	if parsed.PaymentID == "" {
		return InitiateResult{}, fmt.Errorf("gateway returned no payment id")
	}

	return InitiateResult{
		PaymentURL:       parsed.PaymentURL,
		GatewayPaymentID: parsed.PaymentID,
		RawResponse:      string(raw),
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
	Amount string `json:"amount"`
}

func (c *HTTPClient) VerifyPayment(ctx context.Context, gatewayPaymentID string) (StatusResult, error) {
	raw, err := c.do(ctx, http.MethodGet, "/payments/"+gatewayPaymentID, nil)
	if err != nil {
		return StatusResult{}, err
	}

	var parsed statusResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return StatusResult{}, fmt.Errorf("parse verify response: %w", err)
	}

	result := StatusResult{Status: parsed.Status, RawResponse: string(raw)}
	if strings.TrimSpace(parsed.Amount) != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(parsed.Amount))
		if err == nil {
			result.Amount = &amount
		}
	}
	return result, nil
}

func (c *HTTPClient) CancelPayment(ctx context.Context, gatewayPaymentID string) error {
	_, err := c.do(ctx, http.MethodPost, "/payments/"+gatewayPaymentID+"/cancel", nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode gateway request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, domain.NewFailureError(domain.FailureNetworkTimeout, err)
		}
		return nil, domain.NewFailureError(domain.FailureServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.NewFailureError(domain.FailureServiceUnavailable, fmt.Errorf("gateway responded %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		logger.Error("gateway client request failed", nil, logger.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		})
		return nil, fmt.Errorf("gateway responded %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return raw, nil
}
