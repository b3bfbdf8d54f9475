package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ChapaClient talks to the Chapa payment gateway. Both calls carry the
// Bearer secret and an explicit timeout so a wedged gateway surfaces as a
// failed call, never a hung request.
type ChapaClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// ChapaInitializeRequest is the payload for POST /transaction/initialize.
type ChapaInitializeRequest struct {
	Amount      float64
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	TxRef       string
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

// ChapaInitializeResult carries the checkout redirect returned by the gateway.
type ChapaInitializeResult struct {
	CheckoutURL      string
	GatewayReference string
}

// ChapaVerifyResult is the gateway's word on a transaction. Status is the
// gateway's own verdict ("success", "failed", ...); Raw is the full response
// body, stored as the verification payload.
type ChapaVerifyResult struct {
	Status string
	Raw    map[string]interface{}
}

// NewChapaClient constructs a ChapaClient against the given base URL.
func NewChapaClient(secretKey, baseURL string) *ChapaClient {
	return &ChapaClient{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Initialize creates a checkout session for the given reference. On any
// failure the caller must assume the gateway never saw the reference: the
// local pending row stays pending and is simply abandoned.
func (c *ChapaClient) Initialize(ctx context.Context, req ChapaInitializeRequest) (*ChapaInitializeResult, error) {
	payload := map[string]interface{}{
		"amount":       strconv.FormatFloat(req.Amount, 'f', 2, 64),
		"currency":     req.Currency,
		"email":        req.Email,
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"tx_ref":       req.TxRef,
		"callback_url": req.CallbackURL,
		"return_url":   req.ReturnURL,
		"customization": map[string]string{
			"title":       req.Title,
			"description": req.Description,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build initialize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: initialize returned status %d: %s", ErrGateway, resp.StatusCode, string(respBody))
	}

	var result struct {
		Status string `json:"status"`
		Data   struct {
			CheckoutURL string `json:"checkout_url"`
			Reference   string `json:"reference"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode initialize response: %v", ErrGateway, err)
	}
	if result.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: initialize response carried no checkout URL", ErrGateway)
	}

	return &ChapaInitializeResult{
		CheckoutURL:      result.Data.CheckoutURL,
		GatewayReference: result.Data.Reference,
	}, nil
}

// Verify asks the gateway for the authoritative state of a transaction.
// Transport failure means "unknown", not "failed": the error wraps
// ErrGateway and the caller must leave the transaction pending.
func (c *ChapaClient) Verify(ctx context.Context, txRef string) (*ChapaVerifyResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: verify: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: verify returned status %d: %s", ErrGateway, resp.StatusCode, string(respBody))
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode verify response: %v", ErrGateway, err)
	}

	status := ""
	if data, ok := raw["data"].(map[string]interface{}); ok {
		status, _ = data["status"].(string)
	}
	if status == "" {
		// Some gateway deployments report only the top-level status.
		status, _ = raw["status"].(string)
	}

	return &ChapaVerifyResult{Status: status, Raw: raw}, nil
}
