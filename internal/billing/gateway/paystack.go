// Package gateway holds the Paystack verify-by-reference client.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	"github.com/apexmarket/vendora/internal/config"
	"go.uber.org/zap"
)

type Paystack struct {
	baseURL   string
	secretKey string
	client    *http.Client
	log       *zap.Logger
}

// NewPaystack builds the verification client from config.
func NewPaystack(cfg config.Config, log *zap.Logger) billingdomain.Gateway {
	return &Paystack{
		baseURL:   strings.TrimRight(cfg.PaystackBaseURL, "/"),
		secretKey: cfg.PaystackSecretKey,
		client:    &http.Client{Timeout: cfg.PaystackTimeout},
		log:       log.Named("billing.gateway"),
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string          `json:"status"`
		Amount    int64           `json:"amount"`
		Currency  string          `json:"currency"`
		PaidAt    string          `json:"paid_at"`
		Metadata  json.RawMessage `json:"metadata"`
		Reference string          `json:"reference"`
	} `json:"data"`
}

// VerifyTransaction calls GET /transaction/verify/:reference. Any transport
// error, non-2xx response or envelope-level failure surfaces as
// ErrGatewayFailure; the caller fails closed on it.
func (p *Paystack) VerifyTransaction(ctx context.Context, reference string) (*billingdomain.VerifiedTransaction, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billingdomain.ErrGatewayFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billingdomain.ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.Warn("gateway verify returned non-2xx",
			zap.String("reference", reference),
			zap.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: http %d", billingdomain.ErrGatewayFailure, resp.StatusCode)
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", billingdomain.ErrGatewayFailure, err)
	}
	if !payload.Status {
		return nil, fmt.Errorf("%w: %s", billingdomain.ErrGatewayFailure, payload.Message)
	}

	verified := &billingdomain.VerifiedTransaction{
		Reference:  reference,
		Status:     payload.Data.Status,
		AmountKobo: payload.Data.Amount,
		Currency:   payload.Data.Currency,
		Metadata:   parseMetadata(payload.Data.Metadata),
	}
	if paidAt, err := time.Parse(time.RFC3339, payload.Data.PaidAt); err == nil {
		verified.PaidAt = paidAt
	}
	return verified, nil
}

// parseMetadata tolerates both an object and Paystack's string-encoded object.
func parseMetadata(raw json.RawMessage) billingdomain.Metadata {
	var meta billingdomain.Metadata
	if len(raw) == 0 {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err == nil {
		return meta
	}
	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		_ = json.Unmarshal([]byte(wrapped), &meta)
	}
	return meta
}
