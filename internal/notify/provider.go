// Package notify delivers best-effort admin notifications. Failures are
// logged and swallowed; they never fail the financial commit that triggered
// them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/apexmarket/vendora/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Provider interface {
	NotifyAdmin(ctx context.Context, subject, message string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) NotifyAdmin(ctx context.Context, subject, message string) error {
	return nil
}

type webhookProvider struct {
	url    string
	client *http.Client
}

func (p *webhookProvider) NotifyAdmin(ctx context.Context, subject, message string) error {
	body, err := json.Marshal(map[string]string{
		"subject": subject,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("admin webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NewProvider picks the webhook provider when configured, no-op otherwise.
func NewProvider(cfg config.Config, log *zap.Logger) Provider {
	if cfg.AdminWebhookURL == "" {
		log.Named("notify").Info("admin webhook not configured, notifications disabled")
		return &NoOpProvider{}
	}
	return &webhookProvider{
		url:    cfg.AdminWebhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

var Module = fx.Module("notify",
	fx.Provide(NewProvider),
)
