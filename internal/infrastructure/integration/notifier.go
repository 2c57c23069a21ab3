package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gasdist/backend/internal/domain/integration"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrDeliveryFailed is returned when the webhook endpoint rejects a notification
var ErrDeliveryFailed = errors.New("notification delivery failed")

const maxWebhookResponseSize = 64 << 10

// WebhookNotifier posts notifications as JSON to a configured URL
type WebhookNotifier struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewWebhookNotifier creates a webhook notifier. token, when set, is sent as a
// bearer token.
func NewWebhookNotifier(url, token string, timeout time.Duration) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("webhook URL is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the provider
func (n *WebhookNotifier) Name() string { return "webhook" }

// Send posts the notification. Any non-2xx response is a delivery failure.
func (n *WebhookNotifier) Send(ctx context.Context, msg integration.Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxWebhookResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Name identifies the provider
func (n *LogNotifier) Name() string { return "log" }

// Send logs the notification
func (n *LogNotifier) Send(_ context.Context, msg integration.Notification) error {
	n.logger.Info("Notification",
		zap.String("type", msg.Type),
		zap.String("subject", msg.Subject),
		zap.String("recipient", msg.Recipient),
		zap.Any("data", msg.Data),
	)
	return nil
}

// NoopNotifier drops notifications
type NoopNotifier struct{}

// Name identifies the provider
func (NoopNotifier) Name() string { return "noop" }

// Send does nothing
func (NoopNotifier) Send(context.Context, integration.Notification) error { return nil }

// NewNotifier builds the notifier selected by cfg.NotifyProvider
func NewNotifier(cfg config.IntegrationConfig, logger *zap.Logger) (integration.NotifyPort, error) {
	switch cfg.NotifyProvider {
	case "webhook":
		return NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookToken, cfg.WebhookTimeout)
	case "noop":
		return NoopNotifier{}, nil
	case "log", "":
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.NotifyProvider)
	}
}

var (
	_ integration.NotifyPort = (*WebhookNotifier)(nil)
	_ integration.NotifyPort = (*LogNotifier)(nil)
	_ integration.NotifyPort = NoopNotifier{}
)
