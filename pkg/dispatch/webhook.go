package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
)

// WebhookDispatcher posts the full payload as JSON to a workflow-automation
// webhook. The action's URL wins; a configured default applies when the
// action carries none.
type WebhookDispatcher struct {
	defaultURL string
	client     *http.Client
}

// NewWebhookDispatcher creates a dispatcher for webhook actions.
func NewWebhookDispatcher(defaultURL string) *WebhookDispatcher {
	return &WebhookDispatcher{
		defaultURL: defaultURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *WebhookDispatcher) Type() string { return spec.ActionWebhook }

// Send posts the payload. Automation hosts expose production hooks under
// /webhook/ and unactivated ones under /webhook-test/; a 404 on the former
// retries the latter once.
func (d *WebhookDispatcher) Send(ctx context.Context, action spec.Action, payload Payload) error {
	target := action.URL
	if target == "" {
		target = d.defaultURL
	}
	if target == "" {
		return fmt.Errorf("webhook: no URL configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	status, respBody, err := d.post(ctx, target, body)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if status == http.StatusNotFound && strings.Contains(target, "/webhook/") {
		alt := strings.Replace(target, "/webhook/", "/webhook-test/", 1)
		status, respBody, err = d.post(ctx, alt, body)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("webhook: status %d: %s", status, respBody)
	}
	return nil
}

func (d *WebhookDispatcher) post(ctx context.Context, target string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("post %s: %w", target, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return resp.StatusCode, strings.TrimSpace(string(respBody)), nil
}
