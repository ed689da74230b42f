package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
)

var invalidPayloadPattern = regexp.MustCompile(`(?i)invalid_payload`)

// SlackDispatcher posts alert text to a Slack incoming webhook. The webhook
// URL is environment-scoped configuration, never part of the action.
type SlackDispatcher struct {
	webhookURL string
	client     *http.Client
}

// NewSlackDispatcher creates a dispatcher for slack actions.
func NewSlackDispatcher(webhookURL string) *SlackDispatcher {
	return &SlackDispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *SlackDispatcher) Type() string { return spec.ActionSlack }

// Send posts the alert as a JSON body and, when Slack rejects it with
// invalid_payload, retries once with the legacy form-encoded payload=
// format some workspace configurations still require.
func (d *SlackDispatcher) Send(ctx context.Context, action spec.Action, payload Payload) error {
	if d.webhookURL == "" {
		return fmt.Errorf("slack: no webhook URL configured")
	}

	text := applyTemplate(action, payload).AlertText()

	msg, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	resp, body, err := d.post(ctx, "application/json; charset=utf-8", string(msg))
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if !invalidPayloadPattern.MatchString(body) {
		return fmt.Errorf("slack: json post failed: %d %s", resp.StatusCode, body)
	}

	// Legacy fallback: form-encoded payload= field.
	form := url.Values{"payload": {string(msg)}}.Encode()
	resp, body, err = d.post(ctx, "application/x-www-form-urlencoded", form)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack: form post failed: %d %s", resp.StatusCode, body)
	}
	return nil
}

func (d *SlackDispatcher) post(ctx context.Context, contentType, body string) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, strings.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return resp, strings.TrimSpace(string(respBody)), nil
}
